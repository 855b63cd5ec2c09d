// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package anyconvert

import (
	"encoding/json"
	"fmt"
	"strings"
)

// notebook is the subset of the Jupyter notebook format that gets rendered.
type notebook struct {
	Metadata notebookMetadata `json:"metadata"`
	Cells    []notebookCell   `json:"cells"`
}

type notebookMetadata struct {
	KernelSpec   *kernelSpec   `json:"kernelspec"`
	LanguageInfo *languageInfo `json:"language_info"`
}

type kernelSpec struct {
	Language string `json:"language"`
}

type languageInfo struct {
	Name string `json:"name"`
}

type notebookCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
	Outputs  []cellOutput    `json:"outputs"`
}

type cellOutput struct {
	OutputType string                     `json:"output_type"`
	Text       json.RawMessage            `json:"text"`
	Data       map[string]json.RawMessage `json:"data"`
	EName      string                     `json:"ename"`
	EValue     string                     `json:"evalue"`
}

func notebookToMarkdown(data []byte) (string, error) {
	var nb notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return "", Invalidf("not a readable notebook: %v", err)
	}
	if nb.Cells == nil {
		return "", Invalidf("not a readable notebook: no cells")
	}

	language := "python"
	switch {
	case nb.Metadata.KernelSpec != nil && nb.Metadata.KernelSpec.Language != "":
		language = nb.Metadata.KernelSpec.Language
	case nb.Metadata.LanguageInfo != nil && nb.Metadata.LanguageInfo.Name != "":
		language = nb.Metadata.LanguageInfo.Name
	}

	var sections []string
	for _, cell := range nb.Cells {
		source := parseSource(cell.Source)

		switch cell.CellType {
		case "markdown":
			if strings.TrimSpace(source) != "" {
				sections = append(sections, source)
			}

		case "code":
			if strings.TrimSpace(source) != "" {
				sections = append(sections, fmt.Sprintf("```%s\n%s\n```", language, source))
			}
			for _, output := range cell.Outputs {
				if text := parseOutputText(output); text != "" {
					sections = append(sections, fmt.Sprintf("```\n%s\n```", text))
				}
			}

		case "raw":
			if strings.TrimSpace(source) != "" {
				sections = append(sections, fmt.Sprintf("```\n%s\n```", source))
			}
		}
	}
	if len(sections) == 0 {
		return "", Invalidf("notebook has no content")
	}
	return normalizeOutput(strings.Join(sections, "\n\n")), nil
}

// parseSource extracts cell source, stored either as a string or an array of strings.
func parseSource(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return strings.Join(arr, "")
	}
	return ""
}

// parseOutputText extracts text from a stream, result or error output.
func parseOutputText(output cellOutput) string {
	if output.Text != nil {
		if text := parseSource(output.Text); text != "" {
			return strings.TrimRight(text, "\n")
		}
	}
	if raw, ok := output.Data["text/plain"]; ok {
		if text := parseSource(raw); text != "" {
			return strings.TrimRight(text, "\n")
		}
	}
	if output.OutputType == "error" && output.EName != "" {
		return output.EName + ": " + output.EValue
	}
	return ""
}
