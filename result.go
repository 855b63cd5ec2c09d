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
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
)

// Result is the output of one invocation: a *TextResult or an *ArtifactResult.
type Result interface {
	isResult()
}

// TextResult is displayable text. Diagnostic marks a parenthesized message describing bad
// input or a failure, e.g. "(invalid JSON)".
type TextResult struct {
	Text       string
	Diagnostic bool
}

func (*TextResult) isResult() {}

// ArtifactResult is a downloadable file produced by a converter.
type ArtifactResult struct {
	Filename string
	MIMEType string
	Data     []byte
	// Info is an optional annotation such as "Resized to 800x600".
	Info string
}

func (*ArtifactResult) isResult() {}

// Size returns the artifact length in bytes.
func (a *ArtifactResult) Size() int64 {
	return int64(len(a.Data))
}

// URL returns the artifact as a data URL.
func (a *ArtifactResult) URL() string {
	mime := a.MIMEType
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// Text returns a plain text result.
func Text(s string) *TextResult {
	return &TextResult{Text: s}
}

// Diagnosticf returns a diagnostic text result. The message is wrapped in parentheses
// unless it already is.
func Diagnosticf(format string, args ...any) *TextResult {
	return &TextResult{Text: parenthesize(fmt.Sprintf(format, args...)), Diagnostic: true}
}

// Artifact returns a downloadable result.
func Artifact(filename, mime string, data []byte, info string) *ArtifactResult {
	return &ArtifactResult{Filename: filename, MIMEType: mime, Data: data, Info: info}
}

func parenthesize(msg string) string {
	msg = strings.TrimSpace(msg)
	if strings.HasPrefix(msg, "(") && strings.HasSuffix(msg, ")") {
		return msg
	}
	return "(" + msg + ")"
}

// Normalize maps any converter return value onto the two result shapes.
func Normalize(r Result) Result {
	switch v := r.(type) {
	case *TextResult:
		if v == nil {
			return Diagnosticf("no output")
		}
		return v
	case *ArtifactResult:
		if v == nil {
			return Diagnosticf("no output")
		}
		if v.Filename == "" {
			out := *v
			out.Filename = "output.bin"
			return &out
		}
		return v
	default:
		return Diagnosticf("no output")
	}
}

// String renders a result as text: the text itself, or a one-line artifact summary.
func String(r Result) string {
	switch v := Normalize(r).(type) {
	case *TextResult:
		return v.Text
	case *ArtifactResult:
		s := fmt.Sprintf("%s (%s, %s)", v.Filename, v.MIMEType, humanBytes(v.Size()))
		if v.Info != "" {
			s += ": " + v.Info
		}
		return s
	}
	return ""
}

// IsDiagnostic reports whether r is a diagnostic text result.
func IsDiagnostic(r Result) bool {
	t, ok := Normalize(r).(*TextResult)
	return ok && t.Diagnostic
}

// outputName derives an artifact filename from an input name: the base name with its
// extension replaced by ext, or fallback+ext when no usable name is known.
func outputName(name, fallback, ext string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = fallback
	}
	return base + ext
}
