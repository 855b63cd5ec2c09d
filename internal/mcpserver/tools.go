package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nicholasgasior/anyconvert"
)

type listInput struct {
	Category string `json:"category,omitempty" jsonschema:"Only list converters of this category"`
}

type listOutput struct {
	Count      int                     `json:"count"`
	Converters []anyconvert.Descriptor `json:"converters"`
}

func (h *handlers) listConverters(_ context.Context, _ *mcp.CallToolRequest, input listInput) (*mcp.CallToolResult, listOutput, error) {
	category := anyconvert.CategoryAll
	if input.Category != "" {
		category = anyconvert.Category(input.Category)
		if !knownCategory(h.toolkit.Registry(), category) {
			return errResult(fmt.Errorf("unknown category %q", input.Category)), listOutput{}, nil
		}
	}
	units := h.toolkit.Registry().FilterByCategory(category)
	out := listOutput{
		Count:      len(units),
		Converters: make([]anyconvert.Descriptor, 0, len(units)),
	}
	for _, u := range units {
		out.Converters = append(out.Converters, anyconvert.Describe(u))
	}
	return nil, out, nil
}

func knownCategory(r *anyconvert.Registry, c anyconvert.Category) bool {
	for _, info := range r.Categories() {
		if info.ID == c {
			return true
		}
	}
	return false
}

// fileInput is one input file. Exactly one of Path or Base64 must be set.
type fileInput struct {
	Path   string `json:"path,omitempty"   jsonschema:"Path to a local file"`
	Base64 string `json:"base64,omitempty" jsonschema:"File content, base64 encoded"`
	Name   string `json:"name,omitempty"   jsonschema:"File name for base64 content (used for type detection and output names)"`
}

type convertInput struct {
	ID     string      `json:"id"               jsonschema:"Converter id from list_converters"`
	Text   string      `json:"text,omitempty"   jsonschema:"Text input"`
	Files  []fileInput `json:"files,omitempty"  jsonschema:"Input files for file converters"`
	Aux    string      `json:"aux,omitempty"    jsonschema:"Auxiliary parameter read by some file converters"`
	Output string      `json:"output,omitempty" jsonschema:"File path to write a binary result to instead of returning it inline"`
}

type convertOutput struct {
	// Kind is "text", "diagnostic" or "artifact".
	Kind      string `json:"kind"`
	Text      string `json:"text,omitempty"`
	Filename  string `json:"filename,omitempty"`
	MIMEType  string `json:"mime_type,omitempty"`
	Size      int64  `json:"size,omitempty"`
	Info      string `json:"info,omitempty"`
	Base64    string `json:"base64,omitempty"`
	WrittenTo string `json:"written_to,omitempty"`
}

func (h *handlers) convert(ctx context.Context, _ *mcp.CallToolRequest, input convertInput) (*mcp.CallToolResult, convertOutput, error) {
	if input.ID == "" {
		return errResult(fmt.Errorf("converter id is required")), convertOutput{}, nil
	}
	files, err := loadFiles(input.Files)
	if err != nil {
		return errResult(err), convertOutput{}, nil
	}

	res, err := h.toolkit.Run(ctx, input.ID, anyconvert.Input{
		Text:  input.Text,
		Files: files,
		Aux:   input.Aux,
	})
	if err != nil {
		return errResult(err), convertOutput{}, nil
	}

	switch r := res.(type) {
	case *anyconvert.TextResult:
		kind := "text"
		if r.Diagnostic {
			kind = "diagnostic"
		}
		return nil, convertOutput{Kind: kind, Text: r.Text}, nil
	case *anyconvert.ArtifactResult:
		out := convertOutput{
			Kind:     "artifact",
			Filename: r.Filename,
			MIMEType: r.MIMEType,
			Size:     r.Size(),
			Info:     r.Info,
		}
		if input.Output != "" {
			if err := os.WriteFile(input.Output, r.Data, 0o644); err != nil {
				return errResult(fmt.Errorf("failed to write output file: %w", err)), convertOutput{}, nil
			}
			out.WrittenTo = input.Output
			return nil, out, nil
		}
		if r.Size() > int64(cfg.InlineLimit) {
			return errResult(fmt.Errorf("result is %d bytes, over the inline limit; set output to write it to a file", r.Size())), convertOutput{}, nil
		}
		out.Base64 = base64.StdEncoding.EncodeToString(r.Data)
		return nil, out, nil
	}
	return errResult(fmt.Errorf("converter %s returned no result", input.ID)), convertOutput{}, nil
}

func loadFiles(inputs []fileInput) ([]anyconvert.File, error) {
	files := make([]anyconvert.File, 0, len(inputs))
	for i, in := range inputs {
		switch {
		case in.Path != "" && in.Base64 != "":
			return nil, fmt.Errorf("files[%d]: set either path or base64, not both", i)
		case in.Path != "":
			info, err := os.Stat(in.Path)
			if err != nil {
				return nil, fmt.Errorf("files[%d]: %w", i, err)
			}
			if info.Size() > int64(cfg.MaxFileSize) {
				return nil, fmt.Errorf("files[%d]: %s exceeds the %d byte limit", i, filepath.Base(in.Path), cfg.MaxFileSize)
			}
			f, err := anyconvert.ReadFile(in.Path)
			if err != nil {
				return nil, fmt.Errorf("files[%d]: %w", i, err)
			}
			if in.Name != "" {
				f = anyconvert.NewFile(in.Name, f.Data)
			}
			files = append(files, f)
		case in.Base64 != "":
			if base64.StdEncoding.DecodedLen(len(in.Base64)) > cfg.MaxFileSize {
				return nil, fmt.Errorf("files[%d]: content exceeds the %d byte limit", i, cfg.MaxFileSize)
			}
			data, err := base64.StdEncoding.DecodeString(in.Base64)
			if err != nil {
				return nil, fmt.Errorf("files[%d]: invalid base64: %w", i, err)
			}
			files = append(files, anyconvert.NewFile(in.Name, data))
		default:
			return nil, fmt.Errorf("files[%d]: path or base64 is required", i)
		}
	}
	return files, nil
}
