package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nicholasgasior/anyconvert"
	"github.com/nicholasgasior/anyconvert/internal/mcpserver"
)

func newListCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List converters, grouped by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := anyconvert.CategoryAll
			if category != "" {
				c = anyconvert.Category(category)
				if _, ok := categoryName(a.toolkit.Registry(), c); !ok {
					return fmt.Errorf("unknown category %q (see \"anyconvert categories\")", category)
				}
			}
			units := a.toolkit.Registry().FilterByCategory(c)
			if a.cfg.JSON {
				descs := make([]anyconvert.Descriptor, 0, len(units))
				for _, u := range units {
					descs = append(descs, anyconvert.Describe(u))
				}
				return writeJSON(cmd.OutOrStdout(), descs)
			}
			return printUnits(cmd.OutOrStdout(), a.toolkit.Registry(), units)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only list converters of this category")
	return cmd
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List converter categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			type categoryCount struct {
				ID    anyconvert.Category `json:"id"`
				Name  string              `json:"name"`
				Count int                 `json:"count"`
			}
			r := a.toolkit.Registry()
			var rows []categoryCount
			for _, info := range r.Categories() {
				rows = append(rows, categoryCount{ID: info.ID, Name: info.Name, Count: len(r.FilterByCategory(info.ID))})
			}
			if a.cfg.JSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			st := newStyler(cmd.OutOrStdout())
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, row := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", st.id(string(row.ID)), row.Name, row.Count)
			}
			return tw.Flush()
		},
	}
}

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <id>",
		Short: "Show the inputs and capabilities of one converter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.toolkit.Registry().FindByID(args[0])
			if err != nil {
				return err
			}
			d := anyconvert.Describe(u)
			if a.cfg.JSON {
				return writeJSON(cmd.OutOrStdout(), d)
			}

			st := newStyler(cmd.OutOrStdout())
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s  %s\n", st.heading(d.Name), st.id(d.ID))
			fmt.Fprintf(w, "%s\n\n", d.Description)
			fmt.Fprintf(w, "Category: %s\n", d.Category)
			fmt.Fprintf(w, "Input:    %s\n", inputKind(u))
			if d.AcceptsFile {
				fmt.Fprintf(w, "Accepts:  %s\n", d.AcceptTypes)
			}
			if d.HasTextInput {
				fmt.Fprintf(w, "Aux:      %s\n", d.TextPlaceholder)
			}
			if d.Placeholder != "" {
				fmt.Fprintf(w, "Example:\n%s\n", indent(d.Placeholder, "  "))
			}
			return nil
		},
	}
}

func newRunCmd(a *app) *cobra.Command {
	var (
		text   string
		files  []string
		aux    string
		output string
	)
	cmd := &cobra.Command{
		Use:   "run <id>",
		Short: "Run a converter",
		Long: `Run a converter on text or files.

Text comes from --text, or from stdin when neither --text nor --file is given.
Binary results are written to --output, or to the output directory under the
name the converter chose. Diagnostics go to stderr and exit with status 1.`,
		Example: `  anyconvert run base64-encode --text hello
  echo '{"b":1,"a":2}' | anyconvert run json-sort-keys
  anyconvert run image-resize --file photo.jpg --aux 800
  anyconvert run zip-create --file a.txt --file b.txt -o bundle.zip`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.toolkit.Registry().FindByID(args[0])
			if err != nil {
				return err
			}
			in := anyconvert.Input{Text: text, Aux: aux}
			for _, path := range files {
				f, err := anyconvert.ReadFile(path)
				if err != nil {
					return err
				}
				in.Files = append(in.Files, f)
			}
			if !cmd.Flags().Changed("text") && len(files) == 0 && !u.Meta().IsGenerator {
				stdin, err := readStdin(cmd.InOrStdin())
				if err != nil {
					return err
				}
				in.Text = stdin
			}

			res, err := a.toolkit.Run(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return a.writeResult(cmd, res, output)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&text, "text", "t", "", "Text input")
	f.StringArrayVarP(&files, "file", "f", nil, "Input file (repeatable)")
	f.StringVarP(&aux, "aux", "a", "", "Auxiliary parameter for file converters (e.g. a width or a sheet name)")
	f.StringVarP(&output, "output", "o", "", "Write the result to this file")
	return cmd
}

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the catalog as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.logger.Debug("Starting MCP server", slog.String("version", version))
			return mcpserver.Run(cmd.Context(), a.toolkit, version)
		},
	}
}

type resultJSON struct {
	Kind     string `json:"kind"`
	Text     string `json:"text,omitempty"`
	Filename string `json:"filename,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Info     string `json:"info,omitempty"`
	Path     string `json:"path,omitempty"`
}

func (a *app) writeResult(cmd *cobra.Command, res anyconvert.Result, output string) error {
	stdout := cmd.OutOrStdout()
	switch r := res.(type) {
	case *anyconvert.TextResult:
		if r.Diagnostic {
			if a.cfg.JSON {
				if err := writeJSON(stdout, resultJSON{Kind: "diagnostic", Text: r.Text}); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.ErrOrStderr(), newStyler(cmd.ErrOrStderr()).err(r.Text))
			}
			return errDiagnostic
		}
		if output != "" {
			return writeFile(output, []byte(withNewline(r.Text)))
		}
		if a.cfg.JSON {
			return writeJSON(stdout, resultJSON{Kind: "text", Text: r.Text})
		}
		_, err := io.WriteString(stdout, withNewline(r.Text))
		return err

	case *anyconvert.ArtifactResult:
		path := output
		if path == "" {
			path = filepath.Join(a.cfg.OutputDir, r.Filename)
		}
		if err := writeFile(path, r.Data); err != nil {
			return err
		}
		a.logger.Debug("Wrote artifact", slog.String("path", path), slog.Int64("size", r.Size()))
		if a.cfg.JSON {
			return writeJSON(stdout, resultJSON{
				Kind:     "artifact",
				Filename: r.Filename,
				MIMEType: r.MIMEType,
				Size:     r.Size(),
				Info:     r.Info,
				Path:     path,
			})
		}
		fmt.Fprintf(stdout, "Wrote %s (%s)\n", path, anyconvert.String(r))
		return nil
	}
	return fmt.Errorf("unexpected result type %T", res)
}

// readStdin returns stdin unless it is an interactive terminal.
func readStdin(r io.Reader) (string, error) {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUnits(w io.Writer, r *anyconvert.Registry, units []anyconvert.Unit) error {
	st := newStyler(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	var current anyconvert.Category
	for i, u := range units {
		m := u.Meta()
		if m.Category != current {
			current = m.Category
			if i > 0 {
				fmt.Fprintln(tw)
			}
			name, _ := categoryName(r, current)
			fmt.Fprintln(tw, st.heading(name))
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", st.id(m.ID), m.Name, st.dim(inputKind(u)))
	}
	return tw.Flush()
}

func categoryName(r *anyconvert.Registry, c anyconvert.Category) (string, bool) {
	for _, info := range r.Categories() {
		if info.ID == c {
			return info.Name, true
		}
	}
	return string(c), false
}

// inputKind summarizes what a converter reads.
func inputKind(u anyconvert.Unit) string {
	d := anyconvert.Describe(u)
	_, text := u.(anyconvert.TextConverter)
	switch {
	case d.IsGenerator:
		return "none (generator)"
	case d.MultipleFiles:
		return "files"
	case d.AcceptsFile && text:
		return "text or file"
	case d.AcceptsFile && d.HasTextInput:
		return "file + aux text"
	case d.AcceptsFile:
		return "file"
	}
	return "text"
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
