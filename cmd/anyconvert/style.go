package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// styler colors output only when it goes to a terminal.
type styler struct {
	enabled bool
}

func newStyler(w io.Writer) styler {
	f, ok := w.(*os.File)
	return styler{enabled: ok && term.IsTerminal(int(f.Fd()))}
}

func (s styler) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

func (s styler) heading(text string) string { return s.render(headingStyle, text) }
func (s styler) id(text string) string      { return s.render(idStyle, text) }
func (s styler) dim(text string) string     { return s.render(dimStyle, text) }
func (s styler) err(text string) string     { return s.render(errorStyle, text) }
