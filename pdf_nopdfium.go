//go:build nopdfium

package anyconvert

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// rowEngine extracts PDF text with the pure-Go ledongthuc/pdf reader.
type rowEngine struct{}

func loadPDFEngine() (PDFEngine, error) {
	return rowEngine{}, nil
}

func (rowEngine) open(data []byte) (*pdf.Reader, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	return r, nil
}

func (e rowEngine) PageCount(_ context.Context, data []byte) (int, error) {
	r, err := e.open(data)
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}

func (e rowEngine) PageTexts(_ context.Context, data []byte) ([]string, error) {
	r, err := e.open(data)
	if err != nil {
		return nil, err
	}

	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(pageRowsText(page)))
	}
	return pages, nil
}

// pageRowsText joins the words of each row. An empty string between two words in a row
// marks a word boundary.
func pageRowsText(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err != nil || len(rows) == 0 {
		text, err := page.GetPlainText(nil)
		if err != nil {
			return ""
		}
		return text
	}

	var out strings.Builder
	for _, row := range rows {
		var line strings.Builder
		gap := false
		for _, word := range row.Content {
			if word.S == "" {
				gap = true
				continue
			}
			if line.Len() > 0 && gap && !strings.HasSuffix(line.String(), " ") {
				line.WriteString(" ")
			}
			line.WriteString(word.S)
			gap = false
		}
		if text := strings.TrimSpace(line.String()); text != "" {
			out.WriteString(text)
			out.WriteString("\n")
		}
	}
	return out.String()
}
