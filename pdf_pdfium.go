//go:build !nopdfium

package anyconvert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/responses"
	"github.com/klippa-app/go-pdfium/webassembly"
)

const pdfiumInstanceTimeout = 30 * time.Second

// pdfiumEngine reads PDFs with PDFium compiled to WebAssembly.
type pdfiumEngine struct {
	pool pdfium.Pool
}

func loadPDFEngine() (PDFEngine, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("init pdfium: %w", err)
	}
	return &pdfiumEngine{pool: pool}, nil
}

// withDocument opens data and runs fn with the open document.
func (e *pdfiumEngine) withDocument(ctx context.Context, data []byte, fn func(pdfium.Pdfium, *responses.OpenDocument) error) error {
	timeout := pdfiumInstanceTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	instance, err := e.pool.GetInstance(timeout)
	if err != nil {
		return fmt.Errorf("get pdfium instance: %w", err)
	}
	defer instance.Close()

	doc, err := instance.OpenDocument(&requests.OpenDocument{
		File: &data,
	})
	if err != nil {
		return fmt.Errorf("open PDF: %w", err)
	}
	defer instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: doc.Document,
	})

	return fn(instance, doc)
}

func (e *pdfiumEngine) PageCount(ctx context.Context, data []byte) (int, error) {
	var count int
	err := e.withDocument(ctx, data, func(instance pdfium.Pdfium, doc *responses.OpenDocument) error {
		resp, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
			Document: doc.Document,
		})
		if err != nil {
			return fmt.Errorf("get page count: %w", err)
		}
		count = resp.PageCount
		return nil
	})
	return count, err
}

func (e *pdfiumEngine) PageTexts(ctx context.Context, data []byte) ([]string, error) {
	var pages []string
	err := e.withDocument(ctx, data, func(instance pdfium.Pdfium, doc *responses.OpenDocument) error {
		resp, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
			Document: doc.Document,
		})
		if err != nil {
			return fmt.Errorf("get page count: %w", err)
		}

		pages = make([]string, 0, resp.PageCount)
		for i := 0; i < resp.PageCount; i++ {
			textResp, err := instance.GetPageText(&requests.GetPageText{
				Page: requests.Page{
					ByIndex: &requests.PageByIndex{
						Document: doc.Document,
						Index:    i,
					},
				},
			})
			if err != nil {
				pages = append(pages, "")
				continue
			}
			pages = append(pages, strings.TrimSpace(textResp.Text))
		}
		return nil
	})
	return pages, err
}
