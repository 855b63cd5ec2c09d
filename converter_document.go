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
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/url"
	"path"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/nicholasgasior/anyconvert/internal/ooxml"
)

const (
	mimePDF       = "application/pdf"
	pdfMargin     = 15.0
	pdfFontSize   = 11.0
	pdfLineHeight = 5.5

	// maxEPUBContent bounds the chapter bytes read from one e-book.
	maxEPUBContent = 64 << 20
)

func documentUnits(env Env) []Unit {
	return []Unit{
		NewFileUnit(Meta{
			ID:          "pdf-info",
			Name:        "PDF Info",
			Category:    CategoryDocument,
			Description: "Count the pages and words of a PDF document.",
			AcceptTypes: ".pdf," + mimePDF,
		}, func(ctx context.Context, f File, _ string) (Result, error) {
			pages, err := pdfPages(ctx, env, f)
			if err != nil {
				return nil, err
			}
			words := 0
			for _, p := range pages {
				words += len(strings.Fields(p))
			}
			return Text(fmt.Sprintf("Pages: %d\nWords: %d\nFile size: %s", len(pages), words, humanBytes(f.Size()))), nil
		}),
		NewFileUnit(Meta{
			ID:          "pdf-to-text",
			Name:        "PDF to Text",
			Category:    CategoryDocument,
			Description: "Extract the text of every page of a PDF document.",
			AcceptTypes: ".pdf," + mimePDF,
		}, func(ctx context.Context, f File, _ string) (Result, error) {
			pages, err := pdfPages(ctx, env, f)
			if err != nil {
				return nil, err
			}
			text := normalizeOutput(strings.Join(pages, "\n\n"))
			if text == "" {
				return Diagnosticf("no extractable text; the PDF may contain only scanned images"), nil
			}
			return Text(text), nil
		}),
		NewTextUnit(Meta{
			ID:               "text-to-pdf",
			Name:             "Text to PDF",
			Category:         CategoryDocument,
			Description:      "Typeset plain text onto A4 pages as a PDF document.",
			Placeholder:      "Dear reader,\n\nThis paragraph becomes a PDF.",
			IsMediaConverter: true,
		}, func(_ context.Context, s string) (Result, error) {
			if strings.TrimSpace(s) == "" {
				return nil, Invalidf("nothing to typeset")
			}
			return textToPDF(env, s)
		}),
		NewMultiFileUnit(Meta{
			ID:               "images-to-pdf",
			Name:             "Images to PDF",
			Category:         CategoryDocument,
			Description:      "Place each image on its own A4 page, in upload order.",
			AcceptTypes:      imageAcceptTypes,
			IsMediaConverter: true,
		}, func(_ context.Context, files []File, _ string) (Result, error) {
			return imagesToPDF(env, files)
		}),
		NewFileUnit(Meta{
			ID:          "docx-to-text",
			Name:        "DOCX to Text",
			Category:    CategoryDocument,
			Description: "Extract the text of a Word document, one paragraph per line. Table cells are separated by tabs.",
			AcceptTypes: ".docx,application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		}, func(_ context.Context, f File, _ string) (Result, error) {
			zr, err := openPackage(f, "DOCX")
			if err != nil {
				return nil, err
			}
			text, err := ooxml.DocumentText(zr)
			if err != nil {
				return nil, packageError("DOCX", err)
			}
			if text = normalizeOutput(text); text == "" {
				return Diagnosticf("document has no text"), nil
			}
			return Text(text), nil
		}),
		NewFileUnit(Meta{
			ID:          "pptx-to-text",
			Name:        "PPTX to Text",
			Category:    CategoryDocument,
			Description: "Extract the text and speaker notes of every slide of a PowerPoint deck.",
			AcceptTypes: ".pptx,application/vnd.openxmlformats-officedocument.presentationml.presentation",
		}, func(_ context.Context, f File, _ string) (Result, error) {
			zr, err := openPackage(f, "PPTX")
			if err != nil {
				return nil, err
			}
			slides, err := ooxml.Slides(zr)
			if err != nil {
				return nil, packageError("PPTX", err)
			}
			if len(slides) == 0 {
				return Diagnosticf("presentation has no slides"), nil
			}
			return Text(slidesText(slides)), nil
		}),
		NewFileUnit(Meta{
			ID:          "epub-to-text",
			Name:        "EPUB to Text",
			Category:    CategoryDocument,
			Description: "Extract the metadata and chapter text of an EPUB e-book in reading order.",
			AcceptTypes: ".epub,application/epub+zip",
		}, func(_ context.Context, f File, _ string) (Result, error) {
			zr, err := openPackage(f, "EPUB")
			if err != nil {
				return nil, err
			}
			return epubToText(zr, maxEPUBContent)
		}),
	}
}

func pdfPages(ctx context.Context, env Env, f File) ([]string, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(f.Data, "\x00\t\r\n "), []byte("%PDF-")) {
		return nil, Invalidf("not a PDF file")
	}
	engine, err := env.Codecs.PDFEngine()
	if err != nil {
		return nil, err
	}
	pages, err := engine.PageTexts(ctx, f.Data)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, invalidWrap("unreadable PDF (damaged or encrypted)", err)
	}
	return pages, nil
}

func newPDF(env Env) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetCreator("anyconvert", true)
	pdf.SetCreationDate(env.Clock.Now())
	return pdf
}

func outputPDF(pdf *fpdf.Fpdf, name, info string) (Result, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write PDF: %w", err)
	}
	return Artifact(name, mimePDF, buf.Bytes(), fmt.Sprintf("%s, %s", info, humanBytes(int64(buf.Len())))), nil
}

// textToPDF uses the core Helvetica font, so text is mapped to cp1252. Runes outside it are dropped.
func textToPDF(env Env, s string) (Result, error) {
	pdf := newPDF(env)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", pdfFontSize)
	pdf.AddPage()
	for _, line := range splitLines(strings.ReplaceAll(s, "\r\n", "\n")) {
		pdf.MultiCell(0, pdfLineHeight, tr(strings.ReplaceAll(line, "\t", "    ")), "", "L", false)
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("typeset PDF: %w", err)
	}
	return outputPDF(pdf, "document.pdf", pluralize(pdf.PageCount(), "page"))
}

func imagesToPDF(env Env, files []File) (Result, error) {
	if len(files) == 0 {
		return nil, Invalidf("no images")
	}
	pdf := newPDF(env)
	pageW, pageH := pdf.GetPageSize()
	boxW, boxH := pageW-2*pdfMargin, pageH-2*pdfMargin

	for i, f := range files {
		imgType, data, err := pdfImage(f)
		if err != nil {
			return nil, Invalidf("%s: %s", orDefault(f.Name, fmt.Sprintf("file %d", i+1)), errorMessage(err))
		}
		name := fmt.Sprintf("img%d", i)
		opts := fpdf.ImageOptions{ImageType: imgType}
		info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		if pdf.Err() {
			return nil, invalidWrap(fmt.Sprintf("%s: unsupported image", orDefault(f.Name, name)), pdf.Error())
		}
		w, h := info.Width(), info.Height()
		if w <= 0 || h <= 0 {
			return nil, Invalidf("%s: image has no pixels", orDefault(f.Name, name))
		}
		scale := min(boxW/w, boxH/h, 1)
		w, h = w*scale, h*scale
		pdf.AddPage()
		pdf.ImageOptions(name, (pageW-w)/2, (pageH-h)/2, w, h, false, opts, 0, "")
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("build PDF: %w", err)
	}
	return outputPDF(pdf, "images.pdf", pluralize(len(files), "page"))
}

// pdfImage passes PNG, JPEG and GIF through and re-encodes anything else decodable as PNG.
func pdfImage(f File) (string, []byte, error) {
	cfg, format, err := image.DecodeConfig(f.Reader())
	if err != nil {
		return "", nil, Invalidf("not a supported image")
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return "", nil, Invalidf("image too large (%d×%d)", cfg.Width, cfg.Height)
	}
	switch format {
	case "png", "gif":
		return strings.ToUpper(format), f.Data, nil
	case "jpeg":
		return "JPG", f.Data, nil
	}
	img, _, err := image.Decode(f.Reader())
	if err != nil {
		return "", nil, Invalidf("corrupt %s image", format)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", nil, fmt.Errorf("encode PNG: %w", err)
	}
	return "PNG", buf.Bytes(), nil
}

func errorMessage(err error) string {
	var inErr *InputError
	if errors.As(err, &inErr) {
		return inErr.Msg
	}
	return err.Error()
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func openPackage(f File, kind string) (*zip.Reader, error) {
	zr, err := ooxml.Open(f.Data)
	if err != nil {
		return nil, Invalidf("not a %s file", kind)
	}
	return zr, nil
}

func packageError(kind string, err error) error {
	if errors.Is(err, ooxml.ErrEntryTooLarge) {
		return Invalidf("%s part too large", kind)
	}
	return invalidWrap(fmt.Sprintf("malformed %s file", kind), err)
}

func slidesText(slides []ooxml.Slide) string {
	var b strings.Builder
	for i, s := range slides {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## Slide %d\n", s.Number)
		for _, p := range s.Paragraphs {
			b.WriteString("\n" + p)
		}
		if s.Notes != "" {
			b.WriteString("\n\nNotes: " + s.Notes)
		}
	}
	return normalizeOutput(b.String())
}

type epubContainer struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubPackage struct {
	Metadata struct {
		Titles      []string `xml:"title"`
		Creators    []string `xml:"creator"`
		Language    string   `xml:"language"`
		Publisher   string   `xml:"publisher"`
		Date        string   `xml:"date"`
		Description string   `xml:"description"`
	} `xml:"metadata"`
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef  string `xml:"idref,attr"`
		Linear string `xml:"linear,attr"`
	} `xml:"spine>itemref"`
}

// findOPFPath reads the package document location from META-INF/container.xml.
func findOPFPath(zr *zip.Reader) (string, error) {
	data, err := ooxml.ReadFile(zr, "META-INF/container.xml")
	if err != nil {
		return "", Invalidf("not an EPUB file (no META-INF/container.xml)")
	}
	var c epubContainer
	if err := xml.Unmarshal(data, &c); err != nil {
		return "", invalidWrap("malformed EPUB container.xml", err)
	}
	for _, rf := range c.Rootfiles {
		if rf.FullPath != "" && (rf.MediaType == "" || rf.MediaType == "application/oebps-package+xml") {
			return rf.FullPath, nil
		}
	}
	return "", Invalidf("EPUB container lists no package document")
}

// epubToText reads each spine chapter once, stopping with an error after limit bytes.
func epubToText(zr *zip.Reader, limit int) (Result, error) {
	opfPath, err := findOPFPath(zr)
	if err != nil {
		return nil, err
	}
	data, err := ooxml.ReadFile(zr, opfPath)
	if err != nil {
		return nil, packageError("EPUB", err)
	}
	var pkg epubPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, invalidWrap("malformed EPUB package document", err)
	}

	var b strings.Builder
	m := pkg.Metadata
	if len(m.Titles) > 0 {
		fmt.Fprintf(&b, "Title: %s\n", strings.TrimSpace(m.Titles[0]))
	}
	if len(m.Creators) > 0 {
		authors := make([]string, 0, len(m.Creators))
		for _, c := range m.Creators {
			if c = strings.TrimSpace(c); c != "" {
				authors = append(authors, c)
			}
		}
		fmt.Fprintf(&b, "Authors: %s\n", strings.Join(authors, ", "))
	}
	for _, field := range []struct{ label, value string }{
		{"Language", m.Language},
		{"Publisher", m.Publisher},
		{"Date", m.Date},
		{"Description", m.Description},
	} {
		if v := strings.TrimSpace(field.value); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", field.label, v)
		}
	}

	hrefs := make(map[string]string, len(pkg.Manifest))
	types := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		hrefs[item.ID] = item.Href
		types[item.ID] = item.MediaType
	}
	opfDir := path.Dir(opfPath)
	seen := make(map[string]bool, len(pkg.Spine))
	read := 0
	for _, ref := range pkg.Spine {
		href, ok := hrefs[ref.IDRef]
		if !ok || ref.Linear == "no" {
			continue
		}
		if !strings.Contains(types[ref.IDRef], "html") {
			continue
		}
		href, _, _ = strings.Cut(href, "#")
		if unescaped, err := url.PathUnescape(href); err == nil {
			href = unescaped
		}
		member := path.Clean(path.Join(opfDir, href))
		if seen[member] {
			continue
		}
		seen[member] = true
		content, err := ooxml.ReadFile(zr, member)
		if err != nil {
			continue
		}
		if read += len(content); read > limit {
			return nil, Invalidf("e-book text exceeds %s", humanBytes(int64(limit)))
		}
		text, err := htmlToText(string(content))
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		b.WriteString("\n" + text + "\n")
	}

	out := normalizeOutput(b.String())
	if out == "" {
		return Diagnosticf("e-book has no text"), nil
	}
	return Text(out), nil
}
