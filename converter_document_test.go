package anyconvert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/nicholasgasior/anyconvert/internal/ooxml"
)

// zipBytes builds an archive whose members appear in the given order.
func zipBytes(t *testing.T, members ...[2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range members {
		w, err := zw.Create(m[0])
		require.NoError(t, err)
		_, err = w.Write([]byte(m[1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type fakePDF struct {
	pages []string
	err   error
}

func (p fakePDF) PageCount(context.Context, []byte) (int, error) {
	return len(p.pages), p.err
}

func (p fakePDF) PageTexts(context.Context, []byte) ([]string, error) {
	return p.pages, p.err
}

var pdfFile = File{Name: "report.pdf", Data: []byte("%PDF-1.7\n% fake body\n%%EOF")}

func TestPDFUnits(t *testing.T) {
	engine := fakePDF{pages: []string{"Hello world", "Second page\r\nhere  "}}
	tk, _ := newTestToolkit(t, WithCodecs(stubCodecs{pdf: engine}))

	assert.Equal(t, fmt.Sprintf("Pages: 2\nWords: 5\nFile size: %d B", len(pdfFile.Data)),
		fileText(t, convertFile(t, tk, "pdf-info", pdfFile, "")))
	assert.Equal(t, "Hello world\n\nSecond page\nhere", fileText(t, convertFile(t, tk, "pdf-to-text", pdfFile, "")))

	notPDF := File{Name: "x.pdf", Data: []byte("<html>")}
	assert.Equal(t, "(not a PDF file)", diagnostic(t, convertFile(t, tk, "pdf-info", notPDF, "")))

	t.Run("scanned", func(t *testing.T) {
		tk, _ := newTestToolkit(t, WithCodecs(stubCodecs{pdf: fakePDF{pages: []string{" ", ""}}}))
		assert.Equal(t, "(no extractable text; the PDF may contain only scanned images)",
			diagnostic(t, convertFile(t, tk, "pdf-to-text", pdfFile, "")))
	})

	t.Run("engine error", func(t *testing.T) {
		tk, _ := newTestToolkit(t, WithCodecs(stubCodecs{pdf: fakePDF{err: errors.New("xref broken at /tmp/x.pdf")}}))
		assert.Equal(t, "(unreadable PDF (damaged or encrypted))",
			diagnostic(t, convertFile(t, tk, "pdf-to-text", pdfFile, "")))
	})

	t.Run("no engine", func(t *testing.T) {
		tk, _ := newTestToolkit(t)
		assert.Equal(t, "(PDF engine unavailable)", diagnostic(t, convertFile(t, tk, "pdf-info", pdfFile, "")))
	})
}

func TestTextToPDF(t *testing.T) {
	tk, _ := newTestToolkit(t)

	a := artifact(t, run(t, tk, "text-to-pdf", Input{Text: "Dear reader,\n\n\tCafé au lait.\n"}))
	assert.Equal(t, "document.pdf", a.Filename)
	assert.Equal(t, "application/pdf", a.MIMEType)
	assert.True(t, bytes.HasPrefix(a.Data, []byte("%PDF-")))
	assert.True(t, strings.HasPrefix(a.Info, "1 page, "), a.Info)

	long := strings.Repeat("line\n", 200)
	a = artifact(t, run(t, tk, "text-to-pdf", Input{Text: long}))
	assert.NotContains(t, a.Info, "1 page,")
	assert.Contains(t, a.Info, " pages, ")

	assert.Equal(t, "(nothing to typeset)", diagnostic(t, run(t, tk, "text-to-pdf", Input{Text: " \n "})))
}

func TestImagesToPDF(t *testing.T) {
	tk, _ := newTestToolkit(t)

	var bmpBuf bytes.Buffer
	src := testPNG(t, "a.png", 3, 3)
	img, _, err := decodeImage(src)
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(&bmpBuf, img))

	files := []File{src, {Name: "b.bmp", Data: bmpBuf.Bytes()}}
	a := artifact(t, run(t, tk, "images-to-pdf", Input{Files: files}))
	assert.Equal(t, "images.pdf", a.Filename)
	assert.True(t, bytes.HasPrefix(a.Data, []byte("%PDF-")))
	assert.True(t, strings.HasPrefix(a.Info, "2 pages, "), a.Info)

	bad := []File{src, {Name: "notes.txt", Data: []byte("hello")}}
	assert.Equal(t, "(notes.txt: not a supported image)", diagnostic(t, run(t, tk, "images-to-pdf", Input{Files: bad})))
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func TestDocxToText(t *testing.T) {
	tk, _ := newTestToolkit(t)

	doc := `<w:document ` + wordNS + `><w:body>` +
		`<w:p><w:r><w:t>Quarterly report</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t xml:space="preserve">Revenue: </w:t></w:r><w:r><w:tab/><w:t>up</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Q1</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>10</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
		`</w:body></w:document>`
	f := File{Name: "r.docx", Data: zipBytes(t, [2]string{"word/document.xml", doc})}
	assert.Equal(t, "Quarterly report\nRevenue: \tup\nQ1\t10", fileText(t, convertFile(t, tk, "docx-to-text", f, "")))

	empty := File{Name: "e.docx", Data: zipBytes(t, [2]string{"word/document.xml", `<w:document ` + wordNS + `><w:body><w:p/></w:body></w:document>`})}
	assert.Equal(t, "(document has no text)", diagnostic(t, convertFile(t, tk, "docx-to-text", empty, "")))

	assert.Equal(t, "(not a DOCX file)", diagnostic(t, convertFile(t, tk, "docx-to-text", File{Name: "x.docx", Data: []byte("nope")}, "")))

	noBody := File{Name: "x.docx", Data: zipBytes(t, [2]string{"other.xml", "<x/>"})}
	assert.Equal(t, "(malformed DOCX file)", diagnostic(t, convertFile(t, tk, "docx-to-text", noBody, "")))
}

func TestPptxToText(t *testing.T) {
	tk, _ := newTestToolkit(t)

	slide := func(paras ...string) string {
		var b strings.Builder
		b.WriteString(`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:sp><p:txBody>`)
		for _, p := range paras {
			b.WriteString(`<a:p><a:r><a:t>` + p + `</a:t></a:r></a:p>`)
		}
		b.WriteString(`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`)
		return b.String()
	}
	deck := zipBytes(t,
		[2]string{"ppt/presentation.xml", `<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"/>`},
		[2]string{"ppt/slides/slide2.xml", slide("Results")},
		[2]string{"ppt/slides/slide1.xml", slide("Welcome", "Agenda")},
		[2]string{"ppt/slides/_rels/slide2.xml.rels", `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide" Target="../notesSlides/notesSlide1.xml"/></Relationships>`},
		[2]string{"ppt/notesSlides/notesSlide1.xml", slide("Mention the churn")},
	)
	out := fileText(t, convertFile(t, tk, "pptx-to-text", File{Name: "d.pptx", Data: deck}, ""))
	assert.Equal(t, "## Slide 1\n\nWelcome\nAgenda\n\n## Slide 2\n\nResults\n\nNotes: Mention the churn", out)

	empty := zipBytes(t, [2]string{"ppt/presentation.xml", `<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"/>`})
	assert.Equal(t, "(presentation has no slides)", diagnostic(t, convertFile(t, tk, "pptx-to-text", File{Name: "e.pptx", Data: empty}, "")))
}

func TestEpubToText(t *testing.T) {
	tk, _ := newTestToolkit(t)

	container := `<?xml version="1.0"?><container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">` +
		`<rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles></container>`
	opf := `<?xml version="1.0"?><package xmlns="http://www.idpf.org/2007/opf" version="3.0">` +
		`<metadata xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title> The Book </dc:title>` +
		`<dc:creator>Ann Author</dc:creator><dc:creator>Bo Writer</dc:creator><dc:language>en</dc:language></metadata>` +
		`<manifest>` +
		`<item id="c1" href="text/chapter%20one.xhtml" media-type="application/xhtml+xml"/>` +
		`<item id="c2" href="text/two.xhtml#start" media-type="application/xhtml+xml"/>` +
		`<item id="note" href="text/note.xhtml" media-type="application/xhtml+xml"/>` +
		`<item id="css" href="style.css" media-type="text/css"/>` +
		`</manifest>` +
		`<spine><itemref idref="c1"/><itemref idref="note" linear="no"/><itemref idref="css"/><itemref idref="c2"/><itemref idref="missing"/></spine>` +
		`</package>`
	book := zipBytes(t,
		[2]string{"mimetype", "application/epub+zip"},
		[2]string{"META-INF/container.xml", container},
		[2]string{"OEBPS/content.opf", opf},
		[2]string{"OEBPS/text/chapter one.xhtml", `<html><body><p>It began at dawn.</p></body></html>`},
		[2]string{"OEBPS/text/two.xhtml", `<html><body><p>It ended at dusk.</p></body></html>`},
		[2]string{"OEBPS/text/note.xhtml", `<html><body><p>Footnote only.</p></body></html>`},
		[2]string{"OEBPS/style.css", `p { color: red }`},
	)

	out := fileText(t, convertFile(t, tk, "epub-to-text", File{Name: "b.epub", Data: book}, ""))
	assert.True(t, strings.HasPrefix(out, "Title: The Book\nAuthors: Ann Author, Bo Writer\nLanguage: en\n"), out)
	dawn, dusk := strings.Index(out, "It began at dawn."), strings.Index(out, "It ended at dusk.")
	require.True(t, dawn > 0 && dusk > 0, out)
	assert.Less(t, dawn, dusk)
	assert.NotContains(t, out, "Footnote")
	assert.NotContains(t, out, "color")

	noContainer := zipBytes(t, [2]string{"mimetype", "application/epub+zip"})
	assert.Equal(t, "(not an EPUB file (no META-INF/container.xml))",
		diagnostic(t, convertFile(t, tk, "epub-to-text", File{Name: "b.epub", Data: noContainer}, "")))

	noRoot := zipBytes(t, [2]string{"META-INF/container.xml", `<container><rootfiles/></container>`})
	assert.Equal(t, "(EPUB container lists no package document)",
		diagnostic(t, convertFile(t, tk, "epub-to-text", File{Name: "b.epub", Data: noRoot}, "")))
}

func TestEpubToText_RepeatedSpine(t *testing.T) {
	container := `<container xmlns="urn:oasis:names:tc:opendocument:xmlns:container">` +
		`<rootfiles><rootfile full-path="content.opf"/></rootfiles></container>`
	opf := `<package xmlns="http://www.idpf.org/2007/opf"><manifest>` +
		`<item id="c1" href="ch.xhtml" media-type="application/xhtml+xml"/>` +
		`<item id="c1-again" href="./ch.xhtml" media-type="application/xhtml+xml"/>` +
		`<item id="c2" href="two.xhtml" media-type="application/xhtml+xml"/>` +
		`</manifest><spine>` +
		strings.Repeat(`<itemref idref="c1"/><itemref idref="c1-again"/>`, 500) +
		`<itemref idref="c2"/></spine></package>`
	chapter := `<html><body><p>` + strings.Repeat("word ", 200) + `</p></body></html>`
	book := zipBytes(t,
		[2]string{"META-INF/container.xml", container},
		[2]string{"content.opf", opf},
		[2]string{"ch.xhtml", chapter},
		[2]string{"two.xhtml", chapter},
	)
	zr, err := ooxml.Open(book)
	require.NoError(t, err)

	res, err := epubToText(zr, maxEPUBContent)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(String(res)), 400, "each chapter is read once")

	_, err = epubToText(zr, len(chapter)+10)
	var inErr *InputError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, fmt.Sprintf("e-book text exceeds %s", humanBytes(int64(len(chapter)+10))), inErr.Msg)
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 page", pluralize(1, "page"))
	assert.Equal(t, "0 pages", pluralize(0, "page"))
	assert.Equal(t, "3 files", pluralize(3, "file"))
}
