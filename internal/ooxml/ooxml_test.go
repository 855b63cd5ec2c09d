package ooxml

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type member struct {
	name, body string
}

func openZip(t *testing.T, members ...member) *zip.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range members {
		w, err := zw.Create(m.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(m.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	zr, err := Open(buf.Bytes())
	require.NoError(t, err)
	return zr
}

const (
	nsW = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`
	nsP = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
)

func slideXML(paras string) string {
	return `<p:sld ` + nsP + `><p:cSld><p:spTree><p:sp><p:txBody>` + paras + `</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
}

func TestDocumentText(t *testing.T) {
	doc := `<w:document ` + nsW + `><w:body>` +
		`<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:tab/><w:t>world</w:t></w:r></w:p>` +
		`<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>` +
		`<w:r><w:t xml:space="preserve">Line one</w:t><w:br/><w:t>two  </w:t></w:r></w:p>` +
		`<w:tbl><w:tr>` +
		`<w:tc><w:p><w:r><w:t>A1</w:t></w:r></w:p></w:tc>` +
		`<w:tc><w:p><w:r><w:t>B1</w:t></w:r></w:p><w:p><w:r><w:t>more</w:t></w:r></w:p></w:tc>` +
		`</w:tr><w:tr>` +
		`<w:tc><w:p><w:r><w:t>A2</w:t></w:r></w:p></w:tc><w:tc><w:p/></w:tc>` +
		`</w:tr></w:tbl>` +
		`<w:p><w:r><w:t>After</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	zr := openZip(t, member{"word/document.xml", doc})

	text, err := DocumentText(zr)
	require.NoError(t, err)
	assert.Equal(t, "Hello\tworld\nLine one\ntwo\nA1\tB1 more\nA2\t\nAfter", text)
}

func TestDocumentText_Errors(t *testing.T) {
	_, err := DocumentText(openZip(t, member{"other.xml", "<x/>"}))
	assert.ErrorContains(t, err, `file "word/document.xml" not found in ZIP`)

	_, err = DocumentText(openZip(t, member{"word/document.xml", "<w:document><w:body>"}))
	assert.ErrorContains(t, err, "parse document.xml")
}

func TestSlides_PresentationOrder(t *testing.T) {
	pres := `<p:presentation ` + nsP + `><p:sldIdLst>` +
		`<p:sldId id="256" r:id="rId3"/><p:sldId id="257" r:id="rId2"/>` +
		`</p:sldIdLst></p:presentation>`
	rels := `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide1.xml"/>` +
		`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide2.xml"/>` +
		`</Relationships>`
	slideRels := `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide" Target="../notesSlides/notesSlide7.xml"/>` +
		`</Relationships>`

	zr := openZip(t,
		member{"ppt/presentation.xml", pres},
		member{"ppt/_rels/presentation.xml.rels", rels},
		member{"ppt/slides/slide1.xml", slideXML(`<a:p><a:r><a:t>Closing</a:t></a:r></a:p>`)},
		member{"ppt/slides/slide2.xml", slideXML(`<a:p><a:r><a:t>Opening</a:t></a:r></a:p>` +
			`<a:p><a:r><a:t>Line</a:t></a:r><a:br/><a:r><a:t>break</a:t></a:r></a:p><a:p/>`)},
		member{"ppt/slides/_rels/slide1.xml.rels", slideRels},
		member{"ppt/notesSlides/notesSlide7.xml", slideXML(`<a:p><a:r><a:t>Thank everyone</a:t></a:r></a:p>`)},
	)

	slides, err := Slides(zr)
	require.NoError(t, err)
	assert.Equal(t, []Slide{
		{Number: 1, Paragraphs: []string{"Opening", "Line\nbreak"}},
		{Number: 2, Paragraphs: []string{"Closing"}, Notes: "Thank everyone"},
	}, slides)
}

func TestSlides_FileNameFallback(t *testing.T) {
	one := func(s string) string { return slideXML(`<a:p><a:r><a:t>` + s + `</a:t></a:r></a:p>`) }
	zr := openZip(t,
		member{"ppt/presentation.xml", `<p:presentation ` + nsP + `/>`},
		member{"ppt/slides/slide10.xml", one("ten")},
		member{"ppt/slides/slide2.xml", one("two")},
		member{"ppt/slides/slide1.xml", one("one")},
	)

	slides, err := Slides(zr)
	require.NoError(t, err)
	var got []string
	for _, s := range slides {
		got = append(got, s.Paragraphs...)
	}
	assert.Equal(t, []string{"one", "two", "ten"}, got)
	assert.Equal(t, 3, slides[2].Number)
}

func TestSlides_MissingPresentation(t *testing.T) {
	_, err := Slides(openZip(t, member{"ppt/slides/slide1.xml", slideXML("")}))
	assert.Error(t, err)
}

func TestRelsPathFor(t *testing.T) {
	assert.Equal(t, "word/_rels/document.xml.rels", RelsPathFor("word/document.xml"))
	assert.Equal(t, "ppt/slides/_rels/slide3.xml.rels", RelsPathFor("ppt/slides/slide3.xml"))
	assert.Equal(t, "_rels/root.xml.rels", RelsPathFor("root.xml"))
}

func TestResolveTarget(t *testing.T) {
	assert.Equal(t, "ppt/slides/slide1.xml", ResolveTarget("ppt/presentation.xml", "slides/slide1.xml"))
	assert.Equal(t, "ppt/notesSlides/n.xml", ResolveTarget("ppt/slides/slide1.xml", "../notesSlides/n.xml"))
	assert.Equal(t, "word/media/a.png", ResolveTarget("ppt/slides/slide1.xml", "/word/media/a.png"))
}

func TestParseRelationships(t *testing.T) {
	zr := openZip(t,
		member{"_rels/.rels", `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="t/officeDocument" Target="word/document.xml"/>` +
			`<Relationship Id="rId2" Type="t/hyperlink" Target="https://example.com" TargetMode="External"/>` +
			`</Relationships>`},
		member{"bad.rels", `<Relationships><Relationship`},
	)

	rels, err := ParseRelationships(zr, "_rels/.rels")
	require.NoError(t, err)
	require.Len(t, rels, 2)
	assert.Equal(t, "word/document.xml", rels["rId1"].Target)
	assert.Equal(t, "External", rels["rId2"].TargetMode)

	missing, err := ParseRelationships(zr, "nope.rels")
	require.NoError(t, err)
	assert.Empty(t, missing)

	_, err = ParseRelationships(zr, "bad.rels")
	assert.ErrorContains(t, err, "decode relationships")
}

func TestReadFile_TooLarge(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("big.xml")
	require.NoError(t, err)
	chunk := make([]byte, 1<<20)
	for written := 0; written <= MaxEntrySize; written += len(chunk) {
		_, err = w.Write(chunk)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	zr, err := Open(buf.Bytes())
	require.NoError(t, err)
	_, err = ReadFile(zr, "big.xml")
	assert.True(t, errors.Is(err, ErrEntryTooLarge), err)
}

func TestOpen_NotZip(t *testing.T) {
	_, err := Open([]byte("plain text"))
	assert.Error(t, err)
}
