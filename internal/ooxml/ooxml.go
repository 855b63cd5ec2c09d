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

// Package ooxml reads text out of zip-packaged office documents (DOCX and PPTX).
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

// MaxEntrySize caps how much of a single archive member is decompressed.
const MaxEntrySize = 64 << 20

// ErrEntryTooLarge is returned when a member inflates beyond MaxEntrySize.
var ErrEntryTooLarge = errors.New("archive entry too large")

// Relationship represents an OOXML relationship.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

type relationships struct {
	XMLName       xml.Name       `xml:"Relationships"`
	Relationships []Relationship `xml:"Relationship"`
}

// Open reads data as a zip archive.
func Open(data []byte) (*zip.Reader, error) {
	return zip.NewReader(bytes.NewReader(data), int64(len(data)))
}

// ReadFile reads one member of the archive.
func ReadFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		data, err := io.ReadAll(io.LimitReader(rc, MaxEntrySize+1))
		if err != nil {
			return nil, err
		}
		if len(data) > MaxEntrySize {
			return nil, fmt.Errorf("%s: %w", name, ErrEntryTooLarge)
		}
		return data, nil
	}
	return nil, fmt.Errorf("file %q not found in ZIP", name)
}

// ParseRelationships parses a .rels member. A missing member yields an empty map.
func ParseRelationships(zr *zip.Reader, relsPath string) (map[string]Relationship, error) {
	data, err := ReadFile(zr, relsPath)
	if err != nil {
		return make(map[string]Relationship), nil
	}
	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("decode relationships: %w", err)
	}
	result := make(map[string]Relationship, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		result[rel.ID] = rel
	}
	return result, nil
}

// RelsPathFor returns the .rels path for a given file in the ZIP.
func RelsPathFor(filePath string) string {
	dir := path.Dir(filePath)
	base := path.Base(filePath)
	if dir == "." {
		return "_rels/" + base + ".rels"
	}
	return dir + "/_rels/" + base + ".rels"
}

// ResolveTarget resolves a relative target path against a base path.
func ResolveTarget(basePath, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(basePath), target)
}

// DocumentText returns the body text of a DOCX archive, one paragraph per line. Table
// rows become tab-separated lines; equations contribute their linear text.
func DocumentText(zr *zip.Reader) (string, error) {
	data, err := ReadFile(zr, "word/document.xml")
	if err != nil {
		return "", err
	}

	var (
		out       []string
		para      strings.Builder
		cells     []string
		cell      []string
		tableDeep int
		inText    bool
		inTabs    bool
	)
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDeep++
			case "t":
				inText = true
			case "tabs":
				inTabs = true
			case "tab":
				if !inTabs {
					para.WriteString("\t")
				}
			case "br", "cr":
				para.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "tabs":
				inTabs = false
			case "p":
				text := strings.TrimRight(para.String(), " \t")
				para.Reset()
				if tableDeep > 0 {
					cell = append(cell, text)
				} else {
					out = append(out, text)
				}
			case "tc":
				cells = append(cells, strings.Join(cell, " "))
				cell = nil
			case "tr":
				if tableDeep == 1 {
					out = append(out, strings.Join(cells, "\t"))
				}
				cells = nil
			case "tbl":
				tableDeep--
			}
		}
	}
	return strings.Join(out, "\n"), nil
}

// Slide is the text of one presentation slide.
type Slide struct {
	Number     int
	Paragraphs []string
	Notes      string
}

// Slides returns the text of every slide of a PPTX archive in presentation order.
func Slides(zr *zip.Reader) ([]Slide, error) {
	order, err := slideOrder(zr)
	if err != nil {
		return nil, err
	}
	slides := make([]Slide, 0, len(order))
	for i, slidePath := range order {
		data, err := ReadFile(zr, slidePath)
		if err != nil {
			continue
		}
		paras, err := paragraphs(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", slidePath, err)
		}
		s := Slide{Number: i + 1, Paragraphs: paras}
		if notesPath := notesPathFor(zr, slidePath); notesPath != "" {
			if notesData, err := ReadFile(zr, notesPath); err == nil {
				notes, _ := paragraphs(notesData)
				s.Notes = strings.Join(notes, "\n")
			}
		}
		slides = append(slides, s)
	}
	return slides, nil
}

// slideOrder returns slide file paths in presentation order, falling back to file-name
// order when presentation.xml does not list them.
func slideOrder(zr *zip.Reader) ([]string, error) {
	presData, err := ReadFile(zr, "ppt/presentation.xml")
	if err != nil {
		return nil, err
	}
	rels, _ := ParseRelationships(zr, "ppt/_rels/presentation.xml.rels")

	var slidePaths []string
	dec := xml.NewDecoder(bytes.NewReader(presData))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sldId" {
			continue
		}
		for _, attr := range se.Attr {
			if attr.Name.Local == "id" && strings.Contains(attr.Name.Space, "relationships") {
				if rel, ok := rels[attr.Value]; ok {
					slidePaths = append(slidePaths, ResolveTarget("ppt/presentation.xml", rel.Target))
				}
			}
		}
	}

	if len(slidePaths) == 0 {
		for _, f := range zr.File {
			if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
				slidePaths = append(slidePaths, f.Name)
			}
		}
		sort.Slice(slidePaths, func(i, j int) bool {
			if len(slidePaths[i]) != len(slidePaths[j]) {
				return len(slidePaths[i]) < len(slidePaths[j])
			}
			return slidePaths[i] < slidePaths[j]
		})
	}
	return slidePaths, nil
}

func notesPathFor(zr *zip.Reader, slidePath string) string {
	rels, err := ParseRelationships(zr, RelsPathFor(slidePath))
	if err != nil {
		return ""
	}
	for _, rel := range rels {
		if strings.HasSuffix(rel.Type, "/notesSlide") {
			return ResolveTarget(slidePath, rel.Target)
		}
	}
	return ""
}

// paragraphs collects the DrawingML paragraphs (a:p) of a slide part.
func paragraphs(data []byte) ([]string, error) {
	var (
		out    []string
		para   strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br":
				para.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(para.String()); text != "" {
					out = append(out, text)
				}
				para.Reset()
			}
		}
	}
	return out, nil
}
