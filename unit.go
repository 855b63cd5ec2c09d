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

// Package anyconvert is a catalog of small, stateless converters (encodings, hashes, colors,
// number bases, data formats, images, documents) behind one invocation contract.
package anyconvert

import (
	"bytes"
	"context"
)

// Category identifies a converter group.
type Category string

const (
	CategoryAll      Category = "all"
	CategoryEncode   Category = "encode"
	CategoryHash     Category = "hash"
	CategoryData     Category = "data"
	CategoryWeb      Category = "web"
	CategoryNumber   Category = "number"
	CategoryColor    Category = "color"
	CategoryUtility  Category = "utility"
	CategoryImage    Category = "image"
	CategoryMedia    Category = "media"
	CategoryDocument Category = "document"
	CategoryText     Category = "text"
)

// Meta describes a converter unit. Whether a unit takes files is not a field: it follows
// from which invocation interface the unit implements (see AcceptsFile).
type Meta struct {
	ID          string
	Name        string
	Category    Category
	Description string
	Placeholder string

	// AcceptTypes is a file picker filter ("image/*", ".csv,.tsv", "*").
	AcceptTypes string
	// HasTextInput marks file units that also read the auxiliary text parameter.
	HasTextInput    bool
	TextPlaceholder string

	IsMediaConverter bool
	ShowsPreview     bool
	// IsGenerator units ignore their input entirely.
	IsGenerator bool
}

// Unit is the interface every converter implements.
type Unit interface {
	Meta() Meta
}

// TextConverter transforms a text input.
type TextConverter interface {
	Unit
	Convert(ctx context.Context, input string) (Result, error)
}

// FileConverter transforms exactly one file. aux carries the auxiliary text input and is
// always passed, whether or not the unit reads it.
type FileConverter interface {
	Unit
	ConvertFile(ctx context.Context, file File, aux string) (Result, error)
}

// MultiFileConverter transforms every supplied file in one call.
type MultiFileConverter interface {
	Unit
	ConvertFiles(ctx context.Context, files []File, aux string) (Result, error)
}

// AcceptsFile reports whether u consumes files.
func AcceptsFile(u Unit) bool {
	switch u.(type) {
	case FileConverter, MultiFileConverter:
		return true
	}
	return false
}

// MultipleFiles reports whether u receives the whole file slice instead of the first file.
func MultipleFiles(u Unit) bool {
	_, ok := u.(MultiFileConverter)
	return ok
}

// File is an in-memory file handed to a file converter.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size returns the file length in bytes.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// Reader returns a fresh reader over the file contents.
func (f File) Reader() *bytes.Reader {
	return bytes.NewReader(f.Data)
}

// Input is everything a caller may supply for one invocation.
type Input struct {
	Text  string
	Files []File
	Aux   string
}

// Descriptor is the presentation view of a unit with every capability flag spelled out.
type Descriptor struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Category         Category `json:"category"`
	Description      string   `json:"description"`
	Placeholder      string   `json:"placeholder,omitempty"`
	AcceptsFile      bool     `json:"acceptsFile"`
	AcceptTypes      string   `json:"acceptTypes,omitempty"`
	MultipleFiles    bool     `json:"multipleFiles"`
	HasTextInput     bool     `json:"hasTextInput"`
	TextPlaceholder  string   `json:"textPlaceholder,omitempty"`
	IsMediaConverter bool     `json:"isMediaConverter"`
	ShowsPreview     bool     `json:"showsPreview"`
	IsGenerator      bool     `json:"isGenerator"`
}

// Describe materializes the capability flags of u.
func Describe(u Unit) Descriptor {
	m := u.Meta()
	d := Descriptor{
		ID:               m.ID,
		Name:             m.Name,
		Category:         m.Category,
		Description:      m.Description,
		Placeholder:      m.Placeholder,
		AcceptsFile:      AcceptsFile(u),
		MultipleFiles:    MultipleFiles(u),
		HasTextInput:     m.HasTextInput,
		TextPlaceholder:  m.TextPlaceholder,
		IsMediaConverter: m.IsMediaConverter,
		ShowsPreview:     m.ShowsPreview,
		IsGenerator:      m.IsGenerator,
	}
	if d.AcceptsFile {
		d.AcceptTypes = m.AcceptTypes
		if d.AcceptTypes == "" {
			d.AcceptTypes = "*"
		}
	}
	return d
}

// TextFunc, FileFunc and FilesFunc are the function forms of the three invocation interfaces.
type (
	TextFunc  func(ctx context.Context, input string) (Result, error)
	FileFunc  func(ctx context.Context, file File, aux string) (Result, error)
	FilesFunc func(ctx context.Context, files []File, aux string) (Result, error)
)

type textUnit struct {
	meta Meta
	fn   TextFunc
}

func (u *textUnit) Meta() Meta { return u.meta }

func (u *textUnit) Convert(ctx context.Context, input string) (Result, error) {
	return u.fn(ctx, input)
}

type fileUnit struct {
	meta Meta
	fn   FileFunc
}

func (u *fileUnit) Meta() Meta { return u.meta }

func (u *fileUnit) ConvertFile(ctx context.Context, file File, aux string) (Result, error) {
	return u.fn(ctx, file, aux)
}

type multiFileUnit struct {
	meta Meta
	fn   FilesFunc
}

func (u *multiFileUnit) Meta() Meta { return u.meta }

func (u *multiFileUnit) ConvertFiles(ctx context.Context, files []File, aux string) (Result, error) {
	return u.fn(ctx, files, aux)
}

// NewTextUnit builds a TextConverter from a function.
func NewTextUnit(m Meta, fn TextFunc) TextConverter {
	return &textUnit{meta: m, fn: fn}
}

// NewFileUnit builds a single-file FileConverter from a function.
func NewFileUnit(m Meta, fn FileFunc) FileConverter {
	return &fileUnit{meta: m, fn: fn}
}

// NewMultiFileUnit builds a MultiFileConverter from a function.
func NewMultiFileUnit(m Meta, fn FilesFunc) MultiFileConverter {
	return &multiFileUnit{meta: m, fn: fn}
}

// stringFunc adapts a plain string transform; a returned error becomes a diagnostic.
func stringFunc(fn func(string) (string, error)) TextFunc {
	return func(_ context.Context, input string) (Result, error) {
		out, err := fn(input)
		if err != nil {
			return nil, err
		}
		return Text(out), nil
	}
}

// pureFunc adapts a transform that cannot fail.
func pureFunc(fn func(string) string) TextFunc {
	return func(_ context.Context, input string) (Result, error) {
		return Text(fn(input)), nil
	}
}

type textFileUnit struct {
	meta   Meta
	textFn TextFunc
	fileFn FileFunc
}

func (u *textFileUnit) Meta() Meta { return u.meta }

func (u *textFileUnit) Convert(ctx context.Context, input string) (Result, error) {
	return u.textFn(ctx, input)
}

func (u *textFileUnit) ConvertFile(ctx context.Context, file File, aux string) (Result, error) {
	return u.fileFn(ctx, file, aux)
}

// NewTextFileUnit builds a unit that takes either pasted text or a file. When both are
// supplied the file wins.
func NewTextFileUnit(m Meta, textFn TextFunc, fileFn FileFunc) FileConverter {
	return &textFileUnit{meta: m, textFn: textFn, fileFn: fileFn}
}
