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
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Toolkit is the entry point: the built-in catalog plus a dispatcher.
type Toolkit struct {
	env        Env
	logger     *slog.Logger
	registry   *Registry
	dispatcher *Dispatcher
}

// New creates a Toolkit with the given options.
func New(opts ...Option) *Toolkit {
	t := &Toolkit{
		env:    DefaultEnv(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.registry = BuildRegistry(t.env)
	t.dispatcher = NewDispatcher(t.logger)
	return t
}

// Registry returns the catalog.
func (t *Toolkit) Registry() *Registry {
	return t.registry
}

// Dispatcher returns the dispatcher used by Run.
func (t *Toolkit) Dispatcher() *Dispatcher {
	return t.dispatcher
}

// Run looks up a unit by id and invokes it. The only error is a *NotFoundError; every
// conversion failure is reported as a diagnostic result.
func (t *Toolkit) Run(ctx context.Context, id string, in Input) (Result, error) {
	u, err := t.registry.FindByID(id)
	if err != nil {
		return nil, err
	}
	return t.dispatcher.Invoke(ctx, u, in), nil
}

// RunAsync is Run without blocking on the conversion.
func (t *Toolkit) RunAsync(ctx context.Context, id string, in Input) (<-chan Result, error) {
	u, err := t.registry.FindByID(id)
	if err != nil {
		return nil, err
	}
	return t.dispatcher.InvokeAsync(ctx, u, in), nil
}

// ReadFile loads a local file and detects its MIME type.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("open file: %w", err)
	}
	return NewFile(filepath.Base(path), data), nil
}

// NewFile wraps data as a File, detecting the MIME type from content and name.
func NewFile(name string, data []byte) File {
	return File{
		Name:     name,
		MIMEType: detectMIMEType(data, strings.ToLower(filepath.Ext(name))),
		Data:     data,
	}
}

// detectMIMEType detects the MIME type from content and extension.
func detectMIMEType(data []byte, ext string) string {
	mtype := mimetype.Detect(data)
	if mtype.String() != "application/octet-stream" && !mtype.Is("text/plain") {
		return mtype.String()
	}
	if m := mimeFromExtension(ext); m != "application/octet-stream" {
		return m
	}
	return mtype.String()
}

// mimeFromExtension returns a MIME type for common extensions.
func mimeFromExtension(ext string) string {
	extMap := map[string]string{
		".pdf":   "application/pdf",
		".docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		".pptx":  "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		".xlsx":  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		".xls":   "application/vnd.ms-excel",
		".html":  "text/html",
		".htm":   "text/html",
		".csv":   "text/csv",
		".txt":   "text/plain",
		".md":    "text/markdown",
		".json":  "application/json",
		".yaml":  "application/yaml",
		".yml":   "application/yaml",
		".xml":   "text/xml",
		".rss":   "application/rss+xml",
		".atom":  "application/atom+xml",
		".epub":  "application/epub+zip",
		".zip":   "application/zip",
		".gz":    "application/gzip",
		".xz":    "application/x-xz",
		".png":   "image/png",
		".jpg":   "image/jpeg",
		".jpeg":  "image/jpeg",
		".gif":   "image/gif",
		".bmp":   "image/bmp",
		".webp":  "image/webp",
		".wav":   "audio/wav",
		".ipynb": "application/x-ipynb+json",
	}
	if m, ok := extMap[ext]; ok {
		return m
	}
	return "application/octet-stream"
}
