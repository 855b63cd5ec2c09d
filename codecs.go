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
	"sync"

	qrcode "github.com/skip2/go-qrcode"
)

// PDFEngine reads PDF documents.
type PDFEngine interface {
	PageCount(ctx context.Context, data []byte) (int, error)
	// PageTexts returns the extracted text of every page, in order.
	PageTexts(ctx context.Context, data []byte) ([]string, error)
}

// QREncoder renders QR codes.
type QREncoder interface {
	EncodePNG(content string, size int) ([]byte, error)
}

// CodecProvider hands out heavy codecs on first use.
type CodecProvider interface {
	PDFEngine() (PDFEngine, error)
	QREncoder() (QREncoder, error)
}

type lazyCodecs struct {
	pdfOnce sync.Once
	pdf     PDFEngine
	pdfErr  error
}

// NewCodecProvider returns a provider that initialises each codec the first time a unit
// asks for it. The PDF engine is PDFium (WebAssembly) unless built with -tags nopdfium.
func NewCodecProvider() CodecProvider {
	return &lazyCodecs{}
}

func (c *lazyCodecs) PDFEngine() (PDFEngine, error) {
	c.pdfOnce.Do(func() {
		c.pdf, c.pdfErr = loadPDFEngine()
	})
	if c.pdfErr != nil {
		return nil, &CapabilityError{Capability: "PDF engine", Err: c.pdfErr}
	}
	return c.pdf, nil
}

func (c *lazyCodecs) QREncoder() (QREncoder, error) {
	return qrEncoder{}, nil
}

type qrEncoder struct{}

func (qrEncoder) EncodePNG(content string, size int) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode QR: %w", err)
	}
	return png, nil
}
