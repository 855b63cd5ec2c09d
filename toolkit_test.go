package anyconvert

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolkit_Run(t *testing.T) {
	tk, _ := newTestToolkit(t)

	res, err := tk.Run(context.Background(), "base64-encode", Input{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "aGk=", String(res))

	_, err = tk.Run(context.Background(), "dne-id-xyz", Input{})
	assert.True(t, IsNotFound(err))
	assert.EqualError(t, err, `converter "dne-id-xyz" not found`)
}

func TestToolkit_RunAsync(t *testing.T) {
	tk, _ := newTestToolkit(t)

	ch, err := tk.RunAsync(context.Background(), "rot13", Input{Text: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "nop", String(<-ch))
	_, open := <-ch
	assert.False(t, open)

	_, err = tk.RunAsync(context.Background(), "nope", Input{})
	assert.True(t, IsNotFound(err))
}

func TestToolkit_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tk, _ := newTestToolkit(t, WithLogger(logger))

	_, err := tk.Run(context.Background(), "md5", Input{Text: "abc"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "unit=md5")

	// A nil logger keeps the default.
	assert.NotPanics(t, func() {
		tk, _ := newTestToolkit(t, WithLogger(nil))
		_, _ = tk.Run(context.Background(), "md5", Input{Text: "abc"})
	})
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": 1}`), 0o600))

	f, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data.json", f.Name)
	assert.Equal(t, "application/json", f.MIMEType)
	assert.Equal(t, int64(8), f.Size())

	_, err = ReadFile(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewFile_MIMEType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"photo.bin", testPNG(t, "", 1, 1).Data, "image/png"},
		{"notes.md", []byte("# Title"), "text/markdown"},
		{"table.CSV", []byte("a,b\n1,2\n"), "text/csv"},
		{"blob", []byte{0x00, 0x01, 0x02}, "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewFile(tt.name, tt.data).MIMEType)
		})
	}
}

func TestCodecProvider(t *testing.T) {
	p := NewCodecProvider()

	qr, err := p.QREncoder()
	require.NoError(t, err)
	data, err := qr.EncodePNG("hello", 64)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	// The engine is loaded once and reused.
	first, firstErr := p.PDFEngine()
	second, secondErr := p.PDFEngine()
	assert.Equal(t, firstErr, secondErr)
	assert.Equal(t, first, second)
}

func TestPDFEngine_RoundTrip(t *testing.T) {
	tk := New(WithCodecs(NewCodecProvider()))

	pdf := artifact(t, run(t, tk, "text-to-pdf", Input{Text: "Hello from a generated PDF"}))
	res := run(t, tk, "pdf-to-text", Input{Files: []File{{Name: pdf.Filename, Data: pdf.Data}}})
	if String(res) == "(PDF engine unavailable)" {
		t.Skip("PDF engine unavailable on this platform")
	}
	assert.Contains(t, fileText(t, res), "Hello")

	info := fileText(t, run(t, tk, "pdf-info", Input{Files: []File{{Name: pdf.Filename, Data: pdf.Data}}}))
	assert.Contains(t, info, "Pages: 1\n")
}
