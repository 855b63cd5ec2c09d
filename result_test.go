package anyconvert

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticf(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"invalid JSON", "(invalid JSON)"},
		{"  padded  ", "(padded)"},
		{"(already wrapped)", "(already wrapped)"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			d := Diagnosticf("%s", tt.msg)
			assert.True(t, d.Diagnostic)
			assert.Equal(t, tt.want, d.Text)
		})
	}
}

func TestNormalize(t *testing.T) {
	var nilText *TextResult
	var nilArtifact *ArtifactResult

	tests := []struct {
		name string
		in   Result
		want Result
	}{
		{"nil interface", nil, Diagnosticf("no output")},
		{"nil text", nilText, Diagnosticf("no output")},
		{"nil artifact", nilArtifact, Diagnosticf("no output")},
		{"text", Text("ok"), Text("ok")},
		{"unnamed artifact", Artifact("", "text/plain", []byte("x"), ""), Artifact("output.bin", "text/plain", []byte("x"), "")},
		{"named artifact", Artifact("a.txt", "text/plain", []byte("x"), ""), Artifact("a.txt", "text/plain", []byte("x"), "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestArtifactURL(t *testing.T) {
	a := Artifact("hi.txt", "text/plain", []byte("hi"), "")
	assert.Equal(t, "data:text/plain;base64,aGk=", a.URL())

	a.MIMEType = ""
	assert.Equal(t, "data:application/octet-stream;base64,aGk=", a.URL())
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "hello", String(Text("hello")))
	assert.Equal(t, "a.bin (application/octet-stream, 3 B)", String(Artifact("a.bin", "application/octet-stream", []byte("abc"), "")))
	assert.Equal(t, "a.png (image/png, 2.0 KiB): 10×10", String(Artifact("a.png", "image/png", make([]byte, 2048), "10×10")))
}

func TestIsDiagnostic(t *testing.T) {
	assert.True(t, IsDiagnostic(Diagnosticf("bad")))
	assert.True(t, IsDiagnostic(nil))
	assert.False(t, IsDiagnostic(Text("fine")))
	assert.False(t, IsDiagnostic(Artifact("a", "b", nil, "")))
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		name, fallback, ext string
		want                string
	}{
		{"photo.jpeg", "image", ".png", "photo.png"},
		{"dir/sub/report.csv", "data", ".xlsx", "report.xlsx"},
		{`C:\Users\ada\notes.txt`, "file", ".pdf", "notes.pdf"},
		{"", "image", ".png", "image.png"},
		{"noext", "x", ".gz", "noext.gz"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, outputName(tt.name, tt.fallback, tt.ext), "outputName(%q)", tt.name)
	}
}

func TestErrors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		err := fmt.Errorf("lookup: %w", &NotFoundError{ID: "dne"})
		assert.True(t, IsNotFound(err))
		assert.False(t, IsNotFound(errors.New("other")))
		assert.Equal(t, `converter "dne" not found`, (&NotFoundError{ID: "dne"}).Error())
	})

	t.Run("input error unwraps", func(t *testing.T) {
		cause := errors.New("boom")
		err := invalidWrap("bad input", cause)
		assert.Equal(t, "bad input", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("capability error", func(t *testing.T) {
		assert.Equal(t, "PDF engine unavailable", (&CapabilityError{Capability: "PDF engine"}).Error())
		assert.Equal(t, "PDF engine unavailable: no wasm", (&CapabilityError{Capability: "PDF engine", Err: errors.New("no wasm")}).Error())
	})

	t.Run("validation error", func(t *testing.T) {
		err := &ValidationError{Problems: []string{"a", "b"}}
		assert.Equal(t, "invalid catalog, 2 problem(s):\n  a\n  b", err.Error())
	})
}

func TestDiagnose(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"input error", Invalidf("invalid hex digit %q", "g"), `(invalid hex digit "g")`},
		{"wrapped input error", fmt.Errorf("outer: %w", Invalidf("bad")), "(bad)"},
		{"wrapped cause hidden", invalidWrap("unreadable PDF", errors.New("xref at /tmp/x.pdf")), "(unreadable PDF)"},
		{"capability", &CapabilityError{Capability: "secure random source"}, "(secure random source unavailable)"},
		{"no invocation", fmt.Errorf("unit x: %w", ErrNoInvocation), "(converter has no invocation function)"},
		{"unexpected", errors.New("open /home/ada/file: denied"), "(conversion failed: open <path>: denied)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := diagnose(tt.err)
			require.True(t, d.Diagnostic)
			assert.Equal(t, tt.want, d.Text)
		})
	}
}
