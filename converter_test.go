package anyconvert

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

// newTestToolkit returns a toolkit with seeded randomness, a fake clock and no PDF engine.
func newTestToolkit(t *testing.T, opts ...Option) (*Toolkit, *clockz.FakeClock) {
	t.Helper()
	clock := clockz.NewFakeClock()
	base := []Option{
		WithRandom(rand.New(rand.NewSource(1))),
		WithClock(clock),
		WithCodecs(stubCodecs{}),
	}
	return New(append(base, opts...)...), clock
}

func run(t *testing.T, tk *Toolkit, id string, in Input) Result {
	t.Helper()
	res, err := tk.Run(context.Background(), id, in)
	require.NoError(t, err)
	return res
}

// convertText runs id on text and requires a plain text result.
func convertText(t *testing.T, tk *Toolkit, id, text string) string {
	t.Helper()
	res := run(t, tk, id, Input{Text: text})
	tr, ok := res.(*TextResult)
	require.True(t, ok, "%s: expected text, got %T", id, res)
	require.False(t, tr.Diagnostic, "%s: unexpected diagnostic %s", id, tr.Text)
	return tr.Text
}

// convertFile runs id on one file and returns the normalized result.
func convertFile(t *testing.T, tk *Toolkit, id string, f File, aux string) Result {
	t.Helper()
	return run(t, tk, id, Input{Files: []File{f}, Aux: aux})
}

// fileText requires a plain text result.
func fileText(t *testing.T, res Result) string {
	t.Helper()
	tr, ok := res.(*TextResult)
	require.True(t, ok, "expected text, got %T", res)
	require.False(t, tr.Diagnostic, "unexpected diagnostic %s", tr.Text)
	return tr.Text
}

// artifact requires an artifact result.
func artifact(t *testing.T, res Result) *ArtifactResult {
	t.Helper()
	a, ok := res.(*ArtifactResult)
	require.True(t, ok, "expected artifact, got %s", String(res))
	return a
}

// diagnostic requires a diagnostic and returns its text.
func diagnostic(t *testing.T, res Result) string {
	t.Helper()
	require.True(t, IsDiagnostic(res), "expected diagnostic, got %s", String(res))
	return res.(*TextResult).Text
}
