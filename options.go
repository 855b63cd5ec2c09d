package anyconvert

import (
	"io"
	"log/slog"

	"github.com/zoobzio/clockz"
)

// Option configures a Toolkit.
type Option func(*Toolkit)

// WithLogger sets the logger used by the dispatcher (default: discard).
func WithLogger(l *slog.Logger) Option {
	return func(t *Toolkit) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithRandom replaces the random byte source used by generator units
// (default: crypto/rand).
func WithRandom(r io.Reader) Option {
	return func(t *Toolkit) {
		t.env.Random = r
	}
}

// WithClock replaces the clock used by time-dependent units.
func WithClock(c clockz.Clock) Option {
	return func(t *Toolkit) {
		t.env.Clock = c
	}
}

// WithCodecs replaces the provider of heavy codecs (PDF engine, QR encoder).
func WithCodecs(p CodecProvider) Option {
	return func(t *Toolkit) {
		t.env.Codecs = p
	}
}
