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
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// Dispatcher invokes units. It never panics and never returns an error: every failure
// becomes a diagnostic TextResult.
type Dispatcher struct {
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher. A nil logger discards log output.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{logger: logger}
}

// Invoke runs u against in and returns the normalized result.
//
// With at least one file and a file-capable unit, the file function is called: the whole
// slice for a MultiFileConverter, the first file otherwise. In every other case the text
// function is called, with an empty input for generators.
func (d *Dispatcher) Invoke(ctx context.Context, u Unit, in Input) (res Result) {
	if u == nil {
		return Diagnosticf("no converter selected")
	}
	id := "unknown"
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("converter panicked",
				slog.String("unit", id),
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())))
			res = Diagnosticf("internal error in %s", id)
		}
		d.logger.Debug("converter invoked",
			slog.String("unit", id),
			slog.Duration("duration", time.Since(start)),
			slog.Bool("diagnostic", IsDiagnostic(res)))
	}()

	id = u.Meta().ID
	raw, err := d.call(ctx, u, in)
	if err != nil {
		diag := diagnose(err)
		if !isExpected(err) {
			d.logger.Warn("converter failed", slog.String("unit", id), slog.Any("error", err))
		}
		return diag
	}
	return Normalize(raw)
}

func (d *Dispatcher) call(ctx context.Context, u Unit, in Input) (Result, error) {
	if len(in.Files) > 0 {
		switch c := u.(type) {
		case MultiFileConverter:
			return c.ConvertFiles(ctx, in.Files, in.Aux)
		case FileConverter:
			return c.ConvertFile(ctx, in.Files[0], in.Aux)
		}
	}

	if c, ok := u.(TextConverter); ok {
		text := in.Text
		if u.Meta().IsGenerator {
			text = ""
		}
		return c.Convert(ctx, text)
	}

	if AcceptsFile(u) {
		return Diagnosticf("this converter needs a file"), nil
	}
	return nil, fmt.Errorf("unit %s: %w", u.Meta().ID, ErrNoInvocation)
}

// InvokeAsync runs Invoke on its own goroutine. The channel receives exactly one result
// and is then closed. Concurrent invocations complete in no particular order.
func (d *Dispatcher) InvokeAsync(ctx context.Context, u Unit, in Input) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		ch <- d.Invoke(ctx, u, in)
	}()
	return ch
}

// isExpected reports errors that are part of normal operation (bad input, missing codec).
func isExpected(err error) bool {
	var inErr *InputError
	var capErr *CapabilityError
	return errors.As(err, &inErr) || errors.As(err, &capErr)
}
