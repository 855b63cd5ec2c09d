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
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoInvocation is returned for a unit that implements none of the invocation interfaces.
var ErrNoInvocation = errors.New("converter has no invocation function")

// NotFoundError is returned when no unit has the requested id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("converter %q not found", e.ID)
}

// IsNotFound reports whether the error is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// InputError reports input the converter cannot handle. Its message is shown to the
// user verbatim inside parentheses.
type InputError struct {
	Msg string
	Err error
}

func (e *InputError) Error() string {
	return e.Msg
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Invalidf returns an InputError with a formatted message.
func Invalidf(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// invalidWrap returns an InputError carrying the underlying cause.
func invalidWrap(msg string, err error) error {
	return &InputError{Msg: msg, Err: err}
}

// CapabilityError reports a platform capability or codec that could not be provided.
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	if e.Err == nil {
		return e.Capability + " unavailable"
	}
	return fmt.Sprintf("%s unavailable: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// ValidationError lists every problem found in a catalog.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid catalog"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid catalog, %d problem(s):", len(e.Problems))
	for _, p := range e.Problems {
		fmt.Fprintf(&b, "\n  %s", p)
	}
	return b.String()
}

var absPathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run)[a-zA-Z0-9._/-]*)`)

// diagnose turns an error returned by a unit into the user-visible diagnostic.
func diagnose(err error) *TextResult {
	var inErr *InputError
	if errors.As(err, &inErr) {
		return Diagnosticf("%s", inErr.Msg)
	}
	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		return Diagnosticf("%s unavailable", capErr.Capability)
	}
	if errors.Is(err, ErrNoInvocation) {
		return Diagnosticf("%s", ErrNoInvocation.Error())
	}
	return Diagnosticf("conversion failed: %s", absPathPattern.ReplaceAllString(err.Error(), "<path>"))
}
