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
	"crypto/rand"
	"io"
	"math/big"

	"github.com/zoobzio/clockz"
)

// Env carries the injectable dependencies units are built with.
type Env struct {
	// Random is the byte source for generators. Nil means the platform source is missing.
	Random io.Reader
	Clock  clockz.Clock
	Codecs CodecProvider
}

// DefaultEnv returns an Env backed by crypto/rand, the wall clock and lazily loaded codecs.
func DefaultEnv() Env {
	return Env{
		Random: rand.Reader,
		Clock:  clockz.RealClock,
		Codecs: NewCodecProvider(),
	}
}

func (e Env) withDefaults() Env {
	if e.Clock == nil {
		e.Clock = clockz.RealClock
	}
	if e.Codecs == nil {
		e.Codecs = NewCodecProvider()
	}
	return e
}

func (e Env) random() (io.Reader, error) {
	if e.Random == nil {
		return nil, &CapabilityError{Capability: "secure random source"}
	}
	return e.Random, nil
}

// randIntn returns a uniform integer in [0, n).
func (e Env) randIntn(n int) (int, error) {
	r, err := e.random()
	if err != nil {
		return 0, err
	}
	v, err := rand.Int(r, big.NewInt(int64(n)))
	if err != nil {
		return 0, &CapabilityError{Capability: "secure random source", Err: err}
	}
	return int(v.Int64()), nil
}
