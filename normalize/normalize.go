/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package normalize

import (
	"fmt"
	"strings"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/state"
	"dirpx.dev/rsx/strategy"
)

// FallbackMessage is used when no strategy handles an error and the error
// has no text of its own.
const FallbackMessage = "An unexpected error occurred"

// New constructs an apis.Normalizer that tries the given strategies in order.
// Nil strategies are ignored. The returned normalizer is safe for concurrent
// use provided strategies themselves are safe for concurrent TryNormalize
// calls.
func New(strategies ...apis.Strategy) apis.Normalizer {
	// Filter out nils to avoid nil-interface panics on call sites.
	out := make([]apis.Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			out = append(out, s)
		}
	}
	return chain{strats: out}
}

// Default returns the standard chain:
// Failure -> Network -> Problem -> BodyParse -> Status -> fallback.
func Default() apis.Normalizer {
	return New(
		strategy.NewFailureStrategy(),
		strategy.NewNetworkStrategy(),
		strategy.NewProblemStrategy(),
		strategy.NewBodyParseStrategy(),
		strategy.NewStatusStrategy(),
	)
}

// chain is an immutable, order-preserving normalizer over a set of strategies.
type chain struct {
	strats []apis.Strategy
}

// Normalize runs strategies in order until one handles err. Unhandled errors
// keep their own text. The result never has an empty message.
func (c chain) Normalize(err error, cfg apis.Config) (f state.Failure) {
	defer func() {
		// A misbehaving strategy must not take the projection down with it.
		if r := recover(); r != nil {
			f = state.Failure{Message: fallback(err)}
		}
	}()
	for _, s := range c.strats {
		if f, ok := s.TryNormalize(err, cfg); ok && f.Message != "" {
			return f
		}
	}
	return state.Failure{Message: fallback(err)}
}

func fallback(err error) string {
	if err == nil {
		return FallbackMessage
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return FallbackMessage
}

// Panic converts a recovered panic value into an error that Normalize can
// render.
func Panic(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
