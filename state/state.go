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

package state

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind discriminates the active tag of a State.
type Kind uint8

const (
	// KindIdle means the projection was never invoked (commands only).
	KindIdle Kind = iota
	// KindPending means a request is in flight.
	KindPending
	// KindError means the latest request failed; see State.Failure.
	KindError
	// KindSuccess means the latest request succeeded; see State.Payload.
	KindSuccess
)

// String returns the lower-case tag name, or "unknown(<n>)" for values
// outside the defined range.
func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindPending:
		return "pending"
	case KindError:
		return "error"
	case KindSuccess:
		return "success"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Failure is the single normalized shape of every failed request.
type Failure struct {
	// Message is a human-readable description. Never empty once normalized.
	Message string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
}

// HasStatus reports whether the failure carries an HTTP status code.
func (f Failure) HasStatus() bool {
	return f.StatusCode != 0
}

// Error implements error so a Failure can flow through error-typed APIs.
func (f Failure) Error() string {
	if f.HasStatus() {
		return fmt.Sprintf("%s (status %d)", f.Message, f.StatusCode)
	}
	return f.Message
}

// State is the projection of one request lifecycle into a tagged union.
//
// Exactly one tag is active. The zero value is Idle. Fields are unexported so
// a State can only be built through Idle, Pending, Fail and Succeed, which
// keeps payload and failure from ever being set together.
type State[T any] struct {
	kind    Kind
	payload T
	failure Failure
}

// Idle returns the state of a projection that was never invoked.
func Idle[T any]() State[T] {
	return State[T]{kind: KindIdle}
}

// Pending returns the in-flight state.
func Pending[T any]() State[T] {
	return State[T]{kind: KindPending}
}

// Fail returns an error state carrying f.
func Fail[T any](f Failure) State[T] {
	return State[T]{kind: KindError, failure: f}
}

// Succeed returns a success state carrying payload.
func Succeed[T any](payload T) State[T] {
	return State[T]{kind: KindSuccess, payload: payload}
}

// Kind returns the active tag.
func (s State[T]) Kind() Kind { return s.kind }

// IsIdle reports whether the state is Idle.
func (s State[T]) IsIdle() bool { return s.kind == KindIdle }

// IsPending reports whether the state is Pending.
func (s State[T]) IsPending() bool { return s.kind == KindPending }

// IsError reports whether the state is Error.
func (s State[T]) IsError() bool { return s.kind == KindError }

// IsSuccess reports whether the state is Success.
func (s State[T]) IsSuccess() bool { return s.kind == KindSuccess }

// Settled reports whether the state is a final outcome (Error or Success).
func (s State[T]) Settled() bool {
	return s.kind == KindError || s.kind == KindSuccess
}

// Payload returns the success payload. ok is false for every other tag.
func (s State[T]) Payload() (payload T, ok bool) {
	if s.kind != KindSuccess {
		var zero T
		return zero, false
	}
	return s.payload, true
}

// Failure returns the normalized failure. ok is false for every other tag.
func (s State[T]) Failure() (f Failure, ok bool) {
	if s.kind != KindError {
		return Failure{}, false
	}
	return s.failure, true
}

// String renders the state for logs, e.g. "success" or
// "error(Backend returned 500: Internal Server Error)".
func (s State[T]) String() string {
	if s.kind == KindError {
		return s.kind.String() + "(" + s.failure.Message + ")"
	}
	return s.kind.String()
}

// Map projects a success payload through fn and keeps every other tag.
func Map[T, U any](s State[T], fn func(T) U) State[U] {
	switch s.kind {
	case KindSuccess:
		return Succeed(fn(s.payload))
	case KindError:
		return Fail[U](s.failure)
	default:
		return State[U]{kind: s.kind}
	}
}

// wire is the JSON shape handed to presentation layers.
type wire[T any] struct {
	State      string `json:"state"`
	Payload    *T     `json:"payload,omitempty"`
	Message    string `json:"message,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
}

// MarshalJSON encodes the state as {"state": "<tag>", ...} with only the
// members of the active tag present.
func (s State[T]) MarshalJSON() ([]byte, error) {
	w := wire[T]{State: s.kind.String()}
	switch s.kind {
	case KindSuccess:
		p := s.payload
		w.Payload = &p
	case KindError:
		w.Message = s.failure.Message
		w.StatusCode = s.failure.StatusCode
	}
	return json.Marshal(w)
}
