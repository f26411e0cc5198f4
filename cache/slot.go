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

// Package cache holds the single-entry cache slot a query keeps for its last
// successful payload.
package cache

import (
	"time"

	"dirpx.dev/rsx/cache/strategy"
)

// Slot retains at most one payload, tagged with the epoch it was fetched in.
//
// Slot is not safe for concurrent use; the owning query guards it with its
// own mutex.
type Slot[T any] struct {
	payload  T
	epoch    uint64
	storedAt time.Time
	filled   bool
}

// Store keeps payload as the value for epoch.
func (s *Slot[T]) Store(epoch uint64, payload T, now time.Time) {
	s.payload = payload
	s.epoch = epoch
	s.storedAt = now
	s.filled = true
}

// Lookup returns the payload if it belongs to epoch and is still fresh under
// the given strategy. None never hits. TTL misses once the payload is older
// than staleTime; a non-positive staleTime makes TTL behave like Shared.
func (s *Slot[T]) Lookup(epoch uint64, cs strategy.Strategy, staleTime time.Duration, now time.Time) (T, bool) {
	var zero T
	if !s.filled || !cs.Enabled() || s.epoch != epoch {
		return zero, false
	}
	if cs == strategy.TTL && staleTime > 0 && now.Sub(s.storedAt) > staleTime {
		return zero, false
	}
	return s.payload, true
}

// Clear drops the payload.
func (s *Slot[T]) Clear() {
	var zero T
	s.payload = zero
	s.filled = false
}

// Filled reports whether a payload is held, regardless of freshness.
func (s *Slot[T]) Filled() bool {
	return s.filled
}
