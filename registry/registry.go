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

package registry

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/config"
)

var (
	// ErrEmptyKey is returned when an empty key is provided.
	ErrEmptyKey = errors.New("rsx(registry): empty key provided")
	// ErrNilShared is returned when a nil projection is provided.
	ErrNilShared = errors.New("rsx(registry): nil projection provided")
	// ErrConflictingRegistration indicates an attempt to register a
	// different projection under a key that is already taken.
	ErrConflictingRegistration = errors.New("rsx(registry): conflicting registration")
)

// New constructs a Registry holding at most size projections. When full, the
// least recently used projection is evicted and closed. A non-positive size
// selects config.DefaultRegistrySize.
func New(size int) apis.Registry {
	if size <= 0 {
		size = config.DefaultRegistrySize
	}
	r := &registry{}
	c, err := lru.NewWithEvict(size, r.evicted)
	if err != nil {
		// Only a non-positive size fails, which is excluded above.
		panic(err)
	}
	r.cache = c
	return r
}

// registry is a Registry backed by a size-bounded LRU cache.
type registry struct {
	// mu makes check-then-add sequences atomic; the cache has its own lock
	// for single operations.
	mu    sync.Mutex
	cache *lru.Cache[string, apis.Shared]
	// detaching suppresses Close on eviction while Detach empties the cache.
	detaching atomic.Bool
}

func (r *registry) evicted(_ string, s apis.Shared) {
	if r.detaching.Load() {
		return
	}
	s.Close()
}

// Register stores s under key. It is idempotent for the same (key, s) pair.
func (r *registry) Register(key string, s apis.Shared) error {
	// Validate inputs early.
	if key == "" {
		return ErrEmptyKey
	}
	if s == nil {
		return ErrNilShared
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.cache.Get(key); ok {
		if old == s {
			return nil // idempotent re-registration
		}
		return ErrConflictingRegistration
	}
	r.cache.Add(key, s)
	return nil
}

// LoadOrRegister returns the projection under key or registers create().
func (r *registry) LoadOrRegister(key string, create func() apis.Shared) (apis.Shared, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.cache.Get(key); ok {
		return old, nil
	}
	s := create()
	if s == nil {
		return nil, ErrNilShared
	}
	r.cache.Add(key, s)
	return s, nil
}

// Lookup returns the projection under key and marks it recently used.
func (r *registry) Lookup(key string) (apis.Shared, bool) {
	return r.cache.Get(key)
}

// Remove closes and removes the projection under key.
func (r *registry) Remove(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Remove(key)
}

// Invalidate invalidates the projection under key.
func (r *registry) Invalidate(key string) bool {
	s, ok := r.cache.Peek(key)
	if !ok {
		return false
	}
	s.Invalidate()
	return true
}

// InvalidatePrefix invalidates every projection whose key has the prefix.
func (r *registry) InvalidatePrefix(prefix string) int {
	n := 0
	for _, key := range r.cache.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if s, ok := r.cache.Peek(key); ok {
			s.Invalidate()
			n++
		}
	}
	return n
}

// Entries returns a snapshot for diagnostics/docs (order is unspecified).
func (r *registry) Entries() []apis.Entry {
	keys := r.cache.Keys()
	entries := make([]apis.Entry, 0, len(keys))
	for _, key := range keys {
		if s, ok := r.cache.Peek(key); ok {
			entries = append(entries, apis.Entry{Key: key, Name: s.Name()})
		}
	}
	return entries
}

// Count returns the number of registered projections.
func (r *registry) Count() int {
	return r.cache.Len()
}

// Reset closes and removes every projection.
func (r *registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Purge()
}

// Detach removes every projection without closing it, handing ownership to
// whoever took them over, e.g. a rebuilt registry.
func (r *registry) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detaching.Store(true)
	defer r.detaching.Store(false)
	r.cache.Purge()
}
