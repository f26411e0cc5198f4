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

package apis

// Invalidator is anything whose cached data can be dropped, typically a
// query projection.
type Invalidator interface {
	Invalidate()
}

// Shared is a projection that can be stored in a Registry.
type Shared interface {
	Invalidator
	// Name is a diagnostic name, e.g. "query[users.User]".
	Name() string
	// Close releases the projection's subscribers and in-flight work.
	Close()
}

// Registry keeps shared projections by key so one instance serves every
// caller bound to the same endpoint. Implementations must be safe for
// concurrent use.
type Registry interface {
	// Register stores s under key. Re-registering the same instance is a
	// no-op; a different instance under a taken key is an error.
	Register(key string, s Shared) error
	// LoadOrRegister returns the projection stored under key, or stores and
	// returns the one built by create. create runs at most once per call and
	// only when key is free.
	LoadOrRegister(key string, create func() Shared) (Shared, error)
	// Lookup returns the projection stored under key.
	Lookup(key string) (Shared, bool)
	// Remove closes and removes the projection under key.
	Remove(key string) bool
	// Invalidate invalidates the projection under key, if any.
	Invalidate(key string) bool
	// InvalidatePrefix invalidates every projection whose key starts with
	// prefix and returns how many were hit.
	InvalidatePrefix(prefix string) int
	// Entries returns a snapshot for diagnostics (order is unspecified).
	Entries() []Entry
	// Count returns the number of stored projections.
	Count() int
	// Reset closes and removes every stored projection.
	Reset()
}

// Entry is a single (key, projection) association in a Registry snapshot.
type Entry struct {
	// Key is the registration key.
	Key string
	// Name is the diagnostic name of the projection.
	Name string
}
