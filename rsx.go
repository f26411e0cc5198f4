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

package rsx

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/builder"
	"dirpx.dev/rsx/command"
	"dirpx.dev/rsx/config"
	"dirpx.dev/rsx/logging"
	"dirpx.dev/rsx/metrics"
	"dirpx.dev/rsx/query"
)

// init initializes the global state.
func init() {
	s := &state{
		cfg: config.DefaultConfig(),
		bld: builder.New(),
		log: logging.Nop(),
		rec: metrics.Nop(),
	}
	s.reg = s.bld.BuildRegistry(s.cfg, nil)
	s.norm = s.bld.BuildNormalizer(s.cfg, nil)
	st.Store(s)
}

var (
	// ErrNilRegistry is returned when a builder returns a nil registry.
	ErrNilRegistry = errors.New("rsx: builder returned nil registry")
	// ErrNilNormalizer is returned when a builder returns a nil normalizer.
	ErrNilNormalizer = errors.New("rsx: builder returned nil normalizer")
	// ErrTypeMismatch is returned by SharedQuery when the key is already
	// bound to a query of another payload type.
	ErrTypeMismatch = errors.New("rsx: key bound to a different query type")
)

// NewQuery creates a query wired to the global configuration, normalizer,
// logger and recorder. opts are applied after them.
func NewQuery[T any](fetcher query.Fetcher[T], opts ...query.Option) *query.Query[T] {
	s := st.Load()
	base := []query.Option{
		query.WithConfig(s.cfg),
		query.WithNormalizer(s.norm),
		query.WithLogger(s.log),
		query.WithRecorder(s.rec),
	}
	return query.New(fetcher, append(base, opts...)...)
}

// NewCommand creates a command wired to the global configuration,
// normalizer, logger and recorder. opts are applied after them.
func NewCommand[V, T any](fetcher command.Fetcher[V, T], opts ...command.Option) *command.Command[V, T] {
	s := st.Load()
	base := []command.Option{
		command.WithConfig(s.cfg),
		command.WithNormalizer(s.norm),
		command.WithLogger(s.log),
		command.WithRecorder(s.rec),
	}
	return command.New(fetcher, append(base, opts...)...)
}

// SharedQuery returns the query registered under key in the global
// registry, creating it with NewQuery on first use.
func SharedQuery[T any](key string, fetcher query.Fetcher[T], opts ...query.Option) (*query.Query[T], error) {
	sh, err := st.Load().reg.LoadOrRegister(key, func() apis.Shared {
		return NewQuery(fetcher, append([]query.Option{query.WithName(key)}, opts...)...)
	})
	if err != nil {
		return nil, err
	}
	q, ok := sh.(*query.Query[T])
	if !ok {
		return nil, fmt.Errorf("%w: %q holds %s", ErrTypeMismatch, key, sh.Name())
	}
	return q, nil
}

// Invalidate invalidates the shared query under key in the global registry.
func Invalidate(key string) bool {
	return st.Load().reg.Invalidate(key)
}

// InvalidatePrefix invalidates every shared query in the global registry
// whose key has prefix.
func InvalidatePrefix(prefix string) int {
	return st.Load().reg.InvalidatePrefix(prefix)
}

// SetAll explicitly sets all global state components.
//
// Nil arguments leave the corresponding component unchanged, except that a
// nil registry or normalizer is rebuilt (and unpinned). Non-nil ones are
// pinned.
func SetAll(cfg *apis.Config, reg apis.Registry, norm apis.Normalizer, bld apis.Builder, log *logrus.Entry, rec apis.Recorder) {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	next := *old
	if cfg != nil {
		next.cfg = config.Sanitize(*cfg)
	}
	if bld != nil {
		next.bld = bld
	}
	if log != nil {
		next.log = log
	}
	if rec != nil {
		next.rec = rec
	}

	next.reg, next.preg = reg, reg != nil
	if reg == nil {
		next.reg = next.bld.BuildRegistry(next.cfg, old.reg)
	}
	next.norm, next.pnorm = norm, norm != nil
	if norm == nil {
		next.norm = next.bld.BuildNormalizer(next.cfg, old.norm)
	}
	publish(&next)
}

// Config returns the global configuration.
func Config() apis.Config {
	return st.Load().cfg
}

// SetConfig sets the global configuration and rebuilds the unpinned
// registry and normalizer with it. Existing projections keep the
// configuration they were created with.
func SetConfig(cfg apis.Config) {
	update(func(old, next *state) {
		next.cfg = config.Sanitize(cfg)
		rebuild(old, next)
	})
}

// Registry returns the global registry of shared queries.
func Registry() apis.Registry {
	return st.Load().reg
}

// SetRegistry sets and pins the global registry. Nil is ignored.
func SetRegistry(reg apis.Registry) {
	if reg == nil {
		return
	}
	update(func(_, next *state) {
		next.reg = reg
		next.preg = true
	})
}

// Normalizer returns the global error normalizer.
func Normalizer() apis.Normalizer {
	return st.Load().norm
}

// SetNormalizer sets and pins the global normalizer. Nil is ignored.
func SetNormalizer(n apis.Normalizer) {
	if n == nil {
		return
	}
	update(func(_, next *state) {
		next.norm = n
		next.pnorm = true
	})
}

// Builder returns the global builder.
func Builder() apis.Builder {
	return st.Load().bld
}

// SetBuilder sets the global builder and rebuilds the unpinned registry and
// normalizer with it. Nil is ignored.
func SetBuilder(b apis.Builder) {
	if b == nil {
		return
	}
	update(func(old, next *state) {
		next.bld = b
		rebuild(old, next)
	})
}

// Logger returns the global base log entry.
func Logger() *logrus.Entry {
	return st.Load().log
}

// SetLogger sets the global base log entry. Nil restores the silent default.
func SetLogger(l *logrus.Entry) {
	if l == nil {
		l = logging.Nop()
	}
	update(func(_, next *state) {
		next.log = l
	})
}

// Recorder returns the global metrics recorder.
func Recorder() apis.Recorder {
	return st.Load().rec
}

// SetRecorder sets the global metrics recorder. Nil restores metrics.Nop.
func SetRecorder(r apis.Recorder) {
	if r == nil {
		r = metrics.Nop()
	}
	update(func(_, next *state) {
		next.rec = r
	})
}

// IsRegistryPinned returns whether the global registry is pinned.
func IsRegistryPinned() bool {
	return st.Load().preg
}

// UnpinRegistry lets SetConfig and SetBuilder rebuild the registry again.
func UnpinRegistry() {
	update(func(_, next *state) {
		next.preg = false
	})
}

// IsNormalizerPinned returns whether the global normalizer is pinned.
func IsNormalizerPinned() bool {
	return st.Load().pnorm
}

// UnpinNormalizer lets SetConfig and SetBuilder rebuild the normalizer again.
func UnpinNormalizer() {
	update(func(_, next *state) {
		next.pnorm = false
	})
}

// update derives a new state from the current one under buildMu and
// publishes it.
func update(fn func(old, next *state)) {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	next := *old
	fn(old, &next)
	publish(&next)
}

// rebuild replaces the unpinned layers of next using next.bld.
func rebuild(old, next *state) {
	if !next.preg {
		next.reg = next.bld.BuildRegistry(next.cfg, old.reg)
	}
	if !next.pnorm {
		next.norm = next.bld.BuildNormalizer(next.cfg, old.norm)
	}
}

// publish validates s and stores it. Callers hold buildMu.
func publish(s *state) {
	// Ensure non-nil reg and norm.
	if s.reg == nil {
		panic(ErrNilRegistry)
	}
	if s.norm == nil {
		panic(ErrNilNormalizer)
	}
	st.Store(s)
}

// buildMu serializes writers (reconfigurations/swaps) so we never publish
// partially-built snapshots.
var buildMu sync.Mutex

// st is the global state.
var st atomic.Pointer[state]

// state is the global state snapshot.
// Immutable snapshot published atomically via st.Store; never mutate fields
// of a published state. Writers copy it, change the copy and swap it in.
type state struct {
	// cfg is handed to every projection created through this package.
	cfg apis.Config
	// reg holds the shared queries.
	reg apis.Registry
	// norm turns fetch errors into failures.
	norm apis.Normalizer
	// bld rebuilds reg and norm when cfg or bld change.
	bld apis.Builder
	log *logrus.Entry
	rec apis.Recorder
	// preg indicates whether reg is pinned.
	preg bool
	// pnorm indicates whether norm is pinned.
	pnorm bool
}
