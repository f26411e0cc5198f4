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

package query

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/cache"
	"dirpx.dev/rsx/config"
	"dirpx.dev/rsx/normalize"
	"dirpx.dev/rsx/state"
	"dirpx.dev/rsx/stream"
	uref "dirpx.dev/rsx/utils/reflect"
)

// ErrNilFetcher is the panic value of New when the fetcher is nil.
var ErrNilFetcher = errors.New("rsx(query): nil fetcher")

// Fetcher performs the underlying read. It must honor ctx.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Query projects a read request into a Pending | Error | Success stream.
//
// All methods are safe for concurrent use.
type Query[T any] struct {
	fetch Fetcher[T]
	cfg   apis.Config
	norm  apis.Normalizer
	log   *logrus.Entry
	rec   apis.Recorder
	name  string
	now   func() time.Time

	stream *stream.Stream[state.State[T]]
	group  singleflight.Group

	// base is the parent of every flight context; cancelled by Close.
	base   context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	slot cache.Slot[T]
	// epoch advances on Invalidate; a payload is cached only for its epoch.
	epoch uint64
	// seq identifies the latest flight; only that flight may publish.
	seq    uint64
	flight *flight
	closed bool
}

// flight is one invocation of the fetcher.
type flight struct {
	seq    uint64
	epoch  uint64
	key    string
	cancel context.CancelFunc
	run    func() (any, error)
}

// outcome is the value a flight hands to singleflight waiters.
type outcome[T any] struct {
	st state.State[T]
	// applied is false if the flight was superseded and its result dropped.
	applied bool
}

// New constructs a Query around fetcher. It panics with ErrNilFetcher if
// fetcher is nil. The query is idle until the first Subscribe or Fetch.
func New[T any](fetcher Fetcher[T], opts ...Option) *Query[T] {
	if fetcher == nil {
		panic(ErrNilFetcher)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = "query[" + uref.NameOf[T]() + "]"
	}

	base, cancel := context.WithCancel(context.Background())
	return &Query[T]{
		fetch:  fetcher,
		cfg:    config.Sanitize(o.cfg),
		norm:   o.normalizer,
		log:    o.logger.WithFields(logrus.Fields{"projection": apis.KindQuery, "name": o.name}),
		rec:    o.recorder,
		name:   o.name,
		now:    o.now,
		stream: stream.New(state.Pending[T]()),
		base:   base,
		cancel: cancel,
	}
}

// Name returns the diagnostic name of the query.
func (q *Query[T]) Name() string {
	return q.name
}

// Current returns the last published state. It is Pending before the first
// fetch settles.
func (q *Query[T]) Current() state.State[T] {
	return q.stream.Current()
}

// Subscribe returns the state stream of the query.
//
// The first value is Success if the cache holds a fresh payload, in which
// case the fetcher is not invoked. Otherwise it is Pending: a cached query
// joins a fetch already in flight for the current epoch, and in every other
// case a new fetch starts, superseding any older one.
//
// Values are delivered in order without drops. The channel is closed when
// ctx is done or the query is closed.
func (q *Query[T]) Subscribe(ctx context.Context) <-chan state.State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		if _, hit := q.lookupLocked(); !hit {
			q.joinOrStartLocked(false)
		}
	}
	// Registered under q.mu so no publish can slip between the decision above
	// and the subscriber's first value.
	return q.stream.Subscribe(ctx)
}

// Fetch returns the settled state, blocking until the fetch the caller joined
// or started completes. A fetch superseded while waiting is followed to the
// one that replaced it. If ctx is done first, Fetch returns the current state.
func (q *Query[T]) Fetch(ctx context.Context) state.State[T] {
	for follow := false; ; follow = true {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return q.stream.Current()
		}
		if payload, hit := q.lookupLocked(); hit {
			q.mu.Unlock()
			return state.Succeed(payload)
		}
		// After the first pass, follow the flight that superseded ours
		// instead of superseding it in turn.
		f := q.joinOrStartLocked(follow)
		ch := q.group.DoChan(f.key, f.run)
		q.mu.Unlock()

		select {
		case res := <-ch:
			out := res.Val.(outcome[T])
			if out.applied {
				return out.st
			}
		case <-ctx.Done():
			return q.stream.Current()
		}
	}
}

// Invalidate drops the cached payload and starts a new cache epoch. An
// in-flight fetch is superseded. If the query has active subscribers a new
// fetch starts immediately; otherwise the next Subscribe or Fetch starts it.
func (q *Query[T]) Invalidate() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	q.slot.Clear()
	q.epoch++
	q.seq++
	q.supersedeLocked()
	q.rec.CacheEvent(apis.CacheInvalidate)
	q.log.WithField("epoch", q.epoch).Debug("cache invalidated")

	if q.stream.Len() > 0 {
		q.startLocked()
	}
}

// Close cancels in-flight work and closes every subscriber channel. A closed
// query keeps its last state and ignores Invalidate.
func (q *Query[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.seq++
	q.flight = nil
	q.mu.Unlock()

	q.cancel()
	q.stream.Close()
}

// lookupLocked serves a cache hit and makes sure Current reflects it.
func (q *Query[T]) lookupLocked() (T, bool) {
	cs := q.cfg.CacheStrategy
	payload, hit := q.slot.Lookup(q.epoch, cs, q.cfg.StaleTime, q.now())
	if !cs.Enabled() {
		return payload, false
	}
	if !hit {
		if q.flight == nil {
			q.rec.CacheEvent(apis.CacheMiss)
		}
		return payload, false
	}
	q.rec.CacheEvent(apis.CacheHit)
	if !q.stream.Current().IsSuccess() {
		q.stream.Publish(state.Succeed(payload))
	}
	return payload, true
}

// joinOrStartLocked returns the flight a caller should wait on. Cached
// queries share the flight of the current epoch; uncached queries start a new
// one unless follow is set.
func (q *Query[T]) joinOrStartLocked(follow bool) *flight {
	if q.flight != nil && q.flight.epoch == q.epoch && (follow || q.cfg.CacheStrategy.Enabled()) {
		if q.cfg.CacheStrategy.Enabled() {
			q.rec.CacheEvent(apis.CacheJoin)
		}
		return q.flight
	}
	if q.flight != nil {
		q.seq++
		q.supersedeLocked()
	}
	return q.startLocked()
}

// supersedeLocked forgets the current flight, cancelling it if configured.
// The caller must have advanced q.seq already.
func (q *Query[T]) supersedeLocked() {
	if q.flight == nil {
		return
	}
	if q.cfg.CancelSuperseded {
		q.flight.cancel()
	}
	q.log.WithField("seq", q.flight.seq).Debug("fetch superseded")
	q.flight = nil
}

// startLocked publishes Pending and launches a new flight.
func (q *Query[T]) startLocked() *flight {
	q.seq++
	ctx, cancel := context.WithCancel(q.base)
	f := &flight{
		seq:    q.seq,
		epoch:  q.epoch,
		key:    strconv.FormatUint(q.seq, 10),
		cancel: cancel,
	}
	f.run = q.runner(ctx, f)
	q.flight = f

	if !q.stream.Current().IsPending() {
		q.stream.Publish(state.Pending[T]())
	}
	// The key stays registered until settle returned, so every caller that
	// still sees f as q.flight joins this execution. The result channel is
	// buffered; nobody has to read it.
	q.group.DoChan(f.key, f.run)
	return f
}

func (q *Query[T]) runner(ctx context.Context, f *flight) func() (any, error) {
	return func() (any, error) {
		defer f.cancel()
		start := time.Now()
		q.rec.FetchStarted(apis.KindQuery)

		payload, err := q.call(ctx)

		outcomeLabel := apis.OutcomeSuccess
		if err != nil {
			outcomeLabel = apis.OutcomeError
		}
		q.rec.FetchFinished(apis.KindQuery, outcomeLabel, time.Since(start))
		return q.settle(f, payload, err), nil
	}
}

// call invokes the fetcher, converting a panic into an error.
func (q *Query[T]) call(ctx context.Context) (payload T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = normalize.Panic(r)
			q.log.WithField("panic", r).Error("fetcher panicked")
		}
	}()
	return q.fetch(ctx)
}

// settle publishes the result of f unless a newer flight or an invalidation
// superseded it, and caches successful payloads of the current epoch.
func (q *Query[T]) settle(f *flight, payload T, err error) outcome[T] {
	var st state.State[T]
	if err != nil {
		st = state.Fail[T](q.norm.Normalize(err, q.cfg))
	} else {
		st = state.Succeed(payload)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if f.seq != q.seq || q.closed {
		q.rec.ResultDiscarded(apis.KindQuery)
		q.log.WithField("seq", f.seq).Debug("superseded result discarded")
		return outcome[T]{st: st}
	}

	q.flight = nil
	if err != nil {
		q.log.WithError(err).Debug("fetch failed")
	} else if q.cfg.CacheStrategy.Enabled() && f.epoch == q.epoch {
		q.slot.Store(f.epoch, payload, q.now())
	}
	q.stream.Publish(st)
	return outcome[T]{st: st, applied: true}
}
