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

package command

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/config"
	"dirpx.dev/rsx/normalize"
	"dirpx.dev/rsx/state"
	"dirpx.dev/rsx/stream"
	uref "dirpx.dev/rsx/utils/reflect"
)

// ErrNilFetcher is the panic value of New when the fetcher is nil.
var ErrNilFetcher = errors.New("rsx(command): nil fetcher")

// Fetcher performs the underlying write with the caller's variables. It must
// honor ctx.
type Fetcher[V, T any] func(ctx context.Context, vars V) (T, error)

// State is a request state labelled with the invocation that produced it.
// Idle carries no label.
type State[V, T any] struct {
	state.State[T]
	// Variables are the arguments of the invocation.
	Variables V
	// Invocation is the id returned by Run.
	Invocation string
}

// MarshalJSON adds "invocation" and "variables" to the state's own encoding.
func (s State[V, T]) MarshalJSON() ([]byte, error) {
	type wire struct {
		State      string `json:"state"`
		Invocation string `json:"invocation,omitempty"`
		Variables  *V     `json:"variables,omitempty"`
		Payload    *T     `json:"payload,omitempty"`
		Message    string `json:"message,omitempty"`
		StatusCode int    `json:"statusCode,omitempty"`
	}
	w := wire{State: s.Kind().String(), Invocation: s.Invocation}
	if !s.IsIdle() {
		v := s.Variables
		w.Variables = &v
	}
	if p, ok := s.Payload(); ok {
		w.Payload = &p
	}
	if f, ok := s.Failure(); ok {
		w.Message = f.Message
		w.StatusCode = f.StatusCode
	}
	return json.Marshal(w)
}

// Command projects an on-demand write into an Idle | Pending | Error |
// Success stream. The most recently started invocation owns the state:
// results of superseded invocations are discarded.
//
// All methods are safe for concurrent use.
type Command[V, T any] struct {
	fetch       Fetcher[V, T]
	cfg         apis.Config
	norm        apis.Normalizer
	log         *logrus.Entry
	rec         apis.Recorder
	name        string
	invalidates []apis.Invalidator

	stream *stream.Stream[State[V, T]]

	// base is the parent of every invocation context; cancelled by Close.
	base   context.Context
	cancel context.CancelFunc

	mu sync.Mutex
	// seq advances on Run and Reset; only the invocation holding the
	// current value may publish.
	seq     uint64
	current *invocation[V, T]
	closed  bool
}

type invocation[V, T any] struct {
	seq    uint64
	id     string
	vars   V
	cancel context.CancelFunc
	// done is closed once result is set.
	done    chan struct{}
	result  State[V, T]
	applied bool
}

// New constructs a Command around fetcher. It panics with ErrNilFetcher if
// fetcher is nil. The initial state is Idle.
func New[V, T any](fetcher Fetcher[V, T], opts ...Option) *Command[V, T] {
	if fetcher == nil {
		panic(ErrNilFetcher)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = "command[" + uref.NameOf[V]() + "," + uref.NameOf[T]() + "]"
	}

	base, cancel := context.WithCancel(context.Background())
	return &Command[V, T]{
		fetch:       fetcher,
		cfg:         config.Sanitize(o.cfg),
		norm:        o.normalizer,
		log:         o.logger.WithFields(logrus.Fields{"projection": apis.KindCommand, "name": o.name}),
		rec:         o.recorder,
		name:        o.name,
		invalidates: o.invalidates,
		stream:      stream.New(State[V, T]{State: state.Idle[T]()}),
		base:        base,
		cancel:      cancel,
	}
}

// Name returns the diagnostic name of the command.
func (c *Command[V, T]) Name() string {
	return c.name
}

// Current returns the last published state.
func (c *Command[V, T]) Current() State[V, T] {
	return c.stream.Current()
}

// Subscribe returns the state stream of the command, starting with the
// current state. Values are delivered in order without drops. The channel is
// closed when ctx is done or the command is closed.
func (c *Command[V, T]) Subscribe(ctx context.Context) <-chan State[V, T] {
	return c.stream.Subscribe(ctx)
}

// Run publishes Pending for vars and invokes the fetcher in the background.
// It supersedes any invocation still in flight. Run returns the invocation
// id carried by the resulting states, or "" if the command is closed.
func (c *Command[V, T]) Run(vars V) string {
	inv := c.start(vars)
	if inv == nil {
		return ""
	}
	return inv.id
}

// Execute is the blocking form of Run. It returns the settled state of this
// invocation, or the current state if the invocation was superseded or ctx
// is done first. ctx bounds only the wait.
func (c *Command[V, T]) Execute(ctx context.Context, vars V) State[V, T] {
	inv := c.start(vars)
	if inv == nil {
		return c.stream.Current()
	}
	select {
	case <-inv.done:
		if inv.applied {
			return inv.result
		}
	case <-ctx.Done():
	}
	return c.stream.Current()
}

// Reset forces the state back to Idle. An invocation in flight keeps running
// but its result is discarded.
func (c *Command[V, T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.seq++
	c.current = nil
	c.stream.Publish(State[V, T]{State: state.Idle[T]()})
	c.log.Debug("reset")
}

// Close cancels in-flight work and closes every subscriber channel.
func (c *Command[V, T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.seq++
	c.current = nil
	c.mu.Unlock()

	c.cancel()
	c.stream.Close()
}

func (c *Command[V, T]) start(vars V) *invocation[V, T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}

	if c.current != nil && c.cfg.CancelSuperseded {
		c.current.cancel()
	}
	c.seq++
	ctx, cancel := context.WithCancel(c.base)
	inv := &invocation[V, T]{
		seq:    c.seq,
		id:     uuid.NewString(),
		vars:   vars,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.current = inv
	c.stream.Publish(State[V, T]{State: state.Pending[T](), Variables: vars, Invocation: inv.id})
	c.log.WithField("invocation", inv.id).Debug("invocation started")

	go c.exec(ctx, inv)
	return inv
}

func (c *Command[V, T]) exec(ctx context.Context, inv *invocation[V, T]) {
	defer inv.cancel()
	start := time.Now()
	c.rec.FetchStarted(apis.KindCommand)

	payload, err := c.call(ctx, inv)

	outcome := apis.OutcomeSuccess
	if err != nil {
		outcome = apis.OutcomeError
	}
	c.rec.FetchFinished(apis.KindCommand, outcome, time.Since(start))
	c.settle(inv, payload, err)
}

// call invokes the fetcher, converting a panic into an error.
func (c *Command[V, T]) call(ctx context.Context, inv *invocation[V, T]) (payload T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = normalize.Panic(r)
			c.log.WithFields(logrus.Fields{"invocation": inv.id, "panic": r}).Error("fetcher panicked")
		}
	}()
	return c.fetch(ctx, inv.vars)
}

func (c *Command[V, T]) settle(inv *invocation[V, T], payload T, err error) {
	st := State[V, T]{Variables: inv.vars, Invocation: inv.id}
	if err != nil {
		st.State = state.Fail[T](c.norm.Normalize(err, c.cfg))
	} else {
		st.State = state.Succeed(payload)
	}
	log := c.log.WithField("invocation", inv.id)

	c.mu.Lock()
	applied := inv.seq == c.seq && !c.closed
	if applied {
		c.current = nil
		c.stream.Publish(st)
	}
	c.mu.Unlock()

	// Invalidations run before Execute returns, so its caller reads fresh
	// data from the invalidated queries.
	switch {
	case !applied:
		c.rec.ResultDiscarded(apis.KindCommand)
		log.Debug("superseded result discarded")
	case err != nil:
		log.WithError(err).Debug("invocation failed")
	default:
		for _, t := range c.invalidates {
			t.Invalidate()
		}
	}

	inv.result, inv.applied = st, applied
	close(inv.done)
}
