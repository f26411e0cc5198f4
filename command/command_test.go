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

package command_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/rsx/command"
	"dirpx.dev/rsx/state"
)

type result struct {
	v   string
	err error
}

// stub is a fetcher whose call for vars blocks until release(vars, ...).
type stub struct {
	calls     atomic.Int32
	cancelled atomic.Int32

	mu    sync.Mutex
	gates map[string]chan result
}

func newStub() *stub {
	return &stub{gates: make(map[string]chan result)}
}

func (s *stub) gate(vars string) chan result {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gates[vars]
	if !ok {
		g = make(chan result, 1)
		s.gates[vars] = g
	}
	return g
}

func (s *stub) fetch(ctx context.Context, vars string) (string, error) {
	s.calls.Add(1)
	select {
	case r := <-s.gate(vars):
		return r.v, r.err
	case <-ctx.Done():
		s.cancelled.Add(1)
		return "", ctx.Err()
	}
}

func (s *stub) release(vars, v string, err error) {
	s.gate(vars) <- result{v: v, err: err}
}

type counter struct{ n atomic.Int32 }

func (c *counter) Invalidate() { c.n.Add(1) }

type recorder struct{ discarded atomic.Int32 }

func (r *recorder) FetchStarted(string)                          {}
func (r *recorder) FetchFinished(string, string, time.Duration) {}
func (r *recorder) CacheEvent(string)                            {}
func (r *recorder) ResultDiscarded(string)                       { r.discarded.Add(1) }

func next[V, T any](t *testing.T, ch <-chan command.State[V, T]) command.State[V, T] {
	t.Helper()
	select {
	case st, ok := <-ch:
		require.True(t, ok, "channel closed")
		return st
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for state")
	}
	panic("unreachable")
}

func TestNew_NilFetcherPanics(t *testing.T) {
	assert.PanicsWithValue(t, command.ErrNilFetcher, func() {
		command.New[string, string](nil)
	})
}

func TestCommand_InitialStateIsIdle(t *testing.T) {
	c := command.New(newStub().fetch)
	defer c.Close()

	st := c.Current()
	assert.True(t, st.IsIdle())
	assert.Empty(t, st.Invocation)
	assert.Equal(t, "command[string,string]", c.Name())
}

func TestCommand_RunPendingThenSuccess(t *testing.T) {
	s := newStub()
	c := command.New(s.fetch)
	defer c.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := c.Subscribe(ctx)
	assert.True(t, next(t, ch).IsIdle())

	id := c.Run("v1")
	require.NotEmpty(t, id)

	st := next(t, ch)
	assert.True(t, st.IsPending())
	assert.Equal(t, "v1", st.Variables)
	assert.Equal(t, id, st.Invocation)

	s.release("v1", "ok", nil)
	st = next(t, ch)
	p, ok := st.Payload()
	require.True(t, ok)
	assert.Equal(t, "ok", p)
	assert.Equal(t, "v1", st.Variables)
	assert.Equal(t, id, st.Invocation)
}

func TestCommand_RunFailure(t *testing.T) {
	s := newStub()
	c := command.New(s.fetch)
	defer c.Close()

	s.release("v", "", state.Failure{Message: "quota exceeded", StatusCode: 429})
	st := c.Execute(context.Background(), "v")

	f, ok := st.Failure()
	require.True(t, ok)
	assert.Equal(t, state.Failure{Message: "quota exceeded", StatusCode: 429}, f)
	assert.Equal(t, "v", st.Variables)
}

func TestCommand_LatestInvocationWins(t *testing.T) {
	for _, order := range [][2]string{{"v1", "v2"}, {"v2", "v1"}} {
		t.Run(order[0]+"-first", func(t *testing.T) {
			s := newStub()
			rec := &recorder{}
			c := command.New(s.fetch, command.WithRecorder(rec))
			defer c.Close()

			c.Run("v1")
			id2 := c.Run("v2")
			require.Eventually(t, func() bool { return s.calls.Load() == 2 }, 2*time.Second, time.Millisecond)

			s.release(order[0], "r-"+order[0], nil)
			s.release(order[1], "r-"+order[1], nil)
			require.Eventually(t, func() bool {
				return c.Current().IsSuccess() && rec.discarded.Load() == 1
			}, 2*time.Second, time.Millisecond)

			st := c.Current()
			p, _ := st.Payload()
			assert.Equal(t, "r-v2", p)
			assert.Equal(t, "v2", st.Variables)
			assert.Equal(t, id2, st.Invocation)
		})
	}
}

func TestCommand_ResetYieldsIdle(t *testing.T) {
	tests := []struct {
		name  string
		prime func(t *testing.T, s *stub, c *command.Command[string, string])
	}{
		{
			name: "pending",
			prime: func(t *testing.T, s *stub, c *command.Command[string, string]) {
				c.Run("v")
				require.True(t, c.Current().IsPending())
			},
		},
		{
			name: "error",
			prime: func(t *testing.T, s *stub, c *command.Command[string, string]) {
				s.release("v", "", errors.New("boom"))
				require.True(t, c.Execute(context.Background(), "v").IsError())
			},
		},
		{
			name: "success",
			prime: func(t *testing.T, s *stub, c *command.Command[string, string]) {
				s.release("v", "ok", nil)
				require.True(t, c.Execute(context.Background(), "v").IsSuccess())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStub()
			c := command.New(s.fetch)
			defer c.Close()

			tt.prime(t, s, c)
			c.Reset()
			assert.True(t, c.Current().IsIdle())
		})
	}
}

func TestCommand_ResetDiscardsInFlightResult(t *testing.T) {
	s := newStub()
	rec := &recorder{}
	c := command.New(s.fetch, command.WithRecorder(rec), command.WithCancelSuperseded(true))
	defer c.Close()

	c.Run("v")
	require.Eventually(t, func() bool { return s.calls.Load() == 1 }, 2*time.Second, time.Millisecond)
	c.Reset()

	s.release("v", "late", nil)
	require.Eventually(t, func() bool { return rec.discarded.Load() == 1 }, 2*time.Second, time.Millisecond)
	assert.True(t, c.Current().IsIdle())
	assert.EqualValues(t, 0, s.cancelled.Load(), "reset does not cancel")
}

func TestCommand_CancelSuperseded(t *testing.T) {
	s := newStub()
	c := command.New(s.fetch, command.WithCancelSuperseded(true))
	defer c.Close()

	c.Run("v1")
	require.Eventually(t, func() bool { return s.calls.Load() == 1 }, 2*time.Second, time.Millisecond)
	s.release("v2", "ok", nil)
	st := c.Execute(context.Background(), "v2")

	assert.True(t, st.IsSuccess())
	require.Eventually(t, func() bool { return s.cancelled.Load() == 1 }, 2*time.Second, time.Millisecond)
}

func TestCommand_ExecuteSupersededReturnsCurrent(t *testing.T) {
	s := newStub()
	c := command.New(s.fetch)
	defer c.Close()

	done := make(chan command.State[string, string])
	go func() { done <- c.Execute(context.Background(), "v1") }()
	require.Eventually(t, func() bool { return s.calls.Load() == 1 }, 2*time.Second, time.Millisecond)

	c.Reset()
	s.release("v1", "late", nil)
	assert.True(t, (<-done).IsIdle())
}

func TestCommand_ExecuteContextBoundsWait(t *testing.T) {
	c := command.New(newStub().fetch)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	st := c.Execute(ctx, "v")
	assert.True(t, st.IsPending())
	assert.Equal(t, "v", st.Variables)
}

func TestCommand_InvalidatesOnSuccessOnly(t *testing.T) {
	s := newStub()
	target := &counter{}
	c := command.New(s.fetch, command.WithInvalidates(target, nil))
	defer c.Close()

	s.release("bad", "", errors.New("boom"))
	c.Execute(context.Background(), "bad")
	assert.EqualValues(t, 0, target.n.Load())

	s.release("good", "ok", nil)
	c.Execute(context.Background(), "good")
	assert.EqualValues(t, 1, target.n.Load())
}

func TestCommand_FetcherPanicBecomesError(t *testing.T) {
	c := command.New(func(context.Context, int) (int, error) { panic(errors.New("nil map")) })
	defer c.Close()

	f, ok := c.Execute(context.Background(), 1).Failure()
	require.True(t, ok)
	assert.Equal(t, "panic: nil map", f.Message)
}

func TestCommand_Close(t *testing.T) {
	s := newStub()
	c := command.New(s.fetch)
	ch := c.Subscribe(context.Background())

	c.Run("v")
	c.Close()
	c.Close()
	for range ch {
	}
	require.Eventually(t, func() bool { return s.cancelled.Load() == 1 }, 2*time.Second, time.Millisecond)

	assert.Empty(t, c.Run("w"))
	c.Reset()
	assert.True(t, c.Current().IsPending())
}

func TestState_MarshalJSON(t *testing.T) {
	s := newStub()
	c := command.New(s.fetch)
	defer c.Close()

	data, err := json.Marshal(c.Current())
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"idle"}`, string(data))

	s.release("v", "ok", nil)
	st := c.Execute(context.Background(), "v")
	data, err = json.Marshal(st)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"success","invocation":"`+st.Invocation+`","variables":"v","payload":"ok"}`, string(data))
}
