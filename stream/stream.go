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

// Package stream fans a sequence of values out to any number of subscribers.
//
// Every subscriber first receives the value current at subscription time and
// then every later published value, in publish order and without drops. Each
// subscriber is served by its own goroutine and queue, so a slow consumer
// delays only itself.
package stream

import (
	"context"
	"sync"
)

// Stream holds a current value and the set of its subscribers.
// The zero value is not usable; construct with New.
type Stream[T any] struct {
	mu     sync.Mutex
	cur    T
	subs   map[*subscriber[T]]struct{}
	closed bool
}

// New constructs a Stream whose current value is initial.
func New[T any](initial T) *Stream[T] {
	return &Stream[T]{cur: initial, subs: make(map[*subscriber[T]]struct{})}
}

// subscriber buffers values between Publish and the consumer.
type subscriber[T any] struct {
	mu    sync.Mutex
	queue []T
	// done is closed when the stream is closed.
	done bool
	// notify has capacity 1; a pending signal means the queue changed.
	notify chan struct{}
}

func (sub *subscriber[T]) push(v T) {
	sub.mu.Lock()
	sub.queue = append(sub.queue, v)
	sub.mu.Unlock()
	sub.signal()
}

func (sub *subscriber[T]) finish() {
	sub.mu.Lock()
	sub.done = true
	sub.mu.Unlock()
	sub.signal()
}

func (sub *subscriber[T]) signal() {
	select {
	case sub.notify <- struct{}{}:
	default:
	}
}

// take drains the queue and reports whether the stream was closed.
func (sub *subscriber[T]) take() ([]T, bool) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	q := sub.queue
	sub.queue = nil
	return q, sub.done
}

// Publish makes v the current value and queues it for every subscriber.
// Publishing to a closed stream is a no-op.
func (s *Stream[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cur = v
	for sub := range s.subs {
		sub.push(v)
	}
}

// Current returns the last published value.
func (s *Stream[T]) Current() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Subscribe returns a channel that yields the current value followed by every
// later published value. The channel is closed once ctx is done, or once the
// stream is closed and all queued values were delivered.
//
// A consumer that stops reading must cancel ctx to release the subscription.
func (s *Stream[T]) Subscribe(ctx context.Context) <-chan T {
	out := make(chan T)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(out)
		return out
	}
	sub := &subscriber[T]{queue: []T{s.cur}, notify: make(chan struct{}, 1)}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	go s.pump(ctx, sub, out)
	return out
}

func (s *Stream[T]) pump(ctx context.Context, sub *subscriber[T], out chan<- T) {
	defer close(out)
	defer s.remove(sub)

	for {
		values, done := sub.take()
		for _, v := range values {
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
		if done {
			// Values pushed before finish were returned by this take.
			return
		}
		if len(values) > 0 {
			continue
		}
		select {
		case <-sub.notify:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Stream[T]) remove(sub *subscriber[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, sub)
}

// Len returns the number of active subscribers.
func (s *Stream[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close ends every subscription after its queued values are delivered.
// Later Subscribe calls return an already closed channel. Close is
// idempotent.
func (s *Stream[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for sub := range s.subs {
		sub.finish()
	}
}

// Closed reports whether Close was called.
func (s *Stream[T]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
