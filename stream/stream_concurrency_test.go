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

package stream_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"dirpx.dev/rsx/stream"
)

// Many subscribers and one publisher: every subscriber observes a strictly
// increasing suffix ending at the last value.
func TestStream_Concurrency_OrderedFanOut(t *testing.T) {
	const (
		subscribers = 32
		values      = 500
	)
	s := stream.New(0)

	var wg sync.WaitGroup
	results := make([][]int, subscribers)
	ready := make(chan struct{}, subscribers)
	for i := 0; i < subscribers; i++ {
		ch := s.Subscribe(context.Background())
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ready <- struct{}{}
			for v := range ch {
				results[i] = append(results[i], v)
			}
		}(i)
	}
	for i := 0; i < subscribers; i++ {
		<-ready
	}

	for v := 1; v <= values; v++ {
		s.Publish(v)
	}
	s.Close()
	wg.Wait()

	for i, got := range results {
		if !assert.Len(t, got, values+1, "subscriber %d", i) {
			continue
		}
		for j := range got {
			assert.Equal(t, j, got[j], "subscriber %d", i)
		}
	}
}

func TestStream_Concurrency_SubscribeWhilePublishing(t *testing.T) {
	s := stream.New(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last := -1
			for v := range s.Subscribe(ctx) {
				assert.Greater(t, v, last)
				last = v
			}
		}()
	}
	for v := 1; v <= 1000; v++ {
		s.Publish(v)
	}
	s.Close()
	wg.Wait()
}
