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

package registry_test

import (
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/registry"
)

// TestConcurrentLoadOrRegister verifies that concurrent callers of the same
// key all observe one instance and create it once.
func TestConcurrentLoadOrRegister(t *testing.T) {
	reg := registry.New(64)
	var created atomic.Int32

	workers := runtime.GOMAXPROCS(0) * 4
	results := make([]apis.Shared, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			s, err := reg.LoadOrRegister("shared", func() apis.Shared {
				created.Add(1)
				return newFake("shared")
			})
			assert.NoError(t, err)
			results[w] = s
		}(w)
	}
	wg.Wait()

	assert.EqualValues(t, 1, created.Load())
	for _, s := range results {
		assert.Same(t, results[0], s)
	}
}

// TestConcurrentRegisterLookupInvalidate hammers every operation at once;
// it is meant to run under -race.
func TestConcurrentRegisterLookupInvalidate(t *testing.T) {
	reg := registry.New(16)
	fakes := make([]*fake, 32)
	for i := range fakes {
		fakes[i] = newFake("f" + strconv.Itoa(i))
	}

	workers := runtime.GOMAXPROCS(0) * 4
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				k := (w + i) % len(fakes)
				key := "/k/" + strconv.Itoa(k)
				_ = reg.Register(key, fakes[k])
				reg.Lookup(key)
				reg.Invalidate(key)
				if i%100 == 0 {
					reg.InvalidatePrefix("/k/1")
					_ = reg.Entries()
				}
				if i%500 == 0 {
					reg.Remove(key)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, reg.Count(), 16)
	reg.Reset()
	assert.Equal(t, 0, reg.Count())
}
