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

package builder_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/rsx/builder"
	"dirpx.dev/rsx/config"
)

type shared struct {
	name   string
	closed int
}

func (s *shared) Name() string { return s.name }
func (s *shared) Invalidate()  {}
func (s *shared) Close()       { s.closed++ }

// TestBuildRegistry_Basic asserts that BuildRegistry returns a working,
// empty registry when there is nothing to migrate.
func TestBuildRegistry_Basic(t *testing.T) {
	reg := builder.New().BuildRegistry(config.DefaultConfig(), nil)
	require.NotNil(t, reg)
	assert.Equal(t, 0, reg.Count())

	require.NoError(t, reg.Register("k", &shared{name: "k"}))
	assert.Equal(t, 1, reg.Count())
}

// TestBuildRegistry_MigratesEntries checks that projections move to the new
// registry without being closed, and that the new size is enforced.
func TestBuildRegistry_MigratesEntries(t *testing.T) {
	b := builder.New()
	prev := b.BuildRegistry(config.NewConfig(config.WithRegistrySize(8)), nil)
	a, c := &shared{name: "a"}, &shared{name: "c"}
	require.NoError(t, prev.Register("a", a))
	require.NoError(t, prev.Register("c", c))

	next := b.BuildRegistry(config.NewConfig(config.WithRegistrySize(8)), prev)
	assert.Equal(t, 2, next.Count())
	assert.Equal(t, 0, prev.Count(), "previous registry is emptied")
	assert.Zero(t, a.closed)
	assert.Zero(t, c.closed)

	got, ok := next.Lookup("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	small := b.BuildRegistry(config.NewConfig(config.WithRegistrySize(1)), next)
	assert.Equal(t, 1, small.Count())
	assert.Equal(t, 1, a.closed+c.closed, "overflow is evicted and closed")
}

// TestBuildNormalizer asserts the default chain is produced.
func TestBuildNormalizer(t *testing.T) {
	n := builder.New().BuildNormalizer(config.DefaultConfig(), nil)
	require.NotNil(t, n)
	assert.Equal(t, "x", n.Normalize(errors.New("x"), config.DefaultConfig()).Message)
}
