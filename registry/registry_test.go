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
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/registry"
)

type fake struct {
	name        string
	invalidated atomic.Int32
	closed      atomic.Int32
}

func newFake(name string) *fake { return &fake{name: name} }

func (f *fake) Name() string { return f.name }
func (f *fake) Invalidate() { f.invalidated.Add(1) }
func (f *fake) Close()      { f.closed.Add(1) }

func TestRegister(t *testing.T) {
	reg := registry.New(0)
	a, b := newFake("a"), newFake("b")

	require.NoError(t, reg.Register("users", a))
	require.NoError(t, reg.Register("users", a), "same instance is idempotent")
	assert.ErrorIs(t, reg.Register("users", b), registry.ErrConflictingRegistration)
	assert.ErrorIs(t, reg.Register("", a), registry.ErrEmptyKey)
	assert.ErrorIs(t, reg.Register("x", nil), registry.ErrNilShared)

	got, ok := reg.Lookup("users")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, 1, reg.Count())

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestLoadOrRegister(t *testing.T) {
	reg := registry.New(4)
	calls := 0
	create := func() apis.Shared {
		calls++
		return newFake("q")
	}

	first, err := reg.LoadOrRegister("k", create)
	require.NoError(t, err)
	second, err := reg.LoadOrRegister("k", create)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	_, err = reg.LoadOrRegister("", create)
	assert.ErrorIs(t, err, registry.ErrEmptyKey)
	_, err = reg.LoadOrRegister("nil", func() apis.Shared { return nil })
	assert.ErrorIs(t, err, registry.ErrNilShared)
	assert.Equal(t, 1, reg.Count())
}

func TestInvalidate(t *testing.T) {
	reg := registry.New(8)
	users, user1, items := newFake("users"), newFake("user1"), newFake("items")
	require.NoError(t, reg.Register("/users", users))
	require.NoError(t, reg.Register("/users/1", user1))
	require.NoError(t, reg.Register("/items", items))

	assert.True(t, reg.Invalidate("/items"))
	assert.False(t, reg.Invalidate("/nope"))
	assert.EqualValues(t, 1, items.invalidated.Load())

	assert.Equal(t, 2, reg.InvalidatePrefix("/users"))
	assert.EqualValues(t, 1, users.invalidated.Load())
	assert.EqualValues(t, 1, user1.invalidated.Load())
	assert.EqualValues(t, 1, items.invalidated.Load())

	assert.Equal(t, 3, reg.InvalidatePrefix(""))
}

func TestEvictionClosesLeastRecentlyUsed(t *testing.T) {
	reg := registry.New(2)
	a, b, c := newFake("a"), newFake("b"), newFake("c")
	require.NoError(t, reg.Register("a", a))
	require.NoError(t, reg.Register("b", b))

	_, ok := reg.Lookup("a") // a becomes most recently used
	require.True(t, ok)
	require.NoError(t, reg.Register("c", c))

	assert.Equal(t, 2, reg.Count())
	_, ok = reg.Lookup("b")
	assert.False(t, ok)
	assert.EqualValues(t, 1, b.closed.Load())
	assert.EqualValues(t, 0, a.closed.Load())
}

func TestRemoveAndReset(t *testing.T) {
	reg := registry.New(8)
	a, b := newFake("a"), newFake("b")
	require.NoError(t, reg.Register("a", a))
	require.NoError(t, reg.Register("b", b))

	assert.True(t, reg.Remove("a"))
	assert.False(t, reg.Remove("a"))
	assert.EqualValues(t, 1, a.closed.Load())

	reg.Reset()
	assert.Equal(t, 0, reg.Count())
	assert.EqualValues(t, 1, b.closed.Load())
}

func TestEntries(t *testing.T) {
	reg := registry.New(8)
	require.NoError(t, reg.Register("k1", newFake("query[users.User]")))
	require.NoError(t, reg.Register("k2", newFake("query[items.Item]")))

	entries := reg.Entries()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	assert.Equal(t, []apis.Entry{
		{Key: "k1", Name: "query[users.User]"},
		{Key: "k2", Name: "query[items.Item]"},
	}, entries)
}
