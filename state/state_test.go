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

package state_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/rsx/state"
)

func TestZeroValueIsIdle(t *testing.T) {
	var s state.State[int]
	assert.True(t, s.IsIdle())
	assert.Equal(t, state.KindIdle, s.Kind())
}

func TestExactlyOneTagActive(t *testing.T) {
	cases := []struct {
		name string
		s    state.State[string]
		kind state.Kind
	}{
		{"idle", state.Idle[string](), state.KindIdle},
		{"pending", state.Pending[string](), state.KindPending},
		{"error", state.Fail[string](state.Failure{Message: "boom"}), state.KindError},
		{"success", state.Succeed("ok"), state.KindSuccess},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flags := []bool{tc.s.IsIdle(), tc.s.IsPending(), tc.s.IsError(), tc.s.IsSuccess()}
			active := 0
			for _, f := range flags {
				if f {
					active++
				}
			}
			assert.Equal(t, 1, active)
			assert.Equal(t, tc.kind, tc.s.Kind())

			_, hasPayload := tc.s.Payload()
			_, hasFailure := tc.s.Failure()
			assert.Equal(t, tc.kind == state.KindSuccess, hasPayload)
			assert.Equal(t, tc.kind == state.KindError, hasFailure)
		})
	}
}

func TestSettled(t *testing.T) {
	assert.False(t, state.Idle[int]().Settled())
	assert.False(t, state.Pending[int]().Settled())
	assert.True(t, state.Fail[int](state.Failure{Message: "x"}).Settled())
	assert.True(t, state.Succeed(1).Settled())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "idle", state.KindIdle.String())
	assert.Equal(t, "pending", state.KindPending.String())
	assert.Equal(t, "error", state.KindError.String())
	assert.Equal(t, "success", state.KindSuccess.String())
	assert.Equal(t, "unknown(9)", state.Kind(9).String())
}

func TestFailureError(t *testing.T) {
	f := state.Failure{Message: "A network error occurred"}
	assert.False(t, f.HasStatus())
	assert.Equal(t, "A network error occurred", f.Error())

	f = state.Failure{Message: "Backend returned 404: Not Found", StatusCode: 404}
	assert.True(t, f.HasStatus())
	assert.Equal(t, "Backend returned 404: Not Found (status 404)", f.Error())
}

func TestMap(t *testing.T) {
	length := func(s string) int { return len(s) }

	got := state.Map(state.Succeed("four"), length)
	p, ok := got.Payload()
	require.True(t, ok)
	assert.Equal(t, 4, p)

	failed := state.Map(state.Fail[string](state.Failure{Message: "nope", StatusCode: 500}), length)
	f, ok := failed.Failure()
	require.True(t, ok)
	assert.Equal(t, 500, f.StatusCode)

	assert.True(t, state.Map(state.Pending[string](), length).IsPending())
	assert.True(t, state.Map(state.Idle[string](), length).IsIdle())
}

func TestMarshalJSON(t *testing.T) {
	type item struct {
		ID string `json:"id"`
	}

	b, err := json.Marshal(state.Succeed(item{ID: "a1"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"success","payload":{"id":"a1"}}`, string(b))

	b, err = json.Marshal(state.Fail[item](state.Failure{Message: "Bad request: username required", StatusCode: 400}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"error","message":"Bad request: username required","statusCode":400}`, string(b))

	b, err = json.Marshal(state.Pending[item]())
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"pending"}`, string(b))
}
