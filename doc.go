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

// Package rsx projects HTTP requests into observable state.
//
// A projection turns "call this endpoint" into a value that moves through
// Idle, Pending, Error and Success and can be read, awaited or subscribed
// to. Two kinds exist:
//
//   - Query: a read. Concurrent subscribers share one in-flight fetch,
//     results may be cached per configuration, and Invalidate forces the
//     next read (or the active subscribers) to refetch.
//
//   - Command: a write. Every Run/Execute starts a new invocation and
//     only the most recent one may publish its result. Reset returns the
//     command to Idle without waiting for anything.
//
// The projections themselves live in the query and command packages; the
// client package binds them to an HTTP backend. This package holds the
// process-wide defaults they are created with.
//
// # Design
//
// The core of rsx is a read-mostly global snapshot (state). It holds:
//
//   - Config: base URL, timeouts, cache strategy, stale time, supersede
//     cancellation, registry size and the messages used for failures.
//
//   - Registry: the shared queries, keyed by string. SharedQuery creates
//     or reuses one; Invalidate and InvalidatePrefix reach them by key.
//
//   - Normalizer: turns any fetch error into a state.Failure by trying
//     the strategies of a chain in order (network, problem detail, body
//     parse, status).
//
//   - Builder: constructs Registry and Normalizer for a Config, migrating
//     shared queries from the previous registry.
//
//   - Logger and Recorder: the logrus entry and metrics sink handed to
//     every projection.
//
// The package holds an atomic pointer to the current state. Readers load
// it and never mutate it. Writers build a new state and swap it in, so
// NewQuery and NewCommand never take a lock.
//
// # Pinning
//
// SetRegistry and SetNormalizer pin their layer: SetConfig and SetBuilder
// stop rebuilding it until UnpinRegistry or UnpinNormalizer is called.
// SetAll replaces everything at once and is mainly used by tests.
//
// # Concurrency model
//
// Reads are wait-free. Writes take a short build mutex, assemble a new
// snapshot and publish it ("last write wins"). Projections capture the
// snapshot at creation; reconfiguring does not touch existing ones.
//
// # Usage
//
//	users, err := rsx.SharedQuery("users", transport.GetJSON[[]User](tr, "/users"))
//	for st := range users.Subscribe(ctx) {
//		render(st)
//	}
//
//	create := rsx.NewCommand(transport.SendJSON[User, User](tr, http.MethodPost, transport.Static[User]("/users")),
//		command.WithInvalidates(users))
//	create.Run(User{Name: "ada"})
package rsx
