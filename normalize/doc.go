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

// Package normalize turns fetch errors into the single state.Failure shape
// consumers render.
//
// # Overview
//
// A Normalizer is a chain of apis.Strategy values tried in order; the first
// strategy that recognizes the error produces the Failure. Errors no
// strategy recognizes keep their own text, and a Failure never has an empty
// message.
//
// The default chain recognizes, in order:
//
//	state.Failure          passed through unchanged
//	network failures       cfg.NetworkErrorMessage, no status code
//	RFC 9457 problem body  "<title>: <detail>" plus one line per "errors" entry
//	undecodable body       "Backend returned <status>: invalid response body"
//	other HTTP errors      "Backend returned <status>: <status text>"
//
// # Extensibility
//
// Callers can prepend their own strategies, e.g. to map a domain error:
//
//	n := normalize.New(myStrategy, strategy.NewNetworkStrategy(), strategy.NewStatusStrategy())
package normalize
