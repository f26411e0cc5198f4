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

package apis

import "dirpx.dev/rsx/state"

// Normalizer turns any fetch error into the single Failure shape.
// Implementations must never panic and never return an empty message.
type Normalizer interface {
	Normalize(err error, cfg Config) state.Failure
}

// Strategy is one pluggable normalization step. A Normalizer chains several
// strategies in order (e.g. Network -> Problem -> BodyParse -> Status).
type Strategy interface {
	// TryNormalize returns (failure, true) if it recognizes err; otherwise
	// (Failure{}, false) to fall through to the next strategy.
	TryNormalize(err error, cfg Config) (f state.Failure, handled bool)
}
