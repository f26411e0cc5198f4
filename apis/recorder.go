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

import "time"

// Projection kinds used as metric labels and log fields.
const (
	KindQuery   = "query"
	KindCommand = "command"
)

// Fetch outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Cache events reported by queries.
const (
	CacheHit        = "hit"
	CacheMiss       = "miss"
	CacheJoin       = "join"
	CacheInvalidate = "invalidate"
)

// Recorder receives lifecycle signals from projections. It keeps projections
// independent of any metrics backend. Implementations must be safe for
// concurrent use and cheap; they are called on the fetch path.
type Recorder interface {
	// FetchStarted is called when a fetcher is invoked.
	FetchStarted(kind string)
	// FetchFinished is called when a fetcher returns, superseded or not.
	FetchFinished(kind, outcome string, d time.Duration)
	// CacheEvent reports a query cache hit, miss, join or invalidation.
	CacheEvent(event string)
	// ResultDiscarded is called when a superseded result is dropped.
	ResultDiscarded(kind string)
}
