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

package strategy

import (
	"fmt"
	"strings"
)

// Strategy controls how a query retains its last successful payload.
//
// # Values
//
//   - None: no retention. Every subscription invokes the fetcher and
//     concurrent subscriptions are not de-duplicated.
//   - Shared: the payload is kept until the query is invalidated, and
//     concurrent subscribers share one in-flight fetch per cache epoch.
//   - TTL: like Shared, but a payload older than the configured stale
//     time is treated as a miss and refetched on the next subscription.
//
// # Contract
//
//   - Values are plain integers and safe to share across goroutines.
//   - Adding values is allowed; existing values MUST NOT change meaning.
//   - The stale time itself is configured separately (apis.Config.StaleTime).
type Strategy int

const (
	// None disables caching for the query.
	None Strategy = iota
	// Shared caches until Invalidate is called.
	Shared
	// TTL caches until Invalidate is called or the payload goes stale.
	TTL
)

// Enabled reports whether the strategy retains payloads at all.
func (cs Strategy) Enabled() bool {
	return cs == Shared || cs == TTL
}

// String returns "None", "Shared" or "TTL", or "Unknown(<n>)" for values
// outside the defined range. It never panics.
func (cs Strategy) String() string {
	switch cs {
	case None:
		return "None"
	case Shared:
		return "Shared"
	case TTL:
		return "TTL"
	default:
		return fmt.Sprintf("Unknown(%d)", cs)
	}
}

// Parse parses a textual representation of a Strategy.
//
// Matching is case-insensitive and surrounding whitespace is ignored. "none",
// "shared" and "ttl" are accepted; so are "off"/"false" for None and
// "on"/"true" for Shared, which lets boolean-style config keep working. Any
// other input returns None and a non-nil error.
//
// Example:
//
//	strategy, err := Parse("shared")
//	if err != nil {
//	    // handle invalid configuration
//	}
func Parse(s string) (Strategy, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return None, fmt.Errorf("cache: empty strategy")
	}

	switch strings.ToUpper(trimmed) {
	case "NONE", "OFF", "FALSE":
		return None, nil
	case "SHARED", "ON", "TRUE":
		return Shared, nil
	case "TTL":
		return TTL, nil
	default:
		return None, fmt.Errorf("cache: unknown strategy %q", s)
	}
}

// MustParse is like Parse but panics on invalid input. Use it for hard-coded
// values only.
func MustParse(s string) Strategy {
	strategy, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return strategy
}

// MarshalText implements encoding.TextMarshaler. Unknown values are an error
// rather than an "Unknown(...)" token so invalid states are never persisted.
func (cs Strategy) MarshalText() ([]byte, error) {
	switch cs {
	case None, Shared, TTL:
		return []byte(cs.String()), nil
	default:
		return nil, fmt.Errorf("cache: cannot marshal unknown strategy %d", cs)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler with the same rules as
// Parse. On failure *cs is left unchanged.
func (cs *Strategy) UnmarshalText(text []byte) error {
	value, err := Parse(string(text))
	if err != nil {
		return err
	}
	*cs = value
	return nil
}
