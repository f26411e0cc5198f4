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

import (
	"time"

	cachestrategy "dirpx.dev/rsx/cache/strategy"
)

// Config carries read-only knobs shared by projections, the HTTP transport
// and the error normalizer. It is passed by value and should be treated as
// immutable by implementations.
type Config struct {
	// BaseURL is joined with relative request paths by the HTTP transport.
	BaseURL string `yaml:"base_url" env:"BASE_URL"`

	// Timeout bounds a single HTTP round trip. Zero leaves it to the caller's
	// context.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`

	// CacheStrategy selects how queries retain their last successful payload.
	CacheStrategy cachestrategy.Strategy `yaml:"cache_strategy" env:"CACHE_STRATEGY"`

	// StaleTime is the payload age after which a TTL cache misses.
	StaleTime time.Duration `yaml:"stale_time" env:"STALE_TIME"`

	// CancelSuperseded cancels the context of a fetch once a newer one
	// replaces it. Superseded results are discarded either way.
	CancelSuperseded bool `yaml:"cancel_superseded" env:"CANCEL_SUPERSEDED"`

	// RegistrySize bounds the number of shared queries kept by key.
	RegistrySize int `yaml:"registry_size" env:"REGISTRY_SIZE"`

	// RateLimit is the client-side request rate in requests per second.
	// Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" env:"RATE_LIMIT"`

	// RateBurst is the limiter burst size. Ignored when RateLimit is zero.
	RateBurst int `yaml:"rate_burst" env:"RATE_BURST"`

	// MaxBodyBytes caps how much of a response body the transport reads.
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`

	// NetworkErrorMessage is the message of failures with no response.
	NetworkErrorMessage string `yaml:"network_error_message" env:"NETWORK_ERROR_MESSAGE"`

	// ProblemErrorLines appends one line per entry of a problem detail's
	// "errors" extension member.
	ProblemErrorLines bool `yaml:"problem_error_lines" env:"PROBLEM_ERROR_LINES"`

	// LogLevel is a logrus level name ("debug", "info", ...).
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`
}
