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

package config

import (
	"strings"
	"time"

	"dirpx.dev/rsx/apis"
	cachestrategy "dirpx.dev/rsx/cache/strategy"
)

const (
	// DefaultTimeout bounds a single HTTP round trip.
	DefaultTimeout = 30 * time.Second
	// DefaultCacheStrategy leaves caching opt-in per query.
	DefaultCacheStrategy = cachestrategy.None
	// DefaultRegistrySize bounds the shared-query registry.
	DefaultRegistrySize = 256
	// DefaultRateBurst is the limiter burst used when a rate limit is set
	// without one.
	DefaultRateBurst = 1
	// DefaultMaxBodyBytes caps response bodies at 8 MiB.
	DefaultMaxBodyBytes int64 = 8 << 20
	// DefaultNetworkErrorMessage is the message of failures with no response.
	DefaultNetworkErrorMessage = "A network error occurred"
	// DefaultProblemErrorLines includes problem detail "errors" entries.
	DefaultProblemErrorLines = true
	// DefaultLogLevel is the logrus level name.
	DefaultLogLevel = "info"
	// DefaultLogFormat is "text"; "json" is the alternative.
	DefaultLogFormat = "text"
)

// NewConfig constructs an apis.Config from the given options.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return Sanitize(cfg)
}

// DefaultConfig is the default configuration used when none is provided.
func DefaultConfig() apis.Config {
	return apis.Config{
		Timeout:             DefaultTimeout,
		CacheStrategy:       DefaultCacheStrategy,
		RegistrySize:        DefaultRegistrySize,
		RateBurst:           DefaultRateBurst,
		MaxBodyBytes:        DefaultMaxBodyBytes,
		NetworkErrorMessage: DefaultNetworkErrorMessage,
		ProblemErrorLines:   DefaultProblemErrorLines,
		LogLevel:            DefaultLogLevel,
		LogFormat:           DefaultLogFormat,
	}
}

// Sanitize replaces out-of-range values with their defaults. It is applied
// by NewConfig and by the loaders, so hand-built configs can use it too.
func Sanitize(cfg apis.Config) apis.Config {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout < 0 {
		cfg.Timeout = DefaultTimeout
	}
	if !cfg.CacheStrategy.Enabled() && cfg.CacheStrategy != cachestrategy.None {
		cfg.CacheStrategy = DefaultCacheStrategy
	}
	if cfg.StaleTime < 0 {
		cfg.StaleTime = 0
	}
	if cfg.RegistrySize <= 0 {
		cfg.RegistrySize = DefaultRegistrySize
	}
	if cfg.RateLimit < 0 {
		cfg.RateLimit = 0
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = DefaultRateBurst
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if strings.TrimSpace(cfg.NetworkErrorMessage) == "" {
		cfg.NetworkErrorMessage = DefaultNetworkErrorMessage
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
	return cfg
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithBaseURL sets the BaseURL option. A trailing slash is dropped.
func WithBaseURL(u string) Option {
	return func(c *apis.Config) {
		c.BaseURL = u
	}
}

// WithTimeout sets the Timeout option.
// A negative value resets to the default.
func WithTimeout(d time.Duration) Option {
	return func(c *apis.Config) {
		c.Timeout = d
	}
}

// WithCacheStrategy sets the CacheStrategy option.
func WithCacheStrategy(cs cachestrategy.Strategy) Option {
	return func(c *apis.Config) {
		c.CacheStrategy = cs
	}
}

// WithCache is the boolean form of WithCacheStrategy: true selects Shared,
// false selects None.
func WithCache(enabled bool) Option {
	return func(c *apis.Config) {
		if enabled {
			c.CacheStrategy = cachestrategy.Shared
			return
		}
		c.CacheStrategy = cachestrategy.None
	}
}

// WithStaleTime selects the TTL strategy with the given stale time.
func WithStaleTime(d time.Duration) Option {
	return func(c *apis.Config) {
		c.CacheStrategy = cachestrategy.TTL
		c.StaleTime = d
	}
}

// WithCancelSuperseded sets the CancelSuperseded option.
func WithCancelSuperseded(cancel bool) Option {
	return func(c *apis.Config) {
		c.CancelSuperseded = cancel
	}
}

// WithRegistrySize sets the RegistrySize option.
func WithRegistrySize(n int) Option {
	return func(c *apis.Config) {
		c.RegistrySize = n
	}
}

// WithRateLimit sets the RateLimit and RateBurst options.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *apis.Config) {
		c.RateLimit = perSecond
		c.RateBurst = burst
	}
}

// WithMaxBodyBytes sets the MaxBodyBytes option.
func WithMaxBodyBytes(n int64) Option {
	return func(c *apis.Config) {
		c.MaxBodyBytes = n
	}
}

// WithNetworkErrorMessage sets the NetworkErrorMessage option.
func WithNetworkErrorMessage(msg string) Option {
	return func(c *apis.Config) {
		c.NetworkErrorMessage = msg
	}
}

// WithProblemErrorLines sets the ProblemErrorLines option.
func WithProblemErrorLines(include bool) Option {
	return func(c *apis.Config) {
		c.ProblemErrorLines = include
	}
}

// WithLogLevel sets the LogLevel option.
func WithLogLevel(level string) Option {
	return func(c *apis.Config) {
		c.LogLevel = level
	}
}

// WithLogFormat sets the LogFormat option.
func WithLogFormat(format string) Option {
	return func(c *apis.Config) {
		c.LogFormat = format
	}
}
