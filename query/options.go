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

package query

import (
	"time"

	"github.com/sirupsen/logrus"

	"dirpx.dev/rsx/apis"
	cachestrategy "dirpx.dev/rsx/cache/strategy"
	"dirpx.dev/rsx/config"
	"dirpx.dev/rsx/logging"
	"dirpx.dev/rsx/metrics"
	"dirpx.dev/rsx/normalize"
)

// options holds the collaborators of a Query.
type options struct {
	cfg        apis.Config
	normalizer apis.Normalizer
	logger     *logrus.Entry
	recorder   apis.Recorder
	name       string
	now        func() time.Time
}

func defaultOptions() options {
	return options{
		cfg:        config.DefaultConfig(),
		normalizer: normalize.Default(),
		logger:     logging.Nop(),
		recorder:   metrics.Nop(),
		now:        time.Now,
	}
}

// Option configures a Query.
type Option func(*options)

// WithConfig replaces the whole configuration. Options after it still apply.
func WithConfig(cfg apis.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithCache enables (Shared) or disables (None) the cache slot.
func WithCache(enabled bool) Option {
	return func(o *options) {
		config.WithCache(enabled)(&o.cfg)
	}
}

// WithCacheStrategy sets the cache strategy.
func WithCacheStrategy(cs cachestrategy.Strategy) Option {
	return func(o *options) {
		o.cfg.CacheStrategy = cs
	}
}

// WithStaleTime enables the TTL cache with the given stale time.
func WithStaleTime(d time.Duration) Option {
	return func(o *options) {
		config.WithStaleTime(d)(&o.cfg)
	}
}

// WithCancelSuperseded cancels the context of a fetch once it is superseded.
func WithCancelSuperseded(cancel bool) Option {
	return func(o *options) {
		o.cfg.CancelSuperseded = cancel
	}
}

// WithNormalizer sets the error normalizer. Nil is ignored.
func WithNormalizer(n apis.Normalizer) Option {
	return func(o *options) {
		if n != nil {
			o.normalizer = n
		}
	}
}

// WithLogger sets the base log entry. Nil is ignored.
func WithLogger(l *logrus.Entry) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder. Nil is ignored.
func WithRecorder(r apis.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithName sets the diagnostic name used in logs and registry entries.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithClock replaces time.Now for stale-time checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
