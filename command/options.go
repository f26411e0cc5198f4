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

package command

import (
	"github.com/sirupsen/logrus"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/config"
	"dirpx.dev/rsx/logging"
	"dirpx.dev/rsx/metrics"
	"dirpx.dev/rsx/normalize"
)

// options holds the collaborators of a Command.
type options struct {
	cfg         apis.Config
	normalizer  apis.Normalizer
	logger      *logrus.Entry
	recorder    apis.Recorder
	name        string
	invalidates []apis.Invalidator
}

func defaultOptions() options {
	return options{
		cfg:        config.DefaultConfig(),
		normalizer: normalize.Default(),
		logger:     logging.Nop(),
		recorder:   metrics.Nop(),
	}
}

// Option configures a Command.
type Option func(*options)

// WithConfig replaces the whole configuration. Options after it still apply.
func WithConfig(cfg apis.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithCancelSuperseded cancels the context of an invocation once a newer Run
// replaces it. Reset never cancels.
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

// WithName sets the diagnostic name used in logs.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithInvalidates names projections to invalidate after every successful,
// non-superseded invocation. Nil entries are ignored.
func WithInvalidates(targets ...apis.Invalidator) Option {
	return func(o *options) {
		for _, t := range targets {
			if t != nil {
				o.invalidates = append(o.invalidates, t)
			}
		}
	}
}
