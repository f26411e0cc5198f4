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

// Package metrics exports projection activity as Prometheus collectors.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"dirpx.dev/rsx/apis"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "rsx"

// Recorder implements apis.Recorder on top of Prometheus collectors.
type Recorder struct {
	fetches   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	inflight  *prometheus.GaugeVec
	cache     *prometheus.CounterVec
	discarded *prometheus.CounterVec
}

// Ensure Recorder implements apis.Recorder.
var _ apis.Recorder = (*Recorder)(nil)

// New creates a Recorder and registers its collectors with reg. An empty
// namespace selects DefaultNamespace. Collectors already registered by an
// earlier Recorder with the same namespace are reused.
func New(reg prometheus.Registerer, namespace string) (*Recorder, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	r := &Recorder{
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "total",
				Help:      "Total number of fetcher invocations by projection kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "duration_seconds",
				Help:      "Duration of fetcher invocations.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"kind"},
		),
		inflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "inflight",
				Help:      "Current number of fetcher invocations in flight.",
			},
			[]string{"kind"},
		),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "cache_events_total",
				Help:      "Query cache hits, misses, joined fetches and invalidations.",
			},
			[]string{"event"},
		),
		discarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "discarded_total",
				Help:      "Results dropped because a newer invocation superseded them.",
			},
			[]string{"kind"},
		),
	}

	if reg == nil {
		return r, nil
	}
	var err error
	if r.fetches, err = register(reg, r.fetches); err != nil {
		return nil, err
	}
	if r.duration, err = register(reg, r.duration); err != nil {
		return nil, err
	}
	if r.inflight, err = register(reg, r.inflight); err != nil {
		return nil, err
	}
	if r.cache, err = register(reg, r.cache); err != nil {
		return nil, err
	}
	if r.discarded, err = register(reg, r.discarded); err != nil {
		return nil, err
	}
	return r, nil
}

// MustNew is like New but panics on registration errors.
func MustNew(reg prometheus.Registerer, namespace string) *Recorder {
	r, err := New(reg, namespace)
	if err != nil {
		panic(err)
	}
	return r
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, fmt.Errorf("failed to register collector: %w", err)
	}
	return c, nil
}

// FetchStarted implements apis.Recorder.
func (r *Recorder) FetchStarted(kind string) {
	r.inflight.WithLabelValues(kind).Inc()
}

// FetchFinished implements apis.Recorder.
func (r *Recorder) FetchFinished(kind, outcome string, d time.Duration) {
	r.inflight.WithLabelValues(kind).Dec()
	r.fetches.WithLabelValues(kind, outcome).Inc()
	r.duration.WithLabelValues(kind).Observe(d.Seconds())
}

// CacheEvent implements apis.Recorder.
func (r *Recorder) CacheEvent(event string) {
	r.cache.WithLabelValues(event).Inc()
}

// ResultDiscarded implements apis.Recorder.
func (r *Recorder) ResultDiscarded(kind string) {
	r.discarded.WithLabelValues(kind).Inc()
}

// Nop returns a Recorder that drops every signal.
func Nop() apis.Recorder {
	return nop{}
}

type nop struct{}

func (nop) FetchStarted(string)                          {}
func (nop) FetchFinished(string, string, time.Duration) {}
func (nop) CacheEvent(string)                            {}
func (nop) ResultDiscarded(string)                       {}
