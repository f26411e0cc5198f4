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

package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/builder"
	"dirpx.dev/rsx/command"
	"dirpx.dev/rsx/config"
	"dirpx.dev/rsx/logging"
	"dirpx.dev/rsx/metrics"
	"dirpx.dev/rsx/query"
	"dirpx.dev/rsx/transport"
	uref "dirpx.dev/rsx/utils/reflect"
)

var (
	// ErrNilTransport is returned by New when no transport is given.
	ErrNilTransport = errors.New("rsx(client): nil transport")
	// ErrTypeMismatch is returned by Query when the key is already bound to
	// a query of another payload type.
	ErrTypeMismatch = errors.New("rsx(client): key bound to a different query type")
)

// Client binds projections to one backend. It owns the shared-query
// registry; projections created by Command are owned by the caller.
type Client struct {
	tr   apis.Transport
	cfg  apis.Config
	norm apis.Normalizer
	reg  apis.Registry
	log  *logrus.Entry
	rec  apis.Recorder
}

// Option configures a Client.
type Option func(*settings)

type settings struct {
	cfg  apis.Config
	bld  apis.Builder
	norm apis.Normalizer
	reg  apis.Registry
	log  *logrus.Entry
	rec  apis.Recorder
}

// WithConfig sets the configuration handed to every projection.
func WithConfig(cfg apis.Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

// WithBuilder sets the builder of the registry and normalizer. Nil is
// ignored.
func WithBuilder(b apis.Builder) Option {
	return func(s *settings) {
		if b != nil {
			s.bld = b
		}
	}
}

// WithNormalizer overrides the built normalizer.
func WithNormalizer(n apis.Normalizer) Option {
	return func(s *settings) { s.norm = n }
}

// WithRegistry overrides the built registry.
func WithRegistry(r apis.Registry) Option {
	return func(s *settings) { s.reg = r }
}

// WithLogger sets the base log entry. Nil is ignored.
func WithLogger(l *logrus.Entry) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRecorder sets the metrics recorder. Nil is ignored.
func WithRecorder(r apis.Recorder) Option {
	return func(s *settings) {
		if r != nil {
			s.rec = r
		}
	}
}

// New constructs a Client over tr.
func New(tr apis.Transport, opts ...Option) (*Client, error) {
	if tr == nil {
		return nil, ErrNilTransport
	}
	s := settings{
		cfg: config.DefaultConfig(),
		bld: builder.New(),
		log: logging.Nop(),
		rec: metrics.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.cfg = config.Sanitize(s.cfg)
	if s.reg == nil {
		s.reg = s.bld.BuildRegistry(s.cfg, nil)
	}
	if s.norm == nil {
		s.norm = s.bld.BuildNormalizer(s.cfg, nil)
	}
	return &Client{
		tr:   tr,
		cfg:  s.cfg,
		norm: s.norm,
		reg:  s.reg,
		log:  s.log,
		rec:  s.rec,
	}, nil
}

// NewFromConfig constructs a Client over an HTTP transport built from cfg.
// When cfg names a log level or format, a logrus logger writing to stderr is
// configured from it unless WithLogger is given.
func NewFromConfig(cfg apis.Config, topts []transport.Option, opts ...Option) (*Client, error) {
	cfg = config.Sanitize(cfg)
	log, err := logging.New(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	opts = append([]Option{WithConfig(cfg), WithLogger(log)}, opts...)
	return New(transport.NewHTTP(cfg, topts...), opts...)
}

// Transport returns the client's transport.
func (c *Client) Transport() apis.Transport { return c.tr }

// Config returns the client's configuration.
func (c *Client) Config() apis.Config { return c.cfg }

// Registry returns the shared-query registry.
func (c *Client) Registry() apis.Registry { return c.reg }

// Invalidate invalidates the shared query under key.
func (c *Client) Invalidate(key string) bool {
	return c.reg.Invalidate(key)
}

// InvalidatePrefix invalidates every shared query whose key has prefix.
func (c *Client) InvalidatePrefix(prefix string) int {
	return c.reg.InvalidatePrefix(prefix)
}

// Invalidator returns an apis.Invalidator over the given keys, suitable for
// command.WithInvalidates: the "add item, refresh list" pattern.
func (c *Client) Invalidator(keys ...string) apis.Invalidator {
	return keyInvalidator{reg: c.reg, keys: keys}
}

// Close closes every shared query.
func (c *Client) Close() {
	c.reg.Reset()
}

type keyInvalidator struct {
	reg  apis.Registry
	keys []string
}

func (k keyInvalidator) Invalidate() {
	for _, key := range k.keys {
		k.reg.Invalidate(key)
	}
}

// Query returns the shared GET query for key, creating it on first use.
// An empty key uses path. The query decodes JSON into T and inherits the
// client's configuration; opts apply only when the query is created.
func Query[T any](c *Client, key, path string, opts ...query.Option) (*query.Query[T], error) {
	if key == "" {
		key = path
	}
	s, err := c.reg.LoadOrRegister(key, func() apis.Shared {
		base := []query.Option{
			query.WithConfig(c.cfg),
			query.WithNormalizer(c.norm),
			query.WithLogger(c.log.WithField("key", key)),
			query.WithRecorder(c.rec),
			query.WithName("query[" + uref.NameOf[T]() + "] " + key),
		}
		return query.New(transport.GetJSON[T](c.tr, path), append(base, opts...)...)
	})
	if err != nil {
		return nil, err
	}
	q, ok := s.(*query.Query[T])
	if !ok {
		return nil, fmt.Errorf("%w: %q holds %s", ErrTypeMismatch, key, s.Name())
	}
	return q, nil
}

// Command builds a command sending V as JSON to route(vars) with method and
// decoding the response into T. The caller owns and closes the command.
func Command[V, T any](c *Client, method string, route func(V) string, opts ...command.Option) *command.Command[V, T] {
	base := []command.Option{
		command.WithConfig(c.cfg),
		command.WithNormalizer(c.norm),
		command.WithLogger(c.log.WithField("method", method)),
		command.WithRecorder(c.rec),
	}
	return command.New(transport.SendJSON[V, T](c.tr, method, route), append(base, opts...)...)
}

// Delete is Command with http.MethodDelete and an empty response.
func Delete[V any](c *Client, route func(V) string, opts ...command.Option) *command.Command[V, struct{}] {
	return Command[V, struct{}](c, http.MethodDelete, route, opts...)
}
