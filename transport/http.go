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

package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/config"
	"dirpx.dev/rsx/problem"
)

// TracerName is the instrumentation name of transport spans.
const TracerName = "dirpx.dev/rsx/transport"

// ErrBodyTooLarge is wrapped in a problem.BodyParseError when a response
// body exceeds the configured limit.
var ErrBodyTooLarge = errors.New("response body too large")

// HTTP is an apis.Transport over net/http.
type HTTP struct {
	client     *http.Client
	baseURL    string
	header     http.Header
	maxBody    int64
	limiter    *rate.Limiter
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// Ensure HTTP implements apis.Transport.
var _ apis.Transport = (*HTTP)(nil)

// Option configures an HTTP transport.
type Option func(*HTTP)

// WithClient sets the underlying client. Nil is ignored.
func WithClient(c *http.Client) Option {
	return func(t *HTTP) {
		if c != nil {
			t.client = c
		}
	}
}

// WithHeader adds a default header sent with every request.
func WithHeader(key, value string) Option {
	return func(t *HTTP) {
		t.header.Add(key, value)
	}
}

// WithLimiter replaces the limiter derived from the config. Nil disables
// limiting.
func WithLimiter(l *rate.Limiter) Option {
	return func(t *HTTP) {
		t.limiter = l
	}
}

// WithTracerProvider sets the provider of transport spans. The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *HTTP) {
		if tp != nil {
			t.tracer = tp.Tracer(TracerName)
		}
	}
}

// WithPropagator sets the propagator injecting trace context into request
// headers. The global propagator is used by default.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(t *HTTP) {
		if p != nil {
			t.propagator = p
		}
	}
}

// NewHTTP constructs an HTTP transport from cfg: BaseURL, Timeout,
// MaxBodyBytes and RateLimit/RateBurst are honored.
func NewHTTP(cfg apis.Config, opts ...Option) *HTTP {
	cfg = config.Sanitize(cfg)
	t := &HTTP{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		header:     make(http.Header),
		maxBody:    cfg.MaxBodyBytes,
		tracer:     otel.GetTracerProvider().Tracer(TracerName),
		propagator: otel.GetTextMapPropagator(),
	}
	if cfg.RateLimit > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Do performs req. Every status code yields a Response. It fails with a
// problem.NetworkError when no response was received, and with a
// problem.BodyParseError when the body could not be read in full.
func (t *HTTP) Do(ctx context.Context, req *apis.Request) (*apis.Response, error) {
	target, err := t.resolve(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid request url %q: %w", req.URL, err)
	}
	op := req.Method + " " + target

	ctx, span := t.tracer.Start(ctx, "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", target),
		),
	)
	defer span.End()

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, t.fail(span, &problem.NetworkError{Op: op, Err: err})
		}
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, t.fail(span, fmt.Errorf("failed to build request: %w", err))
	}
	for k, vs := range t.header {
		hreq.Header[k] = append([]string(nil), vs...)
	}
	for k, vs := range req.Header {
		hreq.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	t.propagator.Inject(ctx, propagation.HeaderCarrier(hreq.Header))

	hresp, err := t.client.Do(hreq)
	if err != nil {
		return nil, t.fail(span, &problem.NetworkError{Op: op, Err: err})
	}
	defer hresp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", hresp.StatusCode))
	if hresp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, hresp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(hresp.Body, t.maxBody+1))
	if err == nil && int64(len(data)) > t.maxBody {
		err = ErrBodyTooLarge
	}
	if err != nil {
		return nil, t.fail(span, &problem.BodyParseError{
			StatusCode: hresp.StatusCode,
			Status:     hresp.Status,
			Err:        err,
		})
	}

	return &apis.Response{
		StatusCode: hresp.StatusCode,
		Status:     hresp.Status,
		Header:     hresp.Header,
		Body:       data,
	}, nil
}

func (t *HTTP) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// resolve joins relative paths onto the base URL; absolute URLs pass through.
func (t *HTTP) resolve(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.IsAbs() || t.baseURL == "" {
		return raw, nil
	}
	return t.baseURL + "/" + strings.TrimLeft(raw, "/"), nil
}
