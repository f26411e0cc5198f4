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
	"context"
	"net/http"
)

// Request is one HTTP call handed to a Transport.
type Request struct {
	// Method is the HTTP method, e.g. http.MethodGet.
	Method string
	// URL is absolute, or relative to the transport's base URL.
	URL string
	// Header is merged over the transport's default headers.
	Header http.Header
	// Body is sent as-is; nil means no body.
	Body []byte
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	// Status is the status line, e.g. "404 Not Found".
	Status string
	Header http.Header
	Body   []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs HTTP calls for fetchers.
//
// Do returns a Response for every status code, including non-2xx. It returns
// an error only when no response was received (network failure, cancelled
// context, timeout) or its body could not be read. Implementations must be
// safe for concurrent use.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f(ctx, req).
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
