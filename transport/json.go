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
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/problem"
)

const contentTypeJSON = "application/json"

// GetJSON returns a query fetcher that GETs path and decodes the JSON body
// into T. Non-2xx responses fail with a problem.HTTPError and undecodable
// bodies with a problem.BodyParseError.
func GetJSON[T any](tr apis.Transport, path string) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		resp, err := tr.Do(ctx, &apis.Request{
			Method: http.MethodGet,
			URL:    path,
			Header: http.Header{"Accept": []string{contentTypeJSON}},
		})
		if err != nil {
			var zero T
			return zero, err
		}
		return Decode[T](resp)
	}
}

// SendJSON returns a command fetcher that sends the variables to
// route(vars) with method. POST, PUT and PATCH carry the variables as a JSON
// body; other methods, such as DELETE, send no body. A 204 response yields
// the zero T.
func SendJSON[V, T any](tr apis.Transport, method string, route func(V) string) func(ctx context.Context, vars V) (T, error) {
	return func(ctx context.Context, vars V) (T, error) {
		var zero T
		req := &apis.Request{
			Method: method,
			URL:    route(vars),
			Header: http.Header{"Accept": []string{contentTypeJSON}},
		}
		if hasBody(method) {
			body, err := json.Marshal(vars)
			if err != nil {
				return zero, fmt.Errorf("failed to encode request body: %w", err)
			}
			req.Body = body
			req.Header.Set("Content-Type", contentTypeJSON)
		}

		resp, err := tr.Do(ctx, req)
		if err != nil {
			return zero, err
		}
		return Decode[T](resp)
	}
}

// Static returns a route that ignores the variables.
func Static[V any](path string) func(V) string {
	return func(V) string { return path }
}

// Decode turns resp into T. Non-2xx responses fail with a problem.HTTPError.
// An empty body, or a 204, yields the zero T.
func Decode[T any](resp *apis.Response) (T, error) {
	var out T
	if !resp.OK() {
		return out, &problem.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Header:     resp.Header,
			Body:       resp.Body,
		}
	}
	if resp.StatusCode == http.StatusNoContent || len(resp.Body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, &problem.BodyParseError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       resp.Body,
			Err:        err,
		}
	}
	return out, nil
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}
