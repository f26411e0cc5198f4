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

// Package problem defines the transport failure taxonomy (NetworkError,
// HTTPError, BodyParseError) and parses RFC 9457 problem detail bodies.
package problem

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// NetworkError reports that no response was received.
type NetworkError struct {
	// Op is the failed operation, e.g. "GET /users".
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Op == "" {
		return "network error: " + errString(e.Err)
	}
	return e.Op + ": network error: " + errString(e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError reports a response with a non-2xx status.
type HTTPError struct {
	StatusCode int
	// Status is the status line, e.g. "404 Not Found". May be empty.
	Status string
	Header http.Header
	Body   []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error %d: %s", e.StatusCode, e.StatusText())
}

// StatusText returns the reason phrase: the status line without its code, or
// http.StatusText when the status line is missing.
func (e *HTTPError) StatusText() string {
	return statusText(e.StatusCode, e.Status)
}

// BodyParseError reports a response whose body could not be decoded.
type BodyParseError struct {
	StatusCode int
	Status     string
	Body       []byte
	Err        error
}

func (e *BodyParseError) Error() string {
	return fmt.Sprintf("malformed response body (status %d): %s", e.StatusCode, errString(e.Err))
}

func (e *BodyParseError) Unwrap() error { return e.Err }

// StatusText returns the reason phrase of the response.
func (e *BodyParseError) StatusText() string {
	return statusText(e.StatusCode, e.Status)
}

// AsHTTPError is errors.As for *HTTPError.
func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func statusText(code int, status string) string {
	prefix := strconv.Itoa(code) + " "
	if text := strings.TrimSpace(strings.TrimPrefix(status, prefix)); text != "" && text != strconv.Itoa(code) {
		return text
	}
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "Unknown Status"
}

func errString(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}
