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

package strategy

import (
	"errors"
	"fmt"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/problem"
	"dirpx.dev/rsx/state"
)

// NewStatusStrategy creates an apis.Strategy that renders any HTTPError as
// "Backend returned <status>: <statusText>". It is the HTTP fallback and
// belongs after NewProblemStrategy.
func NewStatusStrategy() apis.Strategy {
	return statusStrategy{}
}

type statusStrategy struct{}

// Ensure statusStrategy implements apis.Strategy.
var _ apis.Strategy = statusStrategy{}

// TryNormalize handles every HTTPError.
func (statusStrategy) TryNormalize(err error, _ apis.Config) (state.Failure, bool) {
	he, ok := problem.AsHTTPError(err)
	if !ok {
		return state.Failure{}, false
	}
	return state.Failure{
		Message:    fmt.Sprintf("Backend returned %d: %s", he.StatusCode, he.StatusText()),
		StatusCode: he.StatusCode,
	}, true
}

// NewBodyParseStrategy creates an apis.Strategy for responses whose body
// could not be decoded.
func NewBodyParseStrategy() apis.Strategy {
	return bodyParseStrategy{}
}

type bodyParseStrategy struct{}

// Ensure bodyParseStrategy implements apis.Strategy.
var _ apis.Strategy = bodyParseStrategy{}

// TryNormalize handles problem.BodyParseError.
func (bodyParseStrategy) TryNormalize(err error, _ apis.Config) (state.Failure, bool) {
	var pe *problem.BodyParseError
	if !errors.As(err, &pe) {
		return state.Failure{}, false
	}
	return state.Failure{
		Message:    fmt.Sprintf("Backend returned %d: invalid response body", pe.StatusCode),
		StatusCode: pe.StatusCode,
	}, true
}

// NewFailureStrategy creates an apis.Strategy that passes through errors
// that already are a state.Failure, e.g. returned by a hand-written fetcher.
func NewFailureStrategy() apis.Strategy {
	return failureStrategy{}
}

type failureStrategy struct{}

// Ensure failureStrategy implements apis.Strategy.
var _ apis.Strategy = failureStrategy{}

// TryNormalize handles state.Failure values with a non-empty message.
func (failureStrategy) TryNormalize(err error, _ apis.Config) (state.Failure, bool) {
	var f state.Failure
	if !errors.As(err, &f) || f.Message == "" {
		return state.Failure{}, false
	}
	return f, true
}
