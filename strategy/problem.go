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
	"strings"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/problem"
	"dirpx.dev/rsx/state"
)

// NewProblemStrategy creates an apis.Strategy for HTTP errors whose body is
// an RFC 9457 problem detail.
func NewProblemStrategy() apis.Strategy {
	return problemStrategy{}
}

// problemStrategy builds "<title>: <detail>" and, if cfg.ProblemErrorLines is
// set, appends one line per "errors" entry.
type problemStrategy struct{}

// Ensure problemStrategy implements apis.Strategy.
var _ apis.Strategy = problemStrategy{}

// TryNormalize handles err if it is an HTTPError with a problem detail body.
func (problemStrategy) TryNormalize(err error, cfg apis.Config) (state.Failure, bool) {
	he, ok := problem.AsHTTPError(err)
	if !ok {
		return state.Failure{}, false
	}
	d, ok := problem.ParseDetail(he.Header, he.Body)
	if !ok {
		return state.Failure{}, false
	}

	var b strings.Builder
	b.WriteString(d.Message())
	if cfg.ProblemErrorLines {
		for _, fe := range d.Errors {
			b.WriteByte('\n')
			b.WriteString(fe.Line())
		}
	}

	code := he.StatusCode
	if code == 0 {
		code = d.Status
	}
	return state.Failure{Message: b.String(), StatusCode: code}, true
}
