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
	"context"
	"errors"
	"net"
	"net/url"

	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/config"
	"dirpx.dev/rsx/problem"
	"dirpx.dev/rsx/state"
)

// NewNetworkStrategy creates an apis.Strategy for failures where no response
// was received. It yields cfg.NetworkErrorMessage and no status code.
func NewNetworkStrategy() apis.Strategy {
	return networkStrategy{}
}

// networkStrategy recognizes problem.NetworkError plus the raw net/http
// failures a hand-written fetcher may return unwrapped.
type networkStrategy struct{}

// Ensure networkStrategy implements apis.Strategy.
var _ apis.Strategy = networkStrategy{}

// TryNormalize handles err if no response is attached to it.
func (networkStrategy) TryNormalize(err error, cfg apis.Config) (state.Failure, bool) {
	if err == nil || !isNetwork(err) {
		return state.Failure{}, false
	}
	msg := cfg.NetworkErrorMessage
	if msg == "" {
		msg = config.DefaultNetworkErrorMessage
	}
	return state.Failure{Message: msg}, true
}

func isNetwork(err error) bool {
	var ne *problem.NetworkError
	if errors.As(err, &ne) {
		return true
	}
	// A response arrived; the remaining strategies own these.
	if _, ok := problem.AsHTTPError(err); ok {
		return false
	}
	var pe *problem.BodyParseError
	if errors.As(err, &pe) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
