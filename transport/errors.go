// Copyright 2024-2025 Registrymesh, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transport

import (
	"errors"
	"fmt"
)

// ErrResolutionEmpty is returned when a request cannot even start because
// the resolver produced no endpoints to try.
var ErrResolutionEmpty = errors.New("no known registry server endpoints")

// AllEndpointsFailedError is returned when every resolved endpoint was
// tried and none produced an acceptable response. It carries the last
// attempt's failure.
type AllEndpointsFailedError struct {
	// Attempts is the number of endpoints tried.
	Attempts int
	// LastEndpoint is the service URL of the last endpoint tried.
	LastEndpoint string
	// LastStatusCode is the status of the last attempt's response, or zero
	// when the last attempt failed at the transport level.
	LastStatusCode int
	// LastErr is the last transport-level failure, or nil when the last
	// attempt produced a rejected response.
	LastErr error
}

func (e *AllEndpointsFailedError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("request failed on all %d endpoints; last attempt against %s: %v",
			e.Attempts, e.LastEndpoint, e.LastErr)
	}
	return fmt.Sprintf("request failed on all %d endpoints; last attempt against %s returned status %d",
		e.Attempts, e.LastEndpoint, e.LastStatusCode)
}

func (e *AllEndpointsFailedError) Unwrap() error {
	return e.LastErr
}
