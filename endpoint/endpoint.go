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

// Package endpoint defines the value type for a resolved registry server
// address and the pluggable shuffle policy used when ordering endpoint
// lists.
package endpoint

import (
	"fmt"
	"net/url"
)

// Endpoint is a resolved registry server address. It is immutable after
// construction; two endpoints are considered equal when their service URLs
// are equal, regardless of region or zone.
type Endpoint struct {
	// Region is the region the server is deployed in.
	Region string
	// Zone is the availability zone the server is deployed in.
	Zone string
	// ServiceURL is the full service URL (scheme, host, port, and context
	// path) used to reach the server.
	ServiceURL string
}

// New builds an Endpoint from the given service URL, rejecting URLs that
// do not parse or that lack a scheme or host. Callers are expected to drop
// rejected URLs from the candidate pool rather than fail resolution.
func New(serviceURL, region, zone string) (Endpoint, error) {
	parsed, err := url.Parse(serviceURL)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid service URL %q: %w", serviceURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return Endpoint{}, fmt.Errorf("invalid service URL %q: missing scheme or host", serviceURL)
	}
	return Endpoint{
		Region:     region,
		Zone:       zone,
		ServiceURL: serviceURL,
	}, nil
}

// Equal reports whether e and other refer to the same server. Equality is
// defined by service URL only.
func (e Endpoint) Equal(other Endpoint) bool {
	return e.ServiceURL == other.ServiceURL
}

func (e Endpoint) String() string {
	return fmt.Sprintf("Endpoint{region=%s, zone=%s, serviceUrl=%s}", e.Region, e.Zone, e.ServiceURL)
}
