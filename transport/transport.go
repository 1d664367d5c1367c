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

// Package transport wraps raw request execution with redirect, retry, and
// session-rotation behavior so that a single transient server failure
// never surfaces to the caller. The three decorators implement the same
// request-execution contract as the raw transport, so they compose
// transparently: Sessioned → Retryable → Redirecting → raw transport.
package transport

import (
	"context"
	"net/http"

	"github.com/registrymesh/discovery/endpoint"
)

// Request is an HTTP-shaped request executed against a registry server.
// The path is relative to the server's service URL.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Response is the result of executing a Request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client executes requests. Implementations decorating other clients must
// preserve this contract so callers stay unaware of the decoration.
type Client interface {
	Execute(ctx context.Context, req *Request) (*Response, error)

	// Close releases the client's resources. In-flight calls are allowed
	// to finish.
	Close()
}

// ClientFactory creates clients bound to a single endpoint. The raw
// transport collaborator implements this; so do the per-endpoint
// decorators.
type ClientFactory interface {
	NewClient(server endpoint.Endpoint) (Client, error)

	// Shutdown releases factory-wide resources.
	Shutdown()
}

// Factory creates ready-to-use clients that resolve their own endpoints.
type Factory interface {
	NewClient() Client
	Shutdown()
}

// EndpointSource supplies the current resolved endpoint list. It is read
// fresh on every top-level retryable call, never cached across calls.
type EndpointSource interface {
	ClusterEndpoints(ctx context.Context) []endpoint.Endpoint
}

// StatusEvaluator judges whether a response status concludes a request or
// the next endpoint should be tried.
type StatusEvaluator func(statusCode int, req *Request) bool

// LegacyEvaluator accepts any non-error status: 2xx and 3xx conclude the
// request, everything else advances to the next endpoint.
func LegacyEvaluator() StatusEvaluator {
	return func(statusCode int, _ *Request) bool {
		return statusCode < 400
	}
}

// isRedirect reports whether the response asks the client to retry the
// request elsewhere.
func isRedirect(resp *Response) bool {
	switch resp.StatusCode {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return resp.Header.Get("Location") != ""
	default:
		return false
	}
}
