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
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/registrymesh/discovery/endpoint"
)

// NewRetryableClient builds a client that walks the currently resolved
// endpoint list until one endpoint yields an acceptable response. The
// list is read fresh from the source on every call; within one call no
// endpoint is tried twice. When every endpoint has been tried, the last
// failure is surfaced as an *AllEndpointsFailedError.
func NewRetryableClient(
	name string,
	source EndpointSource,
	factory ClientFactory,
	evaluator StatusEvaluator,
	logger *zap.Logger,
) Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retryableClient{
		name:      name,
		source:    source,
		factory:   factory,
		evaluator: evaluator,
		logger:    logger.With(zap.String("client", name)),
	}
}

// NewRetryableFactory returns a Factory whose clients retry across the
// endpoints supplied by source.
func NewRetryableFactory(
	name string,
	source EndpointSource,
	factory ClientFactory,
	evaluator StatusEvaluator,
	logger *zap.Logger,
) Factory {
	return &retryableFactory{
		name:      name,
		source:    source,
		factory:   factory,
		evaluator: evaluator,
		logger:    logger,
	}
}

type retryableFactory struct {
	name      string
	source    EndpointSource
	factory   ClientFactory
	evaluator StatusEvaluator
	logger    *zap.Logger
}

func (f *retryableFactory) NewClient() Client {
	return NewRetryableClient(f.name, f.source, f.factory, f.evaluator, f.logger)
}

func (f *retryableFactory) Shutdown() {
	f.factory.Shutdown()
}

type retryableClient struct {
	name      string
	source    EndpointSource
	factory   ClientFactory
	evaluator StatusEvaluator
	logger    *zap.Logger
}

func (c *retryableClient) Execute(ctx context.Context, req *Request) (*Response, error) {
	candidates := c.source.ClusterEndpoints(ctx)
	if len(candidates) == 0 {
		return nil, ErrResolutionEmpty
	}

	tried := make(map[string]struct{}, len(candidates))
	var attempts int
	var lastEndpoint endpoint.Endpoint
	var lastStatus int
	var lastErr error

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("request aborted after %d attempts: %w", attempts, err)
		}
		if _, seen := tried[candidate.ServiceURL]; seen {
			continue
		}
		tried[candidate.ServiceURL] = struct{}{}
		attempts++
		lastEndpoint = candidate

		resp, err := c.executeOn(ctx, candidate, req)
		if err != nil {
			lastErr, lastStatus = err, 0
			c.logger.Warn("request failed; trying next endpoint",
				zap.String("endpoint", candidate.ServiceURL), zap.Error(err))
			continue
		}
		if c.evaluator(resp.StatusCode, req) {
			return resp, nil
		}
		lastErr, lastStatus = nil, resp.StatusCode
		c.logger.Warn("endpoint returned unacceptable status; trying next endpoint",
			zap.String("endpoint", candidate.ServiceURL), zap.Int("status", resp.StatusCode))
	}

	return nil, &AllEndpointsFailedError{
		Attempts:       attempts,
		LastEndpoint:   lastEndpoint.ServiceURL,
		LastStatusCode: lastStatus,
		LastErr:        lastErr,
	}
}

func (c *retryableClient) executeOn(ctx context.Context, server endpoint.Endpoint, req *Request) (*Response, error) {
	client, err := c.factory.NewClient(server)
	if err != nil {
		return nil, fmt.Errorf("creating client for %s: %w", server.ServiceURL, err)
	}
	defer client.Close()
	return client.Execute(ctx, req)
}

func (c *retryableClient) Close() {}
