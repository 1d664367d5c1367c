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
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/registrymesh/discovery/endpoint"
)

// NewRedirectingFactory wraps a raw transport factory so that created
// clients follow a single HTTP redirect hop. A redirect received from the
// redirect target is returned as-is, as a normal non-success response;
// chains of redirects are never chased.
func NewRedirectingFactory(delegate ClientFactory, logger *zap.Logger) ClientFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redirectingFactory{delegate: delegate, logger: logger}
}

type redirectingFactory struct {
	delegate ClientFactory
	logger   *zap.Logger
}

func (f *redirectingFactory) NewClient(server endpoint.Endpoint) (Client, error) {
	inner, err := f.delegate.NewClient(server)
	if err != nil {
		return nil, err
	}
	return &redirectingClient{
		factory: f.delegate,
		server:  server,
		inner:   inner,
		logger:  f.logger,
	}, nil
}

func (f *redirectingFactory) Shutdown() {
	f.delegate.Shutdown()
}

type redirectingClient struct {
	factory ClientFactory
	server  endpoint.Endpoint
	inner   Client
	logger  *zap.Logger
}

func (c *redirectingClient) Execute(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.inner.Execute(ctx, req)
	if err != nil || !isRedirect(resp) {
		return resp, err
	}
	target, ok := c.redirectTarget(resp.Header.Get("Location"), req)
	if !ok {
		return resp, nil
	}
	c.logger.Debug("following redirect",
		zap.String("from", c.server.ServiceURL), zap.String("to", target.ServiceURL))
	redirected, err := c.factory.NewClient(target)
	if err != nil {
		return resp, nil
	}
	defer redirected.Close()
	return redirected.Execute(ctx, req)
}

func (c *redirectingClient) Close() {
	c.inner.Close()
}

// redirectTarget derives the endpoint to re-issue the request against from
// the Location header. The location echoes the request path appended to
// the new server's base URL, so stripping that suffix recovers the base
// with its context path intact. An unusable location leaves the original
// response to stand as the result.
func (c *redirectingClient) redirectTarget(location string, req *Request) (endpoint.Endpoint, bool) {
	parsed, err := url.Parse(location)
	if err != nil || !parsed.IsAbs() {
		c.logger.Warn("ignoring redirect with unusable location", zap.String("location", location))
		return endpoint.Endpoint{}, false
	}
	requestPath := strings.TrimLeft(req.Path, "/")
	basePath := strings.TrimSuffix(parsed.Path, requestPath)
	if requestPath != "" && basePath == parsed.Path {
		c.logger.Warn("ignoring redirect whose location does not end with the request path",
			zap.String("location", location), zap.String("path", req.Path))
		return endpoint.Endpoint{}, false
	}
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	target, err := endpoint.New(parsed.Scheme+"://"+parsed.Host+basePath, c.server.Region, c.server.Zone)
	if err != nil {
		c.logger.Warn("ignoring redirect with unusable location", zap.String("location", location))
		return endpoint.Endpoint{}, false
	}
	return target, true
}
