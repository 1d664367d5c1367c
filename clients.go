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

package discovery

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/registrymesh/discovery/endpoint"
	"github.com/registrymesh/discovery/resolver"
	"github.com/registrymesh/discovery/transport"
)

// Well-known client role names, used in diagnostics.
const (
	bootstrapResolverName = "bootstrap"
	queryResolverName     = "query"
	queryClientName       = "query"
	registrationName      = "registration"
)

// errEmptyBootstrap aborts construction under Config.FailFastOnInit when
// the very first resolution yields nothing.
var errEmptyBootstrap = errors.New("initial resolution of registry server endpoints failed")

// NewBootstrapResolver builds the resolver used to find registry servers
// before any registry data exists. The default strategy resolves from
// configuration or DNS with zone-affinity ordering, seeds the cache
// eagerly, and refreshes on Config.ServiceURLPollInterval. The
// CompositeBootstrapStrategy instead prefers the local registry with a
// remote VIP-query fallback; it requires registry fetch to be enabled and
// a registry source to be supplied, and falls back to the default strategy
// with a warning otherwise.
//
// Construction fails only when the initial resolution is empty and
// Config.FailFastOnInit is set.
func NewBootstrapResolver(cfg *Config, transports transport.ClientFactory, options ...Option) (resolver.ClosableResolver, error) {
	opts := newOptions(options...)
	if cfg.BootstrapResolverStrategy == CompositeBootstrapStrategy {
		switch {
		case !cfg.FetchRegistry:
			opts.logger.Warn("cannot create a composite bootstrap resolver if registry fetch is disabled;" +
				" falling back to the default bootstrap resolver")
		case opts.registrySource == nil:
			opts.logger.Warn("cannot create a composite bootstrap resolver without a registry source;" +
				" falling back to the default bootstrap resolver")
		default:
			return newCompositeBootstrapResolver(cfg, transports, opts)
		}
	}
	return newDefaultBootstrapResolver(cfg, opts)
}

// NewQueryFactory builds the factory for registry-read clients. With
// Config.UseCompositeQueryResolver and a registry source available, the
// clients resolve through a warm-up-bounded composite resolver; otherwise
// they share the bootstrap resolver.
func NewQueryFactory(cfg *Config, bootstrap resolver.ClusterResolver, transports transport.ClientFactory, options ...Option) transport.Factory {
	opts := newOptions(options...)
	queryRes := resolver.WrapClosable(bootstrap)
	if cfg.UseCompositeQueryResolver && opts.registrySource != nil {
		queryRes = newCompositeQueryResolver(cfg, bootstrap, transports, opts)
	}
	return newClientFactory(queryClientName, cfg, queryRes, transports, opts)
}

// NewRegistrationFactory builds the factory for registry-write clients.
// Writes always go through the bootstrap resolver; there is no composite
// fallback for the registration path.
func NewRegistrationFactory(cfg *Config, bootstrap resolver.ClusterResolver, transports transport.ClientFactory, options ...Option) transport.Factory {
	opts := newOptions(options...)
	return newClientFactory(registrationName, cfg, resolver.WrapClosable(bootstrap), transports, opts)
}

func newDefaultBootstrapResolver(cfg *Config, opts *options) (resolver.ClosableResolver, error) {
	bootstrapCfg := cfg.bootstrapConfig()
	delegate := resolver.NewZoneAffinityClusterResolver(
		resolver.NewConfigClusterResolver(bootstrapCfg, opts.txt, opts.logger),
		bootstrapCfg.MyZone(),
		true,
		opts.randomizer,
		opts.logger,
	)
	initial, err := initialEndpoints(cfg, delegate, opts.logger)
	if err != nil {
		return nil, err
	}
	return resolver.NewAsyncResolver(bootstrapResolverName, delegate,
		resolver.WithInitialEndpoints(initial),
		resolver.WithRefreshInterval(cfg.pollInterval()),
		resolver.WithAsyncLogger(opts.logger),
	), nil
}

func newCompositeBootstrapResolver(cfg *Config, transports transport.ClientFactory, opts *options) (resolver.ClosableResolver, error) {
	bootstrapCfg := cfg.bootstrapConfig()
	region := bootstrapCfg.RegionOrDefault()
	root := resolver.NewConfigClusterResolver(bootstrapCfg, opts.txt, opts.logger)
	composite := resolver.NewCompositeResolver(
		region,
		resolver.NewRegistryResolver(region, cfg.WriteClusterVIP, opts.registrySource, opts.logger),
		resolver.NewRemoteResolver(region, cfg.WriteClusterVIP, root, opts.instanceQuerier(transports), opts.randomizer, opts.logger),
	)
	initial, err := initialEndpoints(cfg, composite, opts.logger)
	if err != nil {
		return nil, err
	}
	delegate := resolver.NewZoneAffinityClusterResolver(
		composite, bootstrapCfg.MyZone(), true, opts.randomizer, opts.logger)
	return resolver.NewAsyncResolver(bootstrapResolverName, delegate,
		resolver.WithInitialEndpoints(initial),
		resolver.WithRefreshInterval(cfg.refreshInterval()),
		resolver.WithAsyncLogger(opts.logger),
	), nil
}

// newCompositeQueryResolver resolves read-path endpoints from the local
// registry first, asking a peer drawn from the bootstrap pool only when
// the local view is empty. Unlike the bootstrap resolvers it is not seeded
// eagerly; the first caller warms it up within a bounded wait.
func newCompositeQueryResolver(cfg *Config, bootstrap resolver.ClusterResolver, transports transport.ClientFactory, opts *options) resolver.ClosableResolver {
	region := cfg.bootstrapConfig().RegionOrDefault()
	composite := resolver.NewCompositeResolver(
		region,
		resolver.NewRegistryResolver(region, cfg.ReadClusterVIP, opts.registrySource, opts.logger),
		resolver.NewRemoteResolver(region, cfg.ReadClusterVIP, bootstrap, opts.instanceQuerier(transports), opts.randomizer, opts.logger),
	)
	delegate := resolver.NewZoneAffinityClusterResolver(
		composite, cfg.bootstrapConfig().MyZone(), true, opts.randomizer, opts.logger)
	return resolver.NewAsyncResolver(queryResolverName, delegate,
		resolver.WithRefreshInterval(cfg.refreshInterval()),
		resolver.WithWarmUpTimeout(cfg.warmUpTimeout()),
		resolver.WithAsyncLogger(opts.logger),
	)
}

func initialEndpoints(cfg *Config, delegate resolver.ClusterResolver, logger *zap.Logger) ([]endpoint.Endpoint, error) {
	initial := delegate.ClusterEndpoints(context.Background())
	if len(initial) == 0 {
		logger.Error("initial resolution of registry server endpoints failed")
		if cfg.FailFastOnInit {
			return nil, errEmptyBootstrap
		}
	}
	return initial, nil
}

func newClientFactory(name string, cfg *Config, res resolver.ClosableResolver, transports transport.ClientFactory, opts *options) transport.Factory {
	return &clientFactory{
		name:       name,
		res:        res,
		transports: transports,
		cfg:        cfg,
		logger:     opts.logger,
	}
}

// clientFactory assembles the decorator chain for one client role:
// Sessioned on the outside, Retryable across the resolver's endpoints,
// Redirecting immediately above the raw transport.
type clientFactory struct {
	name       string
	res        resolver.ClosableResolver
	transports transport.ClientFactory
	cfg        *Config
	logger     *zap.Logger

	shutdownOnce sync.Once
}

func (f *clientFactory) NewClient() transport.Client {
	redirecting := transport.NewRedirectingFactory(f.transports, f.logger)
	retryable := transport.NewRetryableFactory(f.name, f.res, redirecting, transport.LegacyEvaluator(), f.logger)
	return transport.NewSessionedClient(f.name, retryable, f.cfg.sessionInterval(), f.logger)
}

func (f *clientFactory) Shutdown() {
	f.shutdownOnce.Do(func() {
		f.res.Shutdown()
	})
}
