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
	"go.uber.org/zap"

	"github.com/registrymesh/discovery/dnstxt"
	"github.com/registrymesh/discovery/endpoint"
	"github.com/registrymesh/discovery/resolver"
)

// Option customizes how the factories assemble resolvers and clients.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(opts *options) {
	f(opts)
}

// WithLogger sets the logger used by every component the factories build.
// The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(opts *options) {
		opts.logger = logger
	})
}

// WithRandomizer overrides the shuffle policy, mainly so tests can inject
// a seeded one.
func WithRandomizer(randomizer endpoint.Randomizer) Option {
	return optionFunc(func(opts *options) {
		opts.randomizer = randomizer
	})
}

// WithTXTResolver overrides the DNS TXT resolver used when
// Config.UseDNSForServiceURLs is set. The default queries the system
// resolver via the dnstxt package.
func WithTXTResolver(txt resolver.TXTResolver) Option {
	return optionFunc(func(opts *options) {
		opts.txt = txt
	})
}

// WithRegistrySource supplies the local registry view consumed by the
// composite resolver strategies. Without it, composite strategies fall
// back to their non-composite defaults.
func WithRegistrySource(source resolver.RegistrySource) Option {
	return optionFunc(func(opts *options) {
		opts.registrySource = source
	})
}

// WithInstanceQuerier overrides how composite resolvers ask a peer server
// for the instances behind a VIP. The default issues a VIP query over the
// raw transport.
func WithInstanceQuerier(querier resolver.InstanceQuerier) Option {
	return optionFunc(func(opts *options) {
		opts.querier = querier
	})
}

type options struct {
	logger         *zap.Logger
	randomizer     endpoint.Randomizer
	txt            resolver.TXTResolver
	registrySource resolver.RegistrySource
	querier        resolver.InstanceQuerier
}

func newOptions(applied ...Option) *options {
	opts := &options{}
	for _, option := range applied {
		option.apply(opts)
	}
	if opts.logger == nil {
		opts.logger = zap.NewNop()
	}
	if opts.randomizer == nil {
		opts.randomizer = endpoint.NewRandomizer()
	}
	if opts.txt == nil {
		opts.txt = dnstxt.New(nil, opts.logger)
	}
	return opts
}
