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
	"time"

	"github.com/registrymesh/discovery/resolver"
)

// Default intervals applied when the corresponding Config field is unset.
const (
	defaultPollInterval    = 5 * time.Minute
	defaultRefreshInterval = 5 * time.Minute
	defaultWarmUpTimeout   = 5 * time.Second
	defaultSessionInterval = 20 * time.Minute
)

// CompositeBootstrapStrategy selects a bootstrap resolver that prefers the
// already-synchronized local registry and falls back to a remote VIP query
// before reading static configuration.
const CompositeBootstrapStrategy = "composite"

// Config carries everything the factories need to build resolvers and
// clients. Loading these values from files, flags, or the environment is
// the embedding application's concern.
type Config struct {
	// Region this client runs in. Empty means the default region.
	Region string
	// AvailabilityZones maps a region to its zone list.
	AvailabilityZones map[string][]string
	// ServiceURLs maps a zone to the registry server URLs serving it.
	ServiceURLs map[string][]string
	// InstanceZone is the zone of the instance this client runs on.
	InstanceZone string
	// UseDNSForServiceURLs selects DNS TXT resolution over ServiceURLs.
	UseDNSForServiceURLs bool
	// PreferSameZone orders the local zone's servers first.
	PreferSameZone bool
	// DNSDomain is the registry cluster's DNS domain.
	DNSDomain string
	// Port is the registry server port for DNS-discovered hosts.
	Port int
	// URLContext is the URL context path for DNS-discovered hosts.
	URLContext string

	// ServiceURLPollInterval is the bootstrap resolver's refresh period.
	ServiceURLPollInterval time.Duration
	// AsyncRefreshInterval is the refresh period of composite resolvers.
	AsyncRefreshInterval time.Duration
	// AsyncWarmUpTimeout bounds the first blocking resolution of the
	// composite query resolver.
	AsyncWarmUpTimeout time.Duration
	// SessionRotationInterval is how often clients discard and rebuild
	// their inner delegate.
	SessionRotationInterval time.Duration

	// BootstrapResolverStrategy selects the bootstrap strategy; the only
	// recognized value is CompositeBootstrapStrategy, anything else means
	// the default config/DNS bootstrap.
	BootstrapResolverStrategy string
	// FetchRegistry reports whether this client fetches registry data at
	// all. The composite strategies need it.
	FetchRegistry bool
	// UseCompositeQueryResolver routes query clients through a composite
	// local-with-remote-fallback resolver instead of the bootstrap
	// resolver.
	UseCompositeQueryResolver bool
	// FailFastOnInit aborts construction when the bootstrap resolver's
	// initial resolution comes up empty. Experimental.
	FailFastOnInit bool
	// ReadClusterVIP identifies the read cluster in registry data.
	ReadClusterVIP string
	// WriteClusterVIP identifies the write cluster in registry data.
	WriteClusterVIP string
}

func (c *Config) bootstrapConfig() *resolver.BootstrapConfig {
	return &resolver.BootstrapConfig{
		Region:            c.Region,
		AvailabilityZones: c.AvailabilityZones,
		ServiceURLs:       c.ServiceURLs,
		InstanceZone:      c.InstanceZone,
		UseDNS:            c.UseDNSForServiceURLs,
		PreferSameZone:    c.PreferSameZone,
		DNSDomain:         c.DNSDomain,
		Port:              c.Port,
		URLContext:        c.URLContext,
	}
}

func (c *Config) pollInterval() time.Duration {
	if c.ServiceURLPollInterval > 0 {
		return c.ServiceURLPollInterval
	}
	return defaultPollInterval
}

func (c *Config) refreshInterval() time.Duration {
	if c.AsyncRefreshInterval > 0 {
		return c.AsyncRefreshInterval
	}
	return defaultRefreshInterval
}

func (c *Config) warmUpTimeout() time.Duration {
	if c.AsyncWarmUpTimeout > 0 {
		return c.AsyncWarmUpTimeout
	}
	return defaultWarmUpTimeout
}

func (c *Config) sessionInterval() time.Duration {
	if c.SessionRotationInterval > 0 {
		return c.SessionRotationInterval
	}
	return defaultSessionInterval
}
