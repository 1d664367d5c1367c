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

package resolver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/registrymesh/discovery/endpoint"
)

// TXTResolver resolves registry server endpoints from DNS TXT records. It
// may return an empty list without that being an error; retry cadence is
// owned by the caller's refresh schedule, not by the implementation.
type TXTResolver interface {
	ResolveTXT(ctx context.Context, region, dnsName string, port int, urlContext string) ([]endpoint.Endpoint, error)
}

// BootstrapConfig carries the configuration consumed by the config-based
// resolver. Loading and binding of these values is the embedding
// application's concern.
type BootstrapConfig struct {
	// Region is the region the client runs in. Defaults to DefaultRegion.
	Region string
	// AvailabilityZones maps a region to its comma-split zone list.
	// Defaults to a single DefaultZone entry.
	AvailabilityZones map[string][]string
	// ServiceURLs maps a zone to the registry server URLs serving it.
	ServiceURLs map[string][]string
	// InstanceZone is the zone of the instance this client runs on. When
	// empty, the first configured zone for the region is assumed.
	InstanceZone string
	// UseDNS selects DNS TXT resolution over static configuration.
	UseDNS bool
	// PreferSameZone orders the local zone's URLs ahead of other zones'.
	PreferSameZone bool
	// DNSDomain is the registry cluster's DNS domain, queried at
	// txt.<region>.<domain>.
	DNSDomain string
	// Port is the registry server port used for DNS-discovered hosts.
	Port int
	// URLContext is the URL context path appended to discovered hosts.
	URLContext string
}

// RegionOrDefault returns the configured region, or DefaultRegion when
// unset.
func (c *BootstrapConfig) RegionOrDefault() string {
	if c.Region == "" {
		return DefaultRegion
	}
	return c.Region
}

// ZonesForRegion returns the availability zones configured for the region,
// or a single DefaultZone entry when none are configured.
func (c *BootstrapConfig) ZonesForRegion(region string) []string {
	if zones := c.AvailabilityZones[region]; len(zones) > 0 {
		return zones
	}
	return []string{DefaultZone}
}

// MyZone returns the zone of the running instance, falling back to the
// first configured zone when the instance's zone is unknown.
func (c *BootstrapConfig) MyZone() string {
	if c.InstanceZone != "" {
		return c.InstanceZone
	}
	return c.ZonesForRegion(c.RegionOrDefault())[0]
}

// ConfigClusterResolver resolves the bootstrap endpoint list either via a
// DNS TXT lookup or from static configuration, depending on the UseDNS
// flag.
type ConfigClusterResolver struct {
	config *BootstrapConfig
	txt    TXTResolver
	logger *zap.Logger
}

// NewConfigClusterResolver builds a config-based resolver. The TXT
// resolver may be nil when UseDNS is disabled.
func NewConfigClusterResolver(config *BootstrapConfig, txt TXTResolver, logger *zap.Logger) *ConfigClusterResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigClusterResolver{
		config: config,
		txt:    txt,
		logger: logger,
	}
}

func (r *ConfigClusterResolver) Region() string {
	return r.config.RegionOrDefault()
}

func (r *ConfigClusterResolver) ClusterEndpoints(ctx context.Context) []endpoint.Endpoint {
	if r.config.UseDNS {
		r.logger.Info("resolving registry endpoints via DNS", zap.String("dnsName", r.dnsName()))
		return r.endpointsFromDNS(ctx)
	}
	r.logger.Info("resolving registry endpoints via configuration")
	return r.endpointsFromConfig()
}

func (r *ConfigClusterResolver) endpointsFromDNS(ctx context.Context) []endpoint.Endpoint {
	dnsName := r.dnsName()
	if r.txt == nil {
		r.logger.Error("DNS resolution requested but no TXT resolver configured", zap.String("dnsName", dnsName))
		return nil
	}
	endpoints, err := r.txt.ResolveTXT(ctx, r.Region(), dnsName, r.config.Port, r.config.URLContext)
	if err != nil {
		r.logger.Error("DNS TXT lookup failed", zap.String("dnsName", dnsName), zap.Error(err))
		return nil
	}
	if len(endpoints) == 0 {
		r.logger.Error("cannot resolve to any endpoints for the given DNS name", zap.String("dnsName", dnsName))
	}
	return endpoints
}

func (r *ConfigClusterResolver) endpointsFromConfig() []endpoint.Endpoint {
	myZone := r.config.MyZone()
	var endpoints []endpoint.Endpoint
	for _, zone := range r.orderedZones(myZone) {
		for _, serviceURL := range r.config.ServiceURLs[zone] {
			resolved, err := endpoint.New(serviceURL, r.Region(), zone)
			if err != nil {
				r.logger.Warn("invalid registry server URL; removing from the server pool",
					zap.String("url", serviceURL), zap.Error(err))
				continue
			}
			endpoints = append(endpoints, resolved)
		}
	}

	r.logger.Debug("config resolved endpoints", zap.Stringers("endpoints", endpoints))

	if len(endpoints) == 0 {
		r.logger.Error("cannot resolve to any endpoints from provided configuration")
	}
	return endpoints
}

// orderedZones returns the zones to read service URLs for. When same-zone
// preference is enabled and the local zone is configured, the local zone
// leads and the remaining zones follow in configuration order.
func (r *ConfigClusterResolver) orderedZones(myZone string) []string {
	zones := r.config.ZonesForRegion(r.Region())
	if !r.config.PreferSameZone {
		return zones
	}
	ordered := make([]string, 0, len(zones))
	for _, zone := range zones {
		if zone == myZone {
			ordered = append([]string{zone}, ordered...)
		} else {
			ordered = append(ordered, zone)
		}
	}
	return ordered
}

func (r *ConfigClusterResolver) dnsName() string {
	return fmt.Sprintf("txt.%s.%s", r.Region(), r.config.DNSDomain)
}
