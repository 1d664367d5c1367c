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

// Package dnstxt resolves registry server endpoints from DNS TXT records.
//
// The discovery scheme is two-level: the TXT record at
// txt.<region>.<domain> lists one DNS name per availability zone, and the
// TXT record at txt.<zone-dns-name> lists the server host names in that
// zone. The zone is taken from the first label of the zone DNS name.
package dnstxt

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"go.uber.org/zap"

	"github.com/registrymesh/discovery/endpoint"
)

// Resolver implements the resolver package's TXTResolver interface on top
// of a *net.Resolver.
type Resolver struct {
	resolver *net.Resolver
	logger   *zap.Logger
}

// New builds a Resolver. A nil net.Resolver means net.DefaultResolver.
func New(resolver *net.Resolver, logger *zap.Logger) *Resolver {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{resolver: resolver, logger: logger}
}

// ResolveTXT looks up the zone DNS names behind dnsName and then the
// server hosts behind each zone. A zone whose lookup fails is skipped with
// a warning; only the top-level lookup failing is an error, and a record
// that is merely absent or empty counts as an empty result, not a
// failure.
func (r *Resolver) ResolveTXT(ctx context.Context, region, dnsName string, port int, urlContext string) ([]endpoint.Endpoint, error) {
	zoneNames, err := r.lookup(ctx, dnsName)
	if err != nil {
		return nil, fmt.Errorf("looking up zone TXT record %q: %w", dnsName, err)
	}

	var endpoints []endpoint.Endpoint
	for _, zoneDNSName := range zoneNames {
		zone := zoneFromDNSName(zoneDNSName)
		hosts, err := r.lookup(ctx, "txt."+zoneDNSName)
		if err != nil {
			r.logger.Warn("skipping zone with failing TXT lookup",
				zap.String("zone", zone), zap.String("dnsName", zoneDNSName), zap.Error(err))
			continue
		}
		for _, host := range hosts {
			serviceURL := buildServiceURL(host, port, urlContext)
			resolved, err := endpoint.New(serviceURL, region, zone)
			if err != nil {
				r.logger.Warn("dropping DNS-discovered host with invalid URL",
					zap.String("url", serviceURL), zap.Error(err))
				continue
			}
			endpoints = append(endpoints, resolved)
		}
	}
	return endpoints, nil
}

// lookup fetches a TXT record set and splits each record on whitespace,
// since a single record may carry several names. The resolver reports a
// name without TXT records as a not-found error; that is an empty result
// here, not a failure.
func (r *Resolver) lookup(ctx context.Context, name string) ([]string, error) {
	records, err := r.resolver.LookupTXT(ctx, name)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, nil
		}
		return nil, err
	}
	var values []string
	for _, record := range records {
		values = append(values, strings.Fields(record)...)
	}
	return values, nil
}

func zoneFromDNSName(dnsName string) string {
	zone, _, _ := strings.Cut(dnsName, ".")
	return zone
}

func buildServiceURL(host string, port int, urlContext string) string {
	return fmt.Sprintf("http://%s:%d/%s", host, port, strings.TrimLeft(urlContext, "/"))
}
