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

	"go.uber.org/zap"

	"github.com/registrymesh/discovery/endpoint"
)

// ZoneAffinityClusterResolver reorders a delegate's endpoint list so that
// servers in the client's own zone lead. Servers within each zone group are
// shuffled via the injected randomizer; the output is always a permutation
// of the delegate's list.
//
// With affinity disabled the final concatenated list is reversed, so
// other-zone servers lead. The reversal also reverses the internal order
// within each zone group; that side effect is accepted in exchange for
// reusing one ordering algorithm for both polarities.
type ZoneAffinityClusterResolver struct {
	delegate     ClusterResolver
	myZone       string
	zoneAffinity bool
	randomizer   endpoint.Randomizer
	logger       *zap.Logger
}

// NewZoneAffinityClusterResolver wraps delegate with zone-affinity
// (zoneAffinity true) or anti-affinity (zoneAffinity false) ordering.
func NewZoneAffinityClusterResolver(
	delegate ClusterResolver,
	myZone string,
	zoneAffinity bool,
	randomizer endpoint.Randomizer,
	logger *zap.Logger,
) *ZoneAffinityClusterResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZoneAffinityClusterResolver{
		delegate:     delegate,
		myZone:       myZone,
		zoneAffinity: zoneAffinity,
		randomizer:   randomizer,
		logger:       logger,
	}
}

func (r *ZoneAffinityClusterResolver) Region() string {
	return r.delegate.Region()
}

func (r *ZoneAffinityClusterResolver) ClusterEndpoints(ctx context.Context) []endpoint.Endpoint {
	mine, remaining := splitByZone(r.delegate.ClusterEndpoints(ctx), r.myZone)
	randomized := r.randomizeAndMerge(mine, remaining)
	if !r.zoneAffinity {
		reverse(randomized)
	}
	r.logger.Debug("zone affinity ordering applied",
		zap.String("zone", r.myZone), zap.Stringers("endpoints", randomized))
	return randomized
}

func (r *ZoneAffinityClusterResolver) randomizeAndMerge(mine, remaining []endpoint.Endpoint) []endpoint.Endpoint {
	if len(mine) == 0 {
		return r.randomizer.Randomize(remaining)
	}
	if len(remaining) == 0 {
		return r.randomizer.Randomize(mine)
	}
	merged := r.randomizer.Randomize(mine)
	return append(merged, r.randomizer.Randomize(remaining)...)
}

// splitByZone partitions endpoints into those whose zone exactly matches
// myZone and the rest, preserving relative order within each partition.
func splitByZone(endpoints []endpoint.Endpoint, myZone string) (mine, remaining []endpoint.Endpoint) {
	for _, e := range endpoints {
		if e.Zone == myZone {
			mine = append(mine, e)
		} else {
			remaining = append(remaining, e)
		}
	}
	return mine, remaining
}

func reverse(endpoints []endpoint.Endpoint) {
	for i, j := 0, len(endpoints)-1; i < j; i, j = i+1, j-1 {
		endpoints[i], endpoints[j] = endpoints[j], endpoints[i]
	}
}
