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

package resolver_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/registrymesh/discovery/endpoint"
	"github.com/registrymesh/discovery/resolver"
)

const (
	localZone   = "us-east-1a"
	foreignZone = "us-east-1b"
)

// staticResolver serves a fixed endpoint list and counts calls. It is
// safe for concurrent use so it can back async resolver tests too.
type staticResolver struct {
	region string

	mu        sync.Mutex
	endpoints []endpoint.Endpoint
	calls     int
}

func (r *staticResolver) Region() string {
	return r.region
}

func (r *staticResolver) ClusterEndpoints(context.Context) []endpoint.Endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.endpoints
}

func (r *staticResolver) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func testEndpoint(t *testing.T, host, zone string) endpoint.Endpoint {
	t.Helper()
	e, err := endpoint.New("http://"+host+".example.com:8080/v2/", "us-east-1", zone)
	require.NoError(t, err)
	return e
}

func zonedEndpoints(t *testing.T, local, foreign int) []endpoint.Endpoint {
	t.Helper()
	var endpoints []endpoint.Endpoint
	for i := 0; i < local; i++ {
		endpoints = append(endpoints, testEndpoint(t, "local-"+string(rune('a'+i)), localZone))
	}
	for i := 0; i < foreign; i++ {
		endpoints = append(endpoints, testEndpoint(t, "foreign-"+string(rune('a'+i)), foreignZone))
	}
	return endpoints
}

func seededRandomizer() endpoint.Randomizer {
	return endpoint.NewSeededRandomizer(rand.NewSource(7))
}

func TestZoneAffinityOutputIsPermutation(t *testing.T) {
	t.Parallel()

	input := zonedEndpoints(t, 4, 5)
	delegate := &staticResolver{region: "us-east-1", endpoints: input}
	res := resolver.NewZoneAffinityClusterResolver(delegate, localZone, true, seededRandomizer(), nil)

	output := res.ClusterEndpoints(context.Background())
	assert.ElementsMatch(t, input, output)
}

func TestZoneAffinityLocalZoneLeads(t *testing.T) {
	t.Parallel()

	delegate := &staticResolver{region: "us-east-1", endpoints: zonedEndpoints(t, 3, 4)}
	res := resolver.NewZoneAffinityClusterResolver(delegate, localZone, true, seededRandomizer(), nil)

	output := res.ClusterEndpoints(context.Background())
	require.Len(t, output, 7)
	for i, e := range output {
		if i < 3 {
			assert.Equal(t, localZone, e.Zone, "position %d", i)
		} else {
			assert.Equal(t, foreignZone, e.Zone, "position %d", i)
		}
	}
}

func TestZoneAntiAffinityForeignZoneLeads(t *testing.T) {
	t.Parallel()

	delegate := &staticResolver{region: "us-east-1", endpoints: zonedEndpoints(t, 3, 4)}
	res := resolver.NewZoneAffinityClusterResolver(delegate, localZone, false, seededRandomizer(), nil)

	output := res.ClusterEndpoints(context.Background())
	require.Len(t, output, 7)
	for i, e := range output {
		if i < 4 {
			assert.Equal(t, foreignZone, e.Zone, "position %d", i)
		} else {
			assert.Equal(t, localZone, e.Zone, "position %d", i)
		}
	}
}

func TestZoneAffinityAllLocal(t *testing.T) {
	t.Parallel()

	input := zonedEndpoints(t, 5, 0)
	delegate := &staticResolver{region: "us-east-1", endpoints: input}

	affinity := resolver.NewZoneAffinityClusterResolver(delegate, localZone, true, seededRandomizer(), nil)
	assert.ElementsMatch(t, input, affinity.ClusterEndpoints(context.Background()))

	antiAffinity := resolver.NewZoneAffinityClusterResolver(delegate, localZone, false, seededRandomizer(), nil)
	assert.ElementsMatch(t, input, antiAffinity.ClusterEndpoints(context.Background()))
}

func TestZoneAffinityAllForeign(t *testing.T) {
	t.Parallel()

	input := zonedEndpoints(t, 0, 5)
	delegate := &staticResolver{region: "us-east-1", endpoints: input}

	affinity := resolver.NewZoneAffinityClusterResolver(delegate, localZone, true, seededRandomizer(), nil)
	assert.ElementsMatch(t, input, affinity.ClusterEndpoints(context.Background()))

	antiAffinity := resolver.NewZoneAffinityClusterResolver(delegate, localZone, false, seededRandomizer(), nil)
	assert.ElementsMatch(t, input, antiAffinity.ClusterEndpoints(context.Background()))
}

func TestZoneAffinityEmptyInput(t *testing.T) {
	t.Parallel()

	delegate := &staticResolver{region: "us-east-1"}
	res := resolver.NewZoneAffinityClusterResolver(delegate, localZone, true, seededRandomizer(), nil)
	assert.Empty(t, res.ClusterEndpoints(context.Background()))
}

func TestZoneAffinityRegionFromDelegate(t *testing.T) {
	t.Parallel()

	delegate := &staticResolver{region: "eu-central-1"}
	res := resolver.NewZoneAffinityClusterResolver(delegate, localZone, true, seededRandomizer(), nil)
	assert.Equal(t, "eu-central-1", res.Region())
}
