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

	"github.com/registrymesh/discovery/endpoint"
)

// CompositeResolver prefers a cheap local source over an expensive remote
// call: it returns the local resolver's result when non-empty, and only
// falls back to the remote resolver otherwise. The two results are never
// merged, and the remote resolver is not invoked when the local result
// suffices.
type CompositeResolver struct {
	region string
	local  ClusterResolver
	remote ClusterResolver
}

// NewCompositeResolver builds a composite resolver. Region is reported
// from configuration, independent of either delegate.
func NewCompositeResolver(region string, local, remote ClusterResolver) *CompositeResolver {
	return &CompositeResolver{
		region: region,
		local:  local,
		remote: remote,
	}
}

func (r *CompositeResolver) Region() string {
	return r.region
}

func (r *CompositeResolver) ClusterEndpoints(ctx context.Context) []endpoint.Endpoint {
	if result := r.local.ClusterEndpoints(ctx); len(result) > 0 {
		return result
	}
	return r.remote.ClusterEndpoints(ctx)
}
