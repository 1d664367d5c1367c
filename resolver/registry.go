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

// RegistrySource exposes the already-synchronized local view of the
// registry: the known peer addresses for a logical cluster identifier
// (VIP). Implementations must not perform network calls.
type RegistrySource interface {
	Instances(vip string) []endpoint.Endpoint
}

// RegistryResolver resolves registry server endpoints from the local
// registry data, without any network call. It is the cheap half of a
// composite resolver.
type RegistryResolver struct {
	region string
	vip    string
	source RegistrySource
	logger *zap.Logger
}

// NewRegistryResolver builds a resolver over the given local registry
// source, filtered to the given VIP.
func NewRegistryResolver(region, vip string, source RegistrySource, logger *zap.Logger) *RegistryResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryResolver{
		region: region,
		vip:    vip,
		source: source,
		logger: logger,
	}
}

func (r *RegistryResolver) Region() string {
	return r.region
}

func (r *RegistryResolver) ClusterEndpoints(_ context.Context) []endpoint.Endpoint {
	instances := r.source.Instances(r.vip)
	if len(instances) == 0 {
		r.logger.Debug("local registry has no instances for VIP", zap.String("vip", r.vip))
	}
	return instances
}
