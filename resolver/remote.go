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

// InstanceQuerier asks one registry server for the instances behind a VIP.
// This is the expensive, network-crossing half of a composite resolver.
type InstanceQuerier interface {
	InstancesByVIP(ctx context.Context, server endpoint.Endpoint, vip string) ([]endpoint.Endpoint, error)
}

// RemoteResolver resolves registry server endpoints by querying a peer's
// discovery endpoint. The peer to ask is drawn at random from a root
// resolver's list, so query load spreads across the known servers. A
// lookup failure resolves to an empty list; retry cadence belongs to the
// surrounding refresh schedule.
type RemoteResolver struct {
	region     string
	vip        string
	root       ClusterResolver
	querier    InstanceQuerier
	randomizer endpoint.Randomizer
	logger     *zap.Logger
}

// NewRemoteResolver builds a remote resolver that picks a server from
// root and asks it for the instances behind vip.
func NewRemoteResolver(
	region, vip string,
	root ClusterResolver,
	querier InstanceQuerier,
	randomizer endpoint.Randomizer,
	logger *zap.Logger,
) *RemoteResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteResolver{
		region:     region,
		vip:        vip,
		root:       root,
		querier:    querier,
		randomizer: randomizer,
		logger:     logger,
	}
}

func (r *RemoteResolver) Region() string {
	return r.region
}

func (r *RemoteResolver) ClusterEndpoints(ctx context.Context) []endpoint.Endpoint {
	candidates := r.randomizer.Randomize(r.root.ClusterEndpoints(ctx))
	if len(candidates) == 0 {
		r.logger.Error("no root endpoints available to query for VIP", zap.String("vip", r.vip))
		return nil
	}
	server := candidates[0]
	instances, err := r.querier.InstancesByVIP(ctx, server, r.vip)
	if err != nil {
		r.logger.Warn("remote VIP query failed",
			zap.String("vip", r.vip), zap.String("server", server.ServiceURL), zap.Error(err))
		return nil
	}
	return instances
}
