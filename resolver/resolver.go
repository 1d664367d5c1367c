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

// Package resolver turns configuration, DNS data, and registry data into
// ordered, zone-aware lists of registry server endpoints. Resolvers are
// composed by wrapping: a config- or DNS-backed resolver produces the raw
// list, a zone-affinity resolver reorders it, a composite resolver prefers
// a cheap local source over a remote call, and an async resolver caches
// the result and refreshes it in the background.
package resolver

import (
	"context"

	"github.com/registrymesh/discovery/endpoint"
)

// Default values applied when the corresponding configuration is unset.
const (
	DefaultRegion = "us-east-1"
	DefaultZone   = "defaultZone"
)

// ClusterResolver resolves the current set of registry server endpoints.
type ClusterResolver interface {
	// Region returns the region this resolver resolves endpoints for.
	Region() string

	// ClusterEndpoints returns the ordered endpoint list. It never returns
	// a nil slice that callers must distinguish from empty: an empty list
	// is a valid, if degenerate, result. Each call may re-derive the list;
	// no ordering guarantee is implied beyond what specific
	// implementations document.
	ClusterEndpoints(ctx context.Context) []endpoint.Endpoint
}

// ClosableResolver is a ClusterResolver that owns background resources.
type ClosableResolver interface {
	ClusterResolver

	// Shutdown releases the resolver's resources. It is idempotent.
	Shutdown()
}

// WrapClosable adapts a plain ClusterResolver to the ClosableResolver
// interface with a no-op Shutdown. A resolver that already implements
// ClosableResolver is returned unchanged.
func WrapClosable(res ClusterResolver) ClosableResolver {
	if closable, ok := res.(ClosableResolver); ok {
		return closable
	}
	return nopClosableResolver{res}
}

type nopClosableResolver struct {
	ClusterResolver
}

func (nopClosableResolver) Shutdown() {}
