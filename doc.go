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

// Package discovery is the endpoint-resolution and resilient-transport
// layer of a service-discovery client. It decides, at any moment, which
// registry server addresses a client should talk to, and wraps raw
// request execution with retry, redirect, and session-rotation behavior
// so that a single transient server failure never surfaces to the caller.
//
// Endpoint lists come out of a resolver chain: a config- or DNS-backed
// bootstrap resolver produces the raw list, zone-affinity ordering biases
// it toward the caller's own availability zone, and an asynchronous
// caching resolver serves it instantly while refreshing in the background.
// Composite resolvers prefer the already-synchronized local registry and
// fall back to a remote VIP query only when the local view is empty.
//
// Requests run through a decorator chain assembled per client role by
// [NewQueryFactory] and [NewRegistrationFactory]: the sessioned wrapper
// periodically recycles its delegate to spread load across newly resolved
// servers, the retryable wrapper walks the current endpoint list until
// one server answers acceptably, and the redirecting wrapper follows a
// single redirect hop. Callers only ever see a successful response or a
// final failure after every resolved endpoint was exhausted.
//
// The raw transport, DNS TXT record parsing, configuration loading, and
// the local registry view are consumed through narrow interfaces; this
// package does not open sockets itself.
package discovery
