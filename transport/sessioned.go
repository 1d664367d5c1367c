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

package transport

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/registrymesh/discovery/internal"
)

const defaultSessionDuration = 20 * time.Minute

// NewSessionedClient builds a client that periodically discards its inner
// delegate and lazily builds a fresh one from the factory, spreading load
// across newly resolved endpoints over time instead of pinning to one
// server indefinitely. Rotation is checked per call, not on a timer; a
// call in progress always completes against the delegate it started with.
//
// The effective session length is randomized between half and one and a
// half times the configured interval, so a fleet of clients does not
// rotate in lockstep.
func NewSessionedClient(name string, factory Factory, rotationInterval time.Duration, logger *zap.Logger) Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rotationInterval <= 0 {
		rotationInterval = defaultSessionDuration
	}
	return &sessionedClient{
		name:     name,
		factory:  factory,
		interval: rotationInterval,
		logger:   logger.With(zap.String("client", name)),
		clock:    internal.NewRealClock(),
		rnd:      internal.NewRand(),
	}
}

type sessionedClient struct {
	name     string
	factory  Factory
	interval time.Duration
	logger   *zap.Logger
	clock    internal.Clock

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand

	session atomic.Pointer[session]
}

// session pairs a delegate with its expiry so the pair swaps atomically.
type session struct {
	client  Client
	started time.Time
	length  time.Duration
}

func (c *sessionedClient) Execute(ctx context.Context, req *Request) (*Response, error) {
	return c.currentSession().client.Execute(ctx, req)
}

func (c *sessionedClient) Close() {
	if sess := c.session.Swap(nil); sess != nil {
		sess.client.Close()
	}
}

func (c *sessionedClient) currentSession() *session {
	for {
		sess := c.session.Load()
		if sess != nil && c.clock.Since(sess.started) < sess.length {
			return sess
		}
		fresh := &session{
			client:  c.factory.NewClient(),
			started: c.clock.Now(),
			length:  c.sessionLength(),
		}
		if c.session.CompareAndSwap(sess, fresh) {
			if sess != nil {
				sess.client.Close()
				c.logger.Debug("rotated session client",
					zap.Duration("sessionAge", c.clock.Since(sess.started)))
			}
			return fresh
		}
		// Another call won the rotation race; discard ours and retry.
		fresh.client.Close()
	}
}

func (c *sessionedClient) sessionLength() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval/2 + time.Duration(c.rnd.Int63n(int64(c.interval)))
}
