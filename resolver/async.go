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
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/registrymesh/discovery/endpoint"
	"github.com/registrymesh/discovery/internal"
)

// State describes where an AsyncResolver is in its lifecycle.
type State int32

const (
	// StateCold means no snapshot exists and no resolution has started.
	StateCold State = iota
	// StateWarmingUp means the first resolution attempt is in progress.
	StateWarmingUp
	// StateReady means a snapshot exists and is being served.
	StateReady
	// StateShutdown is terminal; the last snapshot remains readable.
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateCold:
		return "cold"
	case StateWarmingUp:
		return "warming-up"
	case StateReady:
		return "ready"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

const defaultRefreshInterval = 5 * time.Minute

// AsyncOption configures an AsyncResolver.
type AsyncOption interface {
	apply(*asyncOptions)
}

type asyncOptionFunc func(*asyncOptions)

func (f asyncOptionFunc) apply(opts *asyncOptions) {
	f(opts)
}

type asyncOptions struct {
	initial  []endpoint.Endpoint
	interval time.Duration
	warmUp   time.Duration
	logger   *zap.Logger
}

// WithInitialEndpoints seeds the resolver's cache so the first call never
// blocks. The background refresh schedule still starts on first use.
func WithInitialEndpoints(endpoints []endpoint.Endpoint) AsyncOption {
	return asyncOptionFunc(func(opts *asyncOptions) {
		opts.initial = endpoints
	})
}

// WithRefreshInterval sets the period of the background refresh. Defaults
// to five minutes.
func WithRefreshInterval(interval time.Duration) AsyncOption {
	return asyncOptionFunc(func(opts *asyncOptions) {
		opts.interval = interval
	})
}

// WithWarmUpTimeout bounds how long the first call waits for the initial
// resolution when no seed was supplied. Zero (the default) disables the
// wait entirely; the first call then returns whatever is cached, possibly
// nothing.
func WithWarmUpTimeout(timeout time.Duration) AsyncOption {
	return asyncOptionFunc(func(opts *asyncOptions) {
		opts.warmUp = timeout
	})
}

// WithAsyncLogger sets the logger used for refresh diagnostics.
func WithAsyncLogger(logger *zap.Logger) AsyncOption {
	return asyncOptionFunc(func(opts *asyncOptions) {
		opts.logger = logger
	})
}

// AsyncResolver decouples callers from resolution latency and cost. It
// serves a cached endpoint list and refreshes it from the delegate on a
// background schedule that starts on first use.
//
// Reads are non-blocking once a snapshot exists: a refresh atomically
// replaces the whole snapshot, so concurrent readers observe either the
// old or the new list in its entirety, never a mix. A failed refresh
// keeps the previous snapshot. At most one refresh is in flight at a
// time; an overlapping scheduled trigger is skipped rather than queued.
type AsyncResolver struct {
	name     string
	delegate ClusterResolver
	interval time.Duration
	warmUp   time.Duration
	logger   *zap.Logger
	clock    internal.Clock

	ctx    context.Context
	cancel context.CancelFunc

	state    atomic.Int32
	current  atomic.Pointer[snapshot]
	inFlight atomic.Bool

	startOnce    sync.Once
	shutdownOnce sync.Once
	warmedOnce   sync.Once
	warmed       chan struct{}
	done         chan struct{}
}

// snapshot is the unit of atomic replacement. The endpoints slice is never
// mutated after the snapshot is published.
type snapshot struct {
	endpoints []endpoint.Endpoint
	fetchedAt time.Time
}

// NewAsyncResolver wraps delegate with a periodically refreshed cache. The
// name appears in log output to tell resolvers apart.
func NewAsyncResolver(name string, delegate ClusterResolver, options ...AsyncOption) *AsyncResolver {
	opts := asyncOptions{
		interval: defaultRefreshInterval,
		logger:   zap.NewNop(),
	}
	for _, option := range options {
		option.apply(&opts)
	}
	ctx, cancel := context.WithCancel(context.Background())
	resolver := &AsyncResolver{
		name:     name,
		delegate: delegate,
		interval: opts.interval,
		warmUp:   opts.warmUp,
		logger:   opts.logger.With(zap.String("resolver", name)),
		clock:    internal.NewRealClock(),
		ctx:      ctx,
		cancel:   cancel,
		warmed:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	if opts.initial != nil {
		seeded := make([]endpoint.Endpoint, len(opts.initial))
		copy(seeded, opts.initial)
		resolver.current.Store(&snapshot{endpoints: seeded, fetchedAt: resolver.clock.Now()})
		resolver.state.Store(int32(StateReady))
		resolver.markWarmed()
	}
	return resolver
}

func (r *AsyncResolver) Region() string {
	return r.delegate.Region()
}

// ClusterEndpoints returns the cached endpoint list. The first call starts
// the background refresh schedule; when the cache is cold and a warm-up
// timeout is configured, that call blocks up to the timeout waiting for
// the initial resolution and then returns whatever is available. All other
// calls are non-blocking. Callers must not modify the returned slice.
func (r *AsyncResolver) ClusterEndpoints(ctx context.Context) []endpoint.Endpoint {
	r.startOnce.Do(r.start)
	if r.warmUp > 0 {
		r.awaitWarmUp(ctx)
	}
	snap := r.current.Load()
	if snap == nil {
		return nil
	}
	return snap.endpoints
}

// State reports the resolver's lifecycle state, for diagnostics.
func (r *AsyncResolver) State() State {
	return State(r.state.Load())
}

// LastFetched returns when the current snapshot was obtained, or the zero
// time when no snapshot exists yet.
func (r *AsyncResolver) LastFetched() time.Time {
	if snap := r.current.Load(); snap != nil {
		return snap.fetchedAt
	}
	return time.Time{}
}

// Shutdown stops future background refreshes. It is idempotent. The last
// cached snapshot remains readable so in-flight consumers are not
// disrupted; an in-flight refresh is allowed to finish naturally.
func (r *AsyncResolver) Shutdown() {
	r.shutdownOnce.Do(func() {
		r.state.Store(int32(StateShutdown))
		r.cancel()
		r.markWarmed()
		r.logger.Info("async resolver shut down")
	})
}

func (r *AsyncResolver) start() {
	r.state.CompareAndSwap(int32(StateCold), int32(StateWarmingUp))
	go r.run()
}

func (r *AsyncResolver) run() {
	defer close(r.done)
	if r.current.Load() == nil {
		r.tryRefresh()
	}
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.Chan():
			r.tryRefresh()
		}
	}
}

// tryRefresh starts a refresh unless one is still running. The in-flight
// flag, not the scheduler, is what prevents overlapping refreshes.
func (r *AsyncResolver) tryRefresh() {
	if !r.inFlight.CompareAndSwap(false, true) {
		r.logger.Debug("refresh still in flight; skipping scheduled trigger")
		return
	}
	go func() {
		defer r.inFlight.Store(false)
		r.refresh()
	}()
}

func (r *AsyncResolver) refresh() {
	defer r.markWarmed()
	// Shutdown cancels the run loop only; a refresh already in flight is
	// detached from that cancellation so it can complete naturally.
	endpoints := r.delegate.ClusterEndpoints(context.WithoutCancel(r.ctx))
	previous := r.current.Load()
	if len(endpoints) == 0 {
		if previous != nil {
			r.logger.Warn("refresh resolved no endpoints; keeping previous snapshot",
				zap.Int("cachedEndpoints", len(previous.endpoints)))
			return
		}
		r.logger.Error("initial resolution returned no endpoints")
	}
	r.current.Store(&snapshot{endpoints: endpoints, fetchedAt: r.clock.Now()})
	r.state.CompareAndSwap(int32(StateWarmingUp), int32(StateReady))
	r.logger.Debug("refreshed endpoint snapshot", zap.Int("endpoints", len(endpoints)))
}

func (r *AsyncResolver) awaitWarmUp(ctx context.Context) {
	select {
	case <-r.warmed:
		return
	default:
	}
	timer := r.clock.NewTimer(r.warmUp)
	defer timer.Stop()
	select {
	case <-r.warmed:
	case <-timer.Chan():
		r.logger.Warn("warm-up timed out before the first resolution completed",
			zap.Duration("timeout", r.warmUp))
	case <-ctx.Done():
	}
}

func (r *AsyncResolver) markWarmed() {
	r.warmedOnce.Do(func() {
		close(r.warmed)
	})
}
