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

package endpoint

import (
	"math/rand"
	"sync"

	"github.com/registrymesh/discovery/internal"
)

// Randomizer shuffles endpoint lists. Implementations must return a new
// permutation of the input and must not mutate the input slice.
type Randomizer interface {
	Randomize([]Endpoint) []Endpoint
}

// NewRandomizer returns a Randomizer backed by a freshly seeded random
// source. It is safe for concurrent use.
func NewRandomizer() Randomizer {
	return &shuffleRandomizer{rnd: internal.NewRand()}
}

// NewSeededRandomizer returns a Randomizer using the given source, so that
// shuffles can be made deterministic.
func NewSeededRandomizer(source rand.Source) Randomizer {
	return &shuffleRandomizer{rnd: rand.New(source)} //nolint:gosec // shuffle order does not need cryptographic randomness
}

type shuffleRandomizer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (r *shuffleRandomizer) Randomize(endpoints []Endpoint) []Endpoint {
	shuffled := make([]Endpoint, len(endpoints))
	copy(shuffled, endpoints)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}
