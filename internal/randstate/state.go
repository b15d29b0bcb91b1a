// Package randstate provides the explicit random state threaded through fold
// shuffling, negative fold selection and retry seed drawing.
package randstate

import "math/rand"

// MaxSeed bounds the seeds drawn for retries: seeds are in [0, MaxSeed).
const MaxSeed = 100000

// State encapsulates a seeded random number generator.
// It is not safe for concurrent use; the split engine is single-threaded.
type State struct {
	rand *rand.Rand
	seed int64
}

// New creates a State with the specified seed.
func New(seed int64) *State {
	return &State{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (s *State) Seed() int64 {
	return s.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (s *State) Intn(n int) int {
	return s.rand.Intn(n)
}

// Shuffle pseudo-randomizes the order of n elements.
func (s *State) Shuffle(n int, swap func(i, j int)) {
	s.rand.Shuffle(n, swap)
}

// DrawSeed returns a fresh seed in [0, MaxSeed).
func (s *State) DrawSeed() int64 {
	return s.rand.Int63n(MaxSeed)
}
