// Package rng provides the injectable random source used by every
// probabilistic step of floor generation.
package rng

import (
	"math/rand"
	"time"
)

// Source is the randomness consumed by generation.
// *math/rand.Rand satisfies it.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// Intn returns a uniform value in [0, n). n must be > 0.
	Intn(n int) int
}

// NewSeeded returns a reproducible Source for the given seed
func NewSeeded(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// NewDefault returns a Source seeded from the current time
func NewDefault() Source {
	return NewSeeded(time.Now().UnixNano())
}

// FloorSeed derives the seed for one floor from a base seed
func FloorSeed(base int64, floorNumber int) int64 {
	return base + int64(floorNumber)
}

// Scripted replays fixed sequences of values. When a sequence runs out it
// wraps around; an empty sequence yields zero.
type Scripted struct {
	Floats []float64
	Ints   []int

	fi, ii int
}

// NewScripted creates a Scripted source
func NewScripted(floats []float64, ints []int) *Scripted {
	return &Scripted{Floats: floats, Ints: ints}
}

// Float64 returns the next scripted float
func (s *Scripted) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.fi%len(s.Floats)]
	s.fi++
	return v
}

// Intn returns the next scripted int reduced into [0, n)
func (s *Scripted) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.ii%len(s.Ints)]
	s.ii++
	if v < 0 {
		v = -v
	}
	return v % n
}
