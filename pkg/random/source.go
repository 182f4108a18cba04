// Package random provides a small, seedable pseudo-random source whose output
// is reproducible bit for bit across platforms and runs. All distributions are
// derived from repeated calls to Next so that a fixed seed pins down every draw.
package random

import (
	"math"
	"time"
)

const (
	golden32   = 0x9E3779B9
	twoPow32   = 4294967296.0
	minUniform = 1.0 / twoPow32
)

// Source is a mulberry32 generator. It is not safe for concurrent use; each
// trial owns its own Source.
type Source struct {
	seed  uint32
	state uint32
}

// New returns a Source seeded with seed.
func New(seed uint32) *Source {
	return &Source{seed: seed, state: seed}
}

// NewUnseeded returns a Source seeded from the wall clock. Runs using it are
// not reproducible unless the caller records Seed().
func NewUnseeded() *Source {
	return New(ClockSeed())
}

// ClockSeed derives a seed from the current time.
func ClockSeed() uint32 {
	now := uint64(time.Now().UnixNano())
	return mix32(uint32(now) ^ uint32(now>>32))
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() uint32 {
	return s.seed
}

// Uint32 advances the generator and returns the next 32-bit value.
func (s *Source) Uint32() uint32 {
	s.state += 0x6D2B79F5
	z := s.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	return z ^ (z >> 14)
}

// Next returns a uniform float in [0, 1).
func (s *Source) Next() float64 {
	return float64(s.Uint32()) / twoPow32
}

// Intn returns a uniform integer in [0, n). It panics if n <= 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		panic("random: Intn called with non-positive n")
	}
	return int(s.Next() * float64(n))
}

// Uniform returns a uniform float in [lo, hi).
func (s *Source) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.Next()
}

// Normal returns a normal variate using the Box-Muller transform over two
// uniform draws.
func (s *Source) Normal(mean, stdDev float64) float64 {
	u1 := s.Next()
	if u1 < minUniform {
		u1 = minUniform
	}
	u2 := s.Next()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return mean + stdDev*z
}

// LogNormal returns exp(N(mu, sigma)).
func (s *Source) LogNormal(mu, sigma float64) float64 {
	return math.Exp(s.Normal(mu, sigma))
}

// Triangular samples the triangular distribution on [lo, hi] with the given
// mode via its inverse CDF.
func (s *Source) Triangular(lo, mode, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	u := s.Next()
	cut := (mode - lo) / (hi - lo)
	if u < cut {
		return lo + math.Sqrt(u*(hi-lo)*(mode-lo))
	}
	return hi - math.Sqrt((1-u)*(hi-lo)*(hi-mode))
}

// DeriveSeed maps a base seed and trial index to an independent seed. The
// mapping is a pure function so trial i draws the same stream regardless of
// which worker runs it or in what order.
func DeriveSeed(base uint32, index int) uint32 {
	return mix32(base ^ mix32(uint32(index)*golden32+golden32))
}

// mix32 is the 32-bit splitmix finalizer.
func mix32(z uint32) uint32 {
	z ^= z >> 16
	z *= 0x85EBCA6B
	z ^= z >> 13
	z *= 0xC2B2AE35
	z ^= z >> 16
	return z
}
