package randutil

import (
	rand "math/rand/v2"
	"sync/atomic"
	"time"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from the provided int64.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Source hands out independent generators, one per room. A zero seed is
// replaced by the current time.
type Source struct {
	base int64
	next atomic.Int64
}

func NewSource(seed int64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{base: seed}
}

// Seed returns the base seed the source was created with.
func (s *Source) Seed() int64 { return s.base }

// Next returns a fresh generator. Generators are not safe for concurrent use;
// each one belongs to a single room.
func (s *Source) Next() *rand.Rand {
	n := s.next.Add(1)
	return New(s.base + n*int64(goldenRatio64>>1))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
