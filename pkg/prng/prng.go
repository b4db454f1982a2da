// Package prng provides the fuzzer's single deterministic random source plus
// a context-derived seed mixer, mirroring the source fuzzer's FastRand /
// DeriveRandomSeed pair: one process-wide reseedable generator for mutation
// and scheduling decisions, and a pure function for deriving a reproducible
// per-value seed from (fuzzer seed, context, position) so replays with the
// same seed are bit-for-bit identical.
package prng

import "math/rand"

// Source wraps a *rand.Rand seeded once at fuzzer start. It is never the
// package-level math/rand default source, so two Sources seeded identically
// produce identical sequences regardless of what else is running.
type Source struct {
	r *rand.Rand
}

// New returns a Source seeded deterministically from seed.
func New(seed uint64) *Source {
	return &Source{r: rand.New(rand.NewSource(int64(seed)))}
}

func (s *Source) Uint64() uint64 { return s.r.Uint64() }

// Intn returns a uniform value in [0, n).
func (s *Source) Intn(n int) int { return s.r.Intn(n) }

// UintnRange returns a uniform value in [lo, hi].
func (s *Source) UintnRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.r.Intn(hi-lo+1)
}

// Float64 returns a uniform value in [0, 1).
func (s *Source) Float64() float64 { return s.r.Float64() }

// OneIn returns true with probability 1/n (n >= 1).
func (s *Source) OneIn(n int) bool {
	if n <= 1 {
		return true
	}
	return s.r.Intn(n) == 0
}

// Bytes fills b with uniform random bytes.
func (s *Source) Bytes(b []byte) {
	for i := range b {
		b[i] = byte(s.r.Intn(256))
	}
}

// Shuffle permutes n elements in place via swap(i, j).
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.r.Shuffle(n, swap)
}

// Derive mixes a base seed with an arbitrary sequence of integers via a
// splitmix64-style avalanche, producing a new deterministic seed. Used to
// derive per-input, per-context and per-value seeds from the single fuzzer
// seed so that the same overall seed always reproduces the same fuzzing run.
func Derive(seed uint64, parts ...uint64) uint64 {
	s := seed
	for _, p := range parts {
		s = splitmix(s ^ splitmix(p))
	}
	return splitmix(s)
}

func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x = x ^ (x >> 31)
	return x
}
