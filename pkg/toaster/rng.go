package toaster

import "math/rand"

// RNG is the capability the Executor and Battle Resolver draw from. It is
// injected rather than global so a production call can seed from a
// host-provided value while tests script an exact sequence. No corpus
// library offers a deterministic, seed-reproducible generator; math/rand,
// instantiated per call rather than used through its package-level
// functions, is the only stdlib option that satisfies the determinism
// contract in spec §4.5/§9.
type RNG interface {
	// Float64 returns a value in [0,1), used for scheduling draws.
	Float64() float64
	// Intn returns a value in [0,n), used for die rolls and keep selection.
	Intn(n int) int
}

// NewSeededRNG returns an RNG deterministically derived from seed. The same
// seed always produces the same draw sequence.
func NewSeededRNG(seed uint64) RNG {
	return rand.New(rand.NewSource(int64(seed)))
}

// ScriptedDieSource returns a DieSource that yields the given rolls in
// order, then panics if exhausted. Used by tests that need an exact,
// literal sequence rather than a seeded stream.
func ScriptedDieSource(rolls ...int) DieSource {
	i := 0
	return func() int {
		if i >= len(rolls) {
			panic("toaster: scripted die source exhausted")
		}
		r := rolls[i]
		i++
		return r
	}
}

// ScriptedRNG returns an RNG whose Float64 calls yield the given values in
// order. Intn(n) derives from the same stream as floor(Float64()*n), the
// exact relation the Executor uses for scheduling draws.
func ScriptedRNG(floats ...float64) RNG {
	return &scriptedRNG{floats: floats}
}

type scriptedRNG struct {
	floats []float64
	i      int
}

func (s *scriptedRNG) Float64() float64 {
	if s.i >= len(s.floats) {
		panic("toaster: scripted RNG exhausted")
	}
	v := s.floats[s.i]
	s.i++
	return v
}

func (s *scriptedRNG) Intn(n int) int {
	return int(s.Float64() * float64(n))
}

// dieFromRNG adapts an RNG to a DieSource producing uniform integers in
// [1,6], drawn from the same stream the Executor uses for scheduling —
// the die source is derived from the RNG stream after the scheduling
// draws, never a separately seeded generator.
func dieFromRNG(rng RNG) DieSource {
	return func() int {
		return rng.Intn(6) + 1
	}
}
