package randutil

import rand "math/rand/v2"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from the provided int64.
// Centralising the seed derivation means every rng consumer in the engine
// (tsar election, card draws) replays identically for a given seed.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Index returns a uniformly random index into a collection of length n,
// or -1 when n <= 0.
func Index(rng *rand.Rand, n int) int {
	if n <= 0 {
		return -1
	}
	return rng.IntN(n)
}

// Pick returns a uniformly random element of s and reports whether one
// existed. The zero value is returned for an empty slice.
func Pick[T any](rng *rand.Rand, s []T) (T, bool) {
	var zero T
	if len(s) == 0 {
		return zero, false
	}
	return s[rng.IntN(len(s))], true
}
