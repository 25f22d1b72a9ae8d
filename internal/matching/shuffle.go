package matching

import "math/rand"

// Shuffle returns a uniformly random permutation of seq, leaving seq intact.
func Shuffle[T any](seq []T, rng *rand.Rand) []T {
	out := append([]T(nil), seq...)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
