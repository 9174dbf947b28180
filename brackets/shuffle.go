package brackets

import "math/rand/v2"

// Shuffle returns a shuffled copy of ids drawn from rng. ids is not modified.
func Shuffle(ids []int, rng *rand.Rand) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// NewRand returns a deterministic source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// SimulatedScore draws a plausible best-of-five result, 3 games against 0..2.
// The winning side is picked at random.
func SimulatedScore(rng *rand.Rand) (score1, score2 int) {
	loser := rng.IntN(3)
	if rng.IntN(2) == 0 {
		return 3, loser
	}
	return loser, 3
}
