package brackets

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShuffle_DeterministicForSeed(t *testing.T) {
	input := ids(16)
	first := Shuffle(input, NewRand(11))
	second := Shuffle(input, NewRand(11))

	assert.Equal(t, first, second)
	assert.Equal(t, ids(16), input, "input must not be modified")

	sorted := slices.Clone(first)
	slices.Sort(sorted)
	assert.Equal(t, input, sorted)
}

func TestSimulatedScore(t *testing.T) {
	rng := NewRand(5)
	for range 200 {
		s1, s2 := SimulatedScore(rng)
		assert.NotEqual(t, s1, s2)
		assert.Equal(t, 3, max(s1, s2))
		assert.GreaterOrEqual(t, min(s1, s2), 0)
		assert.LessOrEqual(t, min(s1, s2), 2)
	}
}
