package random

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecureUint64NotConstant(t *testing.T) {
	s := Secure{}
	seen := make(map[uint64]bool)
	for i := 0; i < 8; i++ {
		seen[s.Uint64()] = true
	}
	require.Greater(t, len(seen), 1, "8 draws from crypto/rand should not collapse to one value")
}

func TestSecureShufflePermutesAllElements(t *testing.T) {
	s := Secure{}
	n := 10
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	s.Shuffle(n, func(i, j int) { items[i], items[j] = items[j], items[i] })

	seen := make(map[int]bool, n)
	for _, v := range items {
		seen[v] = true
	}
	require.Len(t, seen, n, "shuffle must be a permutation, no element lost or duplicated")
}

func TestDeterministicIsReproducibleForSameSeed(t *testing.T) {
	n := 20
	run := func(seed int64) []int {
		items := make([]int, n)
		for i := range items {
			items[i] = i
		}
		d := NewDeterministic(seed)
		d.Shuffle(n, func(i, j int) { items[i], items[j] = items[j], items[i] })
		return items
	}

	a := run(42)
	b := run(42)
	require.Equal(t, a, b, "same seed must produce the same shuffle order")

	c := run(43)
	require.NotEqual(t, a, c, "different seeds should (overwhelmingly likely) diverge")
}
