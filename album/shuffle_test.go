package album

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(n int) []Photo {
	photos := make([]Photo, n)
	for i := range photos {
		photos[i] = Photo{ID: fmt.Sprintf("p%d", i), URL: fmt.Sprintf("https://example.com/%d", i)}
	}
	return photos
}

func TestShuffle_Permutation(t *testing.T) {
	input := numbered(20)
	original := append([]Photo(nil), input...)

	for i := 0; i < 100; i++ {
		out := Shuffle(input)
		require.Len(t, out, len(input))

		ids := make([]string, len(out))
		for j, p := range out {
			ids[j] = p.ID
		}
		sort.Strings(ids)
		want := make([]string, len(original))
		for j, p := range original {
			want[j] = p.ID
		}
		sort.Strings(want)
		assert.Equal(t, want, ids)
	}
	assert.Equal(t, original, input, "input must not be mutated")
}

func TestShuffle_Uniform(t *testing.T) {
	const (
		n    = 5
		runs = 10000
		// chi-square critical value for 4 degrees of freedom well past p=0.001
		critical = 25.0
	)
	rng := rand.New(rand.NewPCG(7, 11))
	input := numbered(n)

	var counts [n][n]int // position -> element
	for r := 0; r < runs; r++ {
		out := ShuffleWith(input, rng.IntN)
		for pos, p := range out {
			var elem int
			fmt.Sscanf(p.ID, "p%d", &elem)
			counts[pos][elem]++
		}
	}

	expected := float64(runs) / n
	for pos := 0; pos < n; pos++ {
		chi := 0.0
		for elem := 0; elem < n; elem++ {
			d := float64(counts[pos][elem]) - expected
			chi += d * d / expected
		}
		assert.Less(t, chi, critical, "position %d distribution %v", pos, counts[pos])
	}
}

func TestShuffle_Small(t *testing.T) {
	assert.Empty(t, Shuffle(nil))
	one := numbered(1)
	assert.Equal(t, one, Shuffle(one))
}

func TestShuffleWith_SwapRange(t *testing.T) {
	// every draw must be taken from [0, i] while walking down from the last index
	var bounds []int
	ShuffleWith(numbered(4), func(n int) int {
		bounds = append(bounds, n)
		return 0
	})
	assert.Equal(t, []int{4, 3, 2}, bounds)
}
