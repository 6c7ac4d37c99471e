package album

import "math/rand/v2"

// Shuffle returns a uniformly random permutation of photos. The input is not modified.
func Shuffle(photos []Photo) []Photo {
	return ShuffleWith(photos, rand.IntN)
}

// ShuffleWith is a Fisher-Yates shuffle over a copy; intn(n) must return a uniform value in [0, n).
func ShuffleWith(photos []Photo, intn func(n int) int) []Photo {
	shuffled := make([]Photo, len(photos))
	copy(shuffled, photos)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
