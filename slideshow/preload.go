package slideshow

// Preloader warms images in the background. It must not block and its failures are never reported.
type Preloader interface {
	Preload(urls ...string)
}

// Neighbors returns the wrapped indices before and after index in a list of n photos.
func Neighbors(n, index int) (prev, next int) {
	return wrap(index-1, n), wrap(index+1, n)
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
