package album

import "fmt"

const (
	DemoCount    = 10
	demoSeedBase = 123
	demoWidth    = 1920
	demoHeight   = 1080
)

// DemoPhotos points at seeded placeholder images, one distinct seed per index.
func DemoPhotos() []Photo {
	photos := make([]Photo, DemoCount)
	for i := range photos {
		photos[i] = Photo{
			ID:     fmt.Sprintf("demo-%d", i),
			URL:    fmt.Sprintf("https://picsum.photos/seed/%d/%d/%d", i+demoSeedBase, demoWidth, demoHeight),
			Width:  demoWidth,
			Height: demoHeight,
		}
	}
	return photos
}
