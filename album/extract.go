package album

import (
	"fmt"
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

const (
	DefaultMinURLLength = 30
	// HighResDirective asks the image host for a large rendition.
	HighResDirective = "=w1920-h1080-no"
)

// imageURLPattern matches image host urls up to the first quote, whitespace or backslash.
var imageURLPattern = regexp.MustCompile(`https://lh[0-9]+\.googleusercontent\.com/[^"'\s\\]+`)

// LoginMarkers hint that a document without photos is a sign-in page.
var LoginMarkers = []string{"Sign in", "ServiceLogin"}

// ParseDocument returns the canonical base urls found in body, in document order, without duplicates.
// Candidates not longer than minURLLength are dropped as icons or avatars.
//
// With no candidates it returns ErrAlbumPrivate if the body looks like a sign-in page and ErrNoPhotosFound
// otherwise. The distinction is a heuristic meant as a hint for the user, not an authoritative answer.
func ParseDocument(body string, minURLLength int) ([]string, error) {
	seen := mapset.NewThreadUnsafeSet[string]()
	var bases []string
	for _, match := range imageURLPattern.FindAllString(body, -1) {
		base := CanonicalURL(match)
		if len(base) <= minURLLength {
			continue
		}
		if seen.Add(base) {
			bases = append(bases, base)
		}
	}

	if len(bases) == 0 {
		if looksLikeLogin(body) {
			return nil, ErrAlbumPrivate
		}
		return nil, ErrNoPhotosFound
	}
	return bases, nil
}

// CanonicalURL strips everything from the first "=" so size variants collapse to one key.
func CanonicalURL(imageURL string) string {
	if i := strings.IndexByte(imageURL, '='); i != -1 {
		return imageURL[:i]
	}
	return imageURL
}

func looksLikeLogin(body string) bool {
	for _, marker := range LoginMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// Upgrade assigns sequential ids and appends the high resolution directive.
func Upgrade(bases []string) []Photo {
	photos := make([]Photo, len(bases))
	for i, base := range bases {
		photos[i] = Photo{
			ID:  fmt.Sprintf("photo-%d", i),
			URL: base + HighResDirective,
		}
	}
	return photos
}
