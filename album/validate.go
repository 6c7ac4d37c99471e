package album

import "strings"

// AlbumDomains are the substrings a link must contain to be treated as a shared album.
var AlbumDomains = []string{
	"photos.app.goo.gl",
	"photos.google.com",
}

// Validate trims the raw link and checks it for a known album domain.
func Validate(rawURL string) (string, error) {
	albumURL := strings.TrimSpace(rawURL)
	if albumURL == "" {
		return "", ErrInvalidInput
	}
	for _, domain := range AlbumDomains {
		if strings.Contains(albumURL, domain) {
			return albumURL, nil
		}
	}
	return "", ErrInvalidInput
}
