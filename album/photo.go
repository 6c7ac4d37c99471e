// Package album resolves shared album links into lists of direct image urls
package album

import (
	"errors"
	"fmt"
)

type Photo struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

var (
	// ErrInvalidInput is returned before any network access when the link is not an album link.
	ErrInvalidInput = errors.New("please provide a valid Google Photos album link")
	// ErrFetchExhausted is returned when every fetch strategy failed or returned an implausible body.
	ErrFetchExhausted = errors.New("failed to fetch album data, the album might be private or the connection failed")
	// ErrAlbumPrivate is a best-effort guess that the document is a sign-in page.
	ErrAlbumPrivate = errors.New("this album appears to be private, please make it public")
	// ErrNoPhotosFound is returned when the document had no candidate image urls.
	ErrNoPhotosFound = errors.New("no photos found, please ensure the album is public and contains photos")
)

// ExhaustedError reports the failed fetch attempts. It matches ErrFetchExhausted.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%v (%d attempts)", ErrFetchExhausted, e.Attempts)
	}
	return fmt.Sprintf("%v (%d attempts): %v", ErrFetchExhausted, e.Attempts, e.Last)
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrFetchExhausted
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}
