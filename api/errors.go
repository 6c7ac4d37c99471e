package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aouyang1/albumflow/album"
	"github.com/aouyang1/albumflow/api/models"
	"github.com/gin-gonic/gin"
)

var errSessionNotFound = errors.New("slideshow session not found")

// extractionStatus maps an album error to the status code and the message shown to the user.
func extractionStatus(err error) (int, string) {
	switch {
	case errors.Is(err, album.ErrInvalidInput):
		return http.StatusBadRequest, album.ErrInvalidInput.Error()
	case errors.Is(err, album.ErrFetchExhausted):
		return http.StatusBadGateway, album.ErrFetchExhausted.Error()
	case errors.Is(err, album.ErrAlbumPrivate):
		return http.StatusForbidden, album.ErrAlbumPrivate.Error()
	case errors.Is(err, album.ErrNoPhotosFound):
		return http.StatusNotFound, album.ErrNoPhotosFound.Error()
	default:
		return http.StatusInternalServerError, "failed to load album, make sure it is a public Google Photos link"
	}
}

func abortWithExtractionError(c *gin.Context, err error) {
	status, msg := extractionStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("album extraction failed", "error", err)
	} else {
		slog.Info("album extraction rejected", "status", status, "error", err)
	}
	c.JSON(status, models.ErrorResponse{Error: msg})
}
