package album

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultExtractTimeout bounds one shared extraction, independent of the callers waiting on it.
const DefaultExtractTimeout = 2 * time.Minute

// Extractor runs the full pipeline: validate, fetch, parse, upgrade.
type Extractor struct {
	fetcher      Fetcher
	minURLLength int
	timeout      time.Duration

	// concurrent requests for the same album share one extraction
	group singleflight.Group
}

func NewExtractor(fetcher Fetcher, minURLLength int) *Extractor {
	if minURLLength <= 0 {
		minURLLength = DefaultMinURLLength
	}
	return &Extractor{
		fetcher:      fetcher,
		minURLLength: minURLLength,
		timeout:      DefaultExtractTimeout,
	}
}

// Extract resolves rawURL into photos in document order. Shuffling is left to the caller.
func (e *Extractor) Extract(ctx context.Context, rawURL string) ([]Photo, error) {
	albumURL, err := Validate(rawURL)
	if err != nil {
		return nil, err
	}

	ch := e.group.DoChan(albumURL, func() (any, error) {
		// detached from the first caller so its cancellation does not fail everyone sharing the result
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()
		return e.extract(sctx, albumURL)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		slog.Debug("shared in-flight album extraction", "url", albumURL)
	}

	// callers own their slice
	photos := res.Val.([]Photo)
	out := make([]Photo, len(photos))
	copy(out, photos)
	return out, nil
}

func (e *Extractor) extract(ctx context.Context, albumURL string) ([]Photo, error) {
	body, err := e.fetcher.Fetch(ctx, albumURL)
	if err != nil {
		return nil, err
	}

	bases, err := ParseDocument(body, e.minURLLength)
	if err != nil {
		return nil, fmt.Errorf("album %s: %w", albumURL, err)
	}

	slog.Info("extracted album photos", "url", albumURL, "count", len(bases))
	return Upgrade(bases), nil
}
