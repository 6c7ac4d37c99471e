// Package imagecache warms and serves slideshow images
package imagecache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	DefaultSize        = 64
	DefaultRate        = rate.Limit(4)
	DefaultBurst       = 8
	DefaultConcurrency = 4
	DefaultTimeout     = 30 * time.Second

	// MaxImageBytes bounds a single cached image.
	MaxImageBytes = 32 << 20
)

type Image struct {
	ContentType string
	Data        []byte
}

// Cache keeps recently shown and preloaded images in memory. Preloads are best effort: they are
// dropped when the rate limit or the worker pool is exhausted and their failures are only logged.
type Cache struct {
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	images  *lru.Cache[string, Image]

	inflight singleflight.Group
	workers  errgroup.Group
}

type Option func(*options)

type options struct {
	client      *http.Client
	size        int
	limit       rate.Limit
	burst       int
	concurrency int
	timeout     time.Duration
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.client = client }
}

func WithSize(size int) Option {
	return func(o *options) { o.size = size }
}

func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(o *options) {
		o.limit = limit
		o.burst = burst
	}
}

func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *options) { o.timeout = timeout }
}

func New(opts ...Option) (*Cache, error) {
	o := options{
		client:      http.DefaultClient,
		size:        DefaultSize,
		limit:       DefaultRate,
		burst:       DefaultBurst,
		concurrency: DefaultConcurrency,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	images, err := lru.New[string, Image](o.size)
	if err != nil {
		return nil, fmt.Errorf("create image cache: %w", err)
	}

	c := &Cache{
		client:  o.client,
		timeout: o.timeout,
		limiter: rate.NewLimiter(o.limit, o.burst),
		images:  images,
	}
	c.workers.SetLimit(max(o.concurrency, 1))
	return c, nil
}

// Preload starts background fetches for the urls that are not cached yet. It never blocks.
func (c *Cache) Preload(urls ...string) {
	for _, url := range urls {
		if url == "" || c.images.Contains(url) {
			continue
		}
		if !c.limiter.Allow() {
			slog.Debug("preload skipped by rate limit", "url", url)
			continue
		}
		started := c.workers.TryGo(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
			defer cancel()
			if _, err := c.Get(ctx, url); err != nil {
				slog.Debug("preload failed", "url", url, "error", err)
			}
			return nil
		})
		if !started {
			slog.Debug("preload skipped, workers busy", "url", url)
		}
	}
}

// Get returns the image from the cache, fetching and storing it on a miss.
func (c *Cache) Get(ctx context.Context, url string) (Image, error) {
	if img, ok := c.images.Get(url); ok {
		return img, nil
	}

	ch := c.inflight.DoChan(url, func() (any, error) {
		// detached so a viewer going away does not fail the preload sharing this fetch
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		img, err := c.fetch(fctx, url)
		if err != nil {
			return Image{}, err
		}
		c.images.Add(url, img)
		return img, nil
	})

	select {
	case <-ctx.Done():
		return Image{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Image{}, res.Err
		}
		return res.Val.(Image), nil
	}
}

func (c *Cache) Contains(url string) bool {
	return c.images.Contains(url)
}

func (c *Cache) Len() int {
	return c.images.Len()
}

// Wait blocks until every running preload has finished.
func (c *Cache) Wait() {
	_ = c.workers.Wait()
}

func (c *Cache) fetch(ctx context.Context, url string) (Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Image{}, fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := c.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Image{}, fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return Image{}, fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return Image{ContentType: contentType, Data: data}, nil
}
