package album

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultMinBodyLength = 1000
	DefaultFetchTimeout  = 30 * time.Second
	DefaultUserAgent     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Fetcher returns the text body of an album document.
type Fetcher interface {
	Fetch(ctx context.Context, target string) (string, error)
}

// Gateway tries each strategy in order, one at a time, until one yields a plausible document.
type Gateway struct {
	client     *http.Client
	strategies []Strategy

	// bodies must be strictly longer than this to count as a real document
	minBodyLength int
}

type GatewayOption func(*Gateway)

func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *Gateway) { g.client = client }
}

func WithMinBodyLength(n int) GatewayOption {
	return func(g *Gateway) { g.minBodyLength = n }
}

func NewGateway(strategies []Strategy, opts ...GatewayOption) (*Gateway, error) {
	if len(strategies) == 0 {
		return nil, errors.New("no fetch strategies provided for gateway")
	}
	g := &Gateway{
		client: &http.Client{
			Timeout:   DefaultFetchTimeout,
			Transport: &UserAgentTransport{RoundTripper: http.DefaultTransport, UserAgent: DefaultUserAgent},
		},
		strategies:    strategies,
		minBodyLength: DefaultMinBodyLength,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Gateway) Fetch(ctx context.Context, target string) (string, error) {
	var lastErr error
	attempts := 0
	for _, strategy := range g.strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		attempts++

		body, err := g.attempt(ctx, strategy.Transform(target))
		if err != nil {
			slog.Warn("fetch strategy failed", "strategy", strategy.Name, "error", err)
			lastErr = err
			continue
		}

		slog.Debug("fetch strategy succeeded", "strategy", strategy.Name, "bytes", len(body))
		return body, nil
	}
	return "", &ExhaustedError{Attempts: attempts, Last: lastErr}
}

func (g *Gateway) attempt(ctx context.Context, requestURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch album page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) <= g.minBodyLength {
		return "", fmt.Errorf("response body too short: %d bytes", len(body))
	}
	return string(body), nil
}
