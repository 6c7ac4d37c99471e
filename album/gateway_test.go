package album

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var albumPage = "<html>" + strings.Repeat("x", 2000) + "</html>"

func recordingStrategy(name, target string, calls *[]string) Strategy {
	return Strategy{
		Name: name,
		Transform: func(string) string {
			*calls = append(*calls, name)
			return target
		},
	}
}

func TestGateway_FallsBackInOrder(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer failing.Close()

	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(albumPage))
	}))
	defer working.Close()

	var calls []string
	g, err := NewGateway([]Strategy{
		recordingStrategy("s1", failing.URL, &calls),
		recordingStrategy("s2", working.URL, &calls),
		recordingStrategy("s3", working.URL, &calls),
	})
	require.NoError(t, err)

	body, err := g.Fetch(context.Background(), "https://photos.app.goo.gl/abc")
	require.NoError(t, err)
	assert.Equal(t, albumPage, body)
	assert.Equal(t, []string{"s1", "s2"}, calls)
}

func TestGateway_Exhausted(t *testing.T) {
	var hits int
	short := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("blocked"))
	}))
	defer short.Close()

	var calls []string
	g, err := NewGateway([]Strategy{
		recordingStrategy("s1", short.URL, &calls),
		recordingStrategy("s2", "http://127.0.0.1:0/unreachable", &calls),
		recordingStrategy("s3", short.URL, &calls),
	})
	require.NoError(t, err)

	_, err = g.Fetch(context.Background(), "https://photos.app.goo.gl/abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchExhausted)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Contains(t, exhausted.Last.Error(), "too short")
	assert.Equal(t, []string{"s1", "s2", "s3"}, calls)
	assert.Equal(t, 2, hits)
}

func TestGateway_MinBodyLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	g, err := NewGateway([]Strategy{Direct()}, WithMinBodyLength(10))
	require.NoError(t, err)
	_, err = g.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrFetchExhausted)

	g, err = NewGateway([]Strategy{Direct()}, WithMinBodyLength(9))
	require.NoError(t, err)
	body, err := g.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", body)
}

func TestGateway_SetsUserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		w.Write([]byte(albumPage))
	}))
	defer server.Close()

	g, err := NewGateway([]Strategy{Direct()})
	require.NoError(t, err)
	_, err = g.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, got)
}

func TestGateway_CanceledContext(t *testing.T) {
	var calls []string
	g, err := NewGateway([]Strategy{recordingStrategy("s1", "http://127.0.0.1:0", &calls)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Fetch(ctx, "https://photos.app.goo.gl/abc")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, calls)
}

func TestNewGateway_NoStrategies(t *testing.T) {
	_, err := NewGateway(nil)
	assert.Error(t, err)
}

func TestParseStrategies(t *testing.T) {
	strategies, err := ParseStrategies(DefaultStrategyTemplates)
	require.NoError(t, err)
	require.Len(t, strategies, 3)

	target := "https://photos.app.goo.gl/abc?x=1"
	assert.Equal(t, "https://corsproxy.io/?https%3A%2F%2Fphotos.app.goo.gl%2Fabc%3Fx%3D1", strategies[0].Transform(target))
	assert.Equal(t, "api.allorigins.win", strategies[1].Name)
	assert.Equal(t, "https://api.codetabs.com/v1/proxy?quest=https%3A%2F%2Fphotos.app.goo.gl%2Fabc%3Fx%3D1", strategies[2].Transform(target))

	strategies, err = ParseStrategies([]string{" direct ", ""})
	require.NoError(t, err)
	require.Len(t, strategies, 1)
	assert.Equal(t, target, strategies[0].Transform(target))

	_, err = ParseStrategies([]string{"https://proxy.example.com/"})
	assert.Error(t, err)

	_, err = ParseStrategies(nil)
	assert.Error(t, err)
}
