package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aouyang1/albumflow/album"
	"github.com/aouyang1/albumflow/api"
	"github.com/aouyang1/albumflow/config"
	"github.com/aouyang1/albumflow/imagecache"
	"github.com/aouyang1/albumflow/remote"
	"github.com/aouyang1/albumflow/store"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	database, err := store.NewDatabase(cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	strategies, err := album.ParseStrategies(cfg.FetchStrategies)
	if err != nil {
		log.Fatalf("Failed to parse fetch strategies: %v", err)
	}
	gateway, err := album.NewGateway(strategies,
		album.WithHTTPClient(&http.Client{
			Timeout:   cfg.FetchTimeout,
			Transport: &album.UserAgentTransport{RoundTripper: http.DefaultTransport, UserAgent: cfg.UserAgent},
		}),
		album.WithMinBodyLength(cfg.MinBodyLength),
	)
	if err != nil {
		log.Fatalf("Failed to initialize fetch gateway: %v", err)
	}
	extractor := album.NewExtractor(gateway, cfg.MinURLLength)

	images, err := imagecache.New(
		imagecache.WithHTTPClient(&http.Client{
			Timeout:   cfg.FetchTimeout,
			Transport: &album.UserAgentTransport{RoundTripper: http.DefaultTransport, UserAgent: cfg.UserAgent},
		}),
		imagecache.WithSize(cfg.ImageCacheSize),
		imagecache.WithRateLimit(cfg.PreloadRate, cfg.PreloadBurst),
		imagecache.WithTimeout(cfg.FetchTimeout),
	)
	if err != nil {
		log.Fatalf("Failed to initialize image cache: %v", err)
	}

	opts := []api.ServerOption{
		api.WithAlbumCacheTTL(cfg.AlbumCacheTTL),
		api.WithQuietPeriod(cfg.QuietPeriod),
		api.WithSessionIdleTimeout(cfg.SessionIdleTimeout),
	}
	if cfg.RemoteEnabled() {
		src, err := remote.NewSource(ctx, cfg.RemoteOptions())
		if err != nil {
			log.Fatalf("Failed to initialize remote source: %v", err)
		}
		opts = append(opts, api.WithRemote(src))
	}

	// Initialize and start web server
	webServer := api.NewWebServer(database, extractor, images, opts...)
	if err := webServer.Start(ctx, cfg.Addr); err != nil {
		log.Fatalf("Failed to start web server: %v", err)
	}
	images.Wait()
}

// setupLogging installs the default slog handler: text on stdout, plus a rotated file when configured.
func setupLogging(cfg *config.Config) {
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.LogLevel})))
}
