// Package config reads the AF_* environment, optionally seeded from a .env file
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/albumflow/album"
	"github.com/aouyang1/albumflow/imagecache"
	"github.com/aouyang1/albumflow/remote"
	"github.com/aouyang1/albumflow/slideshow"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

const Prefix = "AF_"

const (
	DefaultAddr               = ":8080"
	DefaultAlbumCacheTTL      = 10 * time.Minute
	DefaultSessionIdleTimeout = 30 * time.Minute
)

type Config struct {
	Addr     string
	LogLevel slog.Level
	LogFile  string

	DBDSN         string
	AlbumCacheTTL time.Duration

	FetchTimeout    time.Duration
	FetchStrategies []string
	MinBodyLength   int
	MinURLLength    int
	UserAgent       string

	PreloadRate    rate.Limit
	PreloadBurst   int
	ImageCacheSize int

	SessionIdleTimeout time.Duration
	QuietPeriod        time.Duration

	AWSProfile string
	S3Bucket   string
	S3Prefix   string
	PresignTTL time.Duration
}

// RemoteEnabled reports whether an S3 bucket was configured.
func (c *Config) RemoteEnabled() bool {
	return c.S3Bucket != ""
}

func (c *Config) RemoteOptions() remote.Options {
	return remote.Options{
		Profile:    c.AWSProfile,
		Bucket:     c.S3Bucket,
		Prefix:     c.S3Prefix,
		PresignTTL: c.PresignTTL,
	}
}

// Load reads .env from the working directory when present and then the process environment, which
// takes precedence. Malformed values fall back to their defaults with a warning.
func Load() (*Config, error) {
	return LoadFiles(".env")
}

func LoadFiles(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{
		Addr:     envString("ADDR", DefaultAddr),
		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),
		LogFile:  envString("LOG_FILE", ""),

		DBDSN:         envString("DB_DSN", ""),
		AlbumCacheTTL: envDuration("ALBUM_CACHE_TTL", DefaultAlbumCacheTTL),

		FetchTimeout:    envDuration("FETCH_TIMEOUT", album.DefaultFetchTimeout),
		FetchStrategies: envList("FETCH_STRATEGIES", album.DefaultStrategyTemplates),
		MinBodyLength:   envInt("MIN_BODY_LENGTH", album.DefaultMinBodyLength),
		MinURLLength:    envInt("MIN_URL_LENGTH", album.DefaultMinURLLength),
		UserAgent:       envString("USER_AGENT", album.DefaultUserAgent),

		PreloadRate:    rate.Limit(envFloat("PRELOAD_RATE", float64(imagecache.DefaultRate))),
		PreloadBurst:   envInt("PRELOAD_BURST", imagecache.DefaultBurst),
		ImageCacheSize: envInt("IMAGE_CACHE_SIZE", imagecache.DefaultSize),

		SessionIdleTimeout: envDuration("SESSION_IDLE_TIMEOUT", DefaultSessionIdleTimeout),
		QuietPeriod:        envDuration("QUIET_PERIOD", slideshow.DefaultQuietPeriod),

		AWSProfile: envString("AWS_PROFILE", ""),
		S3Bucket:   envString("S3_BUCKET", ""),
		S3Prefix:   envString("S3_PREFIX", ""),
		PresignTTL: envDuration("PRESIGN_TTL", remote.DefaultPresignTTL),
	}

	if _, err := album.ParseStrategies(cfg.FetchStrategies); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(Prefix + key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envInt(key string, def int) int {
	raw := envString(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		slog.Warn("unable to parse "+Prefix+key+", using default", Prefix+key, raw, "default", def)
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	raw := envString(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		slog.Warn("unable to parse "+Prefix+key+", using default", Prefix+key, raw, "default", def)
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := envString(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		slog.Warn("unable to parse "+Prefix+key+", using default", Prefix+key, raw, "default", def)
		return def
	}
	return v
}

func envLevel(key string, def slog.Level) slog.Level {
	raw := envString(key, "")
	if raw == "" {
		return def
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		slog.Warn("unable to parse "+Prefix+key+", using default", Prefix+key, raw, "default", def)
		return def
	}
	return level
}

func envList(key string, def []string) []string {
	raw := envString(key, "")
	if raw == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}
