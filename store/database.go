// Package store caches resolved albums and holds the default slideshow settings
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aouyang1/albumflow/album"
	_ "modernc.org/sqlite"
)

// MemoryDSN keeps the database inside the process.
const MemoryDSN = ":memory:"

var DefaultAppSettings = AppSettings{
	IntervalSeconds: 5,
	Transition:      "random",
	FitMode:         "cover",
}

type Database struct {
	db  *sql.DB
	now func() time.Time
}

func NewDatabase(dsn string) (*Database, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}

	if !isMemory(dsn) && !strings.HasPrefix(dsn, "file:") {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if isMemory(dsn) {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{db: db, now: time.Now}
	if err := database.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return database, nil
}

func isMemory(dsn string) bool {
	return dsn == MemoryDSN || strings.Contains(dsn, "mode=memory")
}

func (d *Database) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS albums (
		album_url  TEXT NOT NULL,
		photos     TEXT NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (album_url)
	);
	CREATE TABLE IF NOT EXISTS app_settings (
		singleton INTEGER NOT NULL DEFAULT 1 CHECK (singleton = 1),
		interval_seconds INTEGER NOT NULL,
		transition       TEXT NOT NULL,
		fit_mode         TEXT NOT NULL,
		PRIMARY KEY (singleton)
	);
	`
	_, err := d.db.Exec(query)
	return err
}

// GetAlbum returns the cached photo list for url when it was stored less than maxAge ago. A
// non-positive maxAge never hits.
func (d *Database) GetAlbum(url string, maxAge time.Duration) ([]album.Photo, bool, error) {
	if maxAge <= 0 {
		return nil, false, nil
	}

	const query = `SELECT photos, fetched_at FROM albums WHERE album_url = ?`
	var raw string
	var fetchedAt int64
	err := d.db.QueryRow(query, url).Scan(&raw, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get album: %w", err)
	}

	if d.now().Sub(time.UnixMilli(fetchedAt)) >= maxAge {
		return nil, false, nil
	}

	var photos []album.Photo
	if err := json.Unmarshal([]byte(raw), &photos); err != nil {
		return nil, false, fmt.Errorf("decode cached album %s: %w", url, err)
	}
	return photos, true, nil
}

func (d *Database) PutAlbum(url string, photos []album.Photo) error {
	raw, err := json.Marshal(photos)
	if err != nil {
		return fmt.Errorf("encode album %s: %w", url, err)
	}

	const stmt = `
		INSERT INTO albums (album_url, photos, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(album_url) DO UPDATE SET
			photos     = excluded.photos,
			fetched_at = excluded.fetched_at
	`
	if _, err := d.db.Exec(stmt, url, string(raw), d.now().UnixMilli()); err != nil {
		return fmt.Errorf("put album: %w", err)
	}
	return nil
}

// PruneAlbums drops every cached album older than maxAge and reports how many were removed.
func (d *Database) PruneAlbums(maxAge time.Duration) (int64, error) {
	cutoff := d.now().Add(-maxAge).UnixMilli()
	result, err := d.db.Exec(`DELETE FROM albums WHERE fetched_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune albums: %w", err)
	}
	return result.RowsAffected()
}

func (d *Database) GetAppSettings() (*AppSettings, error) {
	const query = `
		SELECT interval_seconds,
		       transition,
		       fit_mode
		FROM app_settings
		WHERE singleton = 1
	`

	var s AppSettings
	err := d.db.QueryRow(query).Scan(&s.IntervalSeconds, &s.Transition, &s.FitMode)
	if errors.Is(err, sql.ErrNoRows) {
		// Bootstrap defaults if no settings row exists yet
		defaults := DefaultAppSettings
		if err := d.UpsertAppSettings(&defaults); err != nil {
			return nil, err
		}
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get app settings: %w", err)
	}
	return &s, nil
}

func (d *Database) UpsertAppSettings(s *AppSettings) error {
	const stmt = `
		INSERT INTO app_settings (
			singleton,
			interval_seconds,
			transition,
			fit_mode
		) VALUES (1, ?, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			interval_seconds = excluded.interval_seconds,
			transition       = excluded.transition,
			fit_mode         = excluded.fit_mode
	`

	if _, err := d.db.Exec(stmt, s.IntervalSeconds, s.Transition, s.FitMode); err != nil {
		return fmt.Errorf("upsert app settings: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}
