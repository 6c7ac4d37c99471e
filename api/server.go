// Package api is the main api web server
package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/aouyang1/albumflow/album"
	"github.com/aouyang1/albumflow/api/models"
	"github.com/aouyang1/albumflow/api/web/templates"
	"github.com/aouyang1/albumflow/imagecache"
	"github.com/aouyang1/albumflow/slideshow"
	"github.com/aouyang1/albumflow/store"
	"github.com/gin-gonic/gin"
)

//go:embed web/static
var webFiles embed.FS

const (
	extractTimeout  = 2 * time.Minute
	shutdownTimeout = 10 * time.Second
)

type AlbumExtractor interface {
	Extract(ctx context.Context, rawURL string) ([]album.Photo, error)
}

// ImageStore preloads and serves slideshow images.
type ImageStore interface {
	slideshow.Preloader
	Get(ctx context.Context, url string) (imagecache.Image, error)
}

type PhotoSource interface {
	Photos(ctx context.Context) ([]album.Photo, error)
}

type WebServer struct {
	router *gin.Engine
	db     *store.Database

	extractor AlbumExtractor
	images    ImageStore
	remote    PhotoSource

	sessions *SessionManager
	hub      *Hub

	albumCacheTTL time.Duration
	quietPeriod   time.Duration
	clock         slideshow.Clock
	shuffle       func([]album.Photo) []album.Photo
}

type ServerOption func(*WebServer)

// WithRemote enables POST /remote.
func WithRemote(src PhotoSource) ServerOption {
	return func(ws *WebServer) { ws.remote = src }
}

func WithAlbumCacheTTL(ttl time.Duration) ServerOption {
	return func(ws *WebServer) { ws.albumCacheTTL = ttl }
}

func WithQuietPeriod(d time.Duration) ServerOption {
	return func(ws *WebServer) { ws.quietPeriod = d }
}

func WithClock(clock slideshow.Clock) ServerOption {
	return func(ws *WebServer) { ws.clock = clock }
}

// WithShuffle replaces the photo order applied to every new session.
func WithShuffle(shuffle func([]album.Photo) []album.Photo) ServerOption {
	return func(ws *WebServer) { ws.shuffle = shuffle }
}

func WithSessionIdleTimeout(d time.Duration) ServerOption {
	return func(ws *WebServer) {
		ws.sessions.idleTimeout = d
	}
}

func NewWebServer(db *store.Database, extractor AlbumExtractor, images ImageStore, opts ...ServerOption) *WebServer {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	ws := &WebServer{
		router:    router,
		db:        db,
		extractor: extractor,
		images:    images,
		hub:       NewHub(),
		clock:     slideshow.SystemClock,
		shuffle:   album.Shuffle,
	}
	ws.sessions = NewSessionManager(0, nil, ws.hub.Drop)
	for _, opt := range opts {
		opt(ws)
	}
	ws.sessions.clock = ws.clock

	ws.setupRoutes()
	return ws
}

func (ws *WebServer) setupRoutes() {
	ws.router.GET("/", ws.handleIndex)
	ws.router.GET("/static/*filepath", ws.handleStatic)

	ws.router.POST("/albums", ws.handleCreateAlbum)
	ws.router.POST("/demo", ws.handleDemo)
	ws.router.POST("/remote", ws.handleRemote)

	sessions := ws.router.Group("/sessions/:id")
	sessions.GET("", ws.handleGetSession)
	sessions.DELETE("", ws.handleDeleteSession)
	sessions.POST("/toggle", ws.sessionAction(func(s *slideshow.Session) { s.Player.Toggle() }))
	sessions.POST("/next", ws.sessionAction(func(s *slideshow.Session) { s.Player.Next() }))
	sessions.POST("/prev", ws.sessionAction(func(s *slideshow.Session) { s.Player.Prev() }))
	sessions.POST("/pointer", ws.sessionAction(func(s *slideshow.Session) { s.Monitor.PointerMoved() }))
	sessions.POST("/click", ws.sessionAction(func(s *slideshow.Session) { s.Monitor.Click() }))
	sessions.PUT("/settings", ws.handleUpdateSessionSettings)
	sessions.GET("/photos", ws.handleListPhotos)
	sessions.GET("/photos/:photo/image", ws.handlePhotoImage)
	sessions.GET("/events", ws.handleEvents)
	sessions.GET("/view", ws.handleView)

	ws.router.GET("/settings", ws.handleGetSettings)
	ws.router.PUT("/settings", ws.handleUpdateSettings)
}

func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// Background starts the event hub, the idle session reaper and the album cache pruner. All stop when ctx
// is done.
func (ws *WebServer) Background(ctx context.Context) {
	go ws.hub.Run(ctx)
	go ws.sessions.Run(ctx)
	go ws.runAlbumPruner(ctx)
}

func (ws *WebServer) runAlbumPruner(ctx context.Context) {
	if ws.albumCacheTTL <= 0 {
		return
	}
	ticker := time.NewTicker(ws.albumCacheTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ws.pruneAlbums()
		}
	}
}

// pruneAlbums drops album cache rows that can no longer be served.
func (ws *WebServer) pruneAlbums() int64 {
	removed, err := ws.db.PruneAlbums(ws.albumCacheTTL)
	if err != nil {
		slog.Warn("unable to prune album cache", "error", err)
		return 0
	}
	if removed > 0 {
		slog.Debug("pruned album cache", "removed", removed)
	}
	return removed
}

// Start serves on addr until ctx is done and then shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context, addr string) error {
	ws.Background(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           ws.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting web server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("shutting down web server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown web server: %w", err)
	}
	return nil
}

func (ws *WebServer) handleIndex(c *gin.Context) {
	render(c, http.StatusOK, templates.Index())
}

func (ws *WebServer) handleCreateAlbum(c *gin.Context) {
	var req models.CreateAlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	albumURL, err := album.Validate(req.URL)
	if err != nil {
		abortWithExtractionError(c, err)
		return
	}

	photos, ok, err := ws.db.GetAlbum(albumURL, ws.albumCacheTTL)
	if err != nil {
		slog.Warn("unable to read album cache", "url", albumURL, "error", err)
	}
	if !ok {
		ctx, cancel := context.WithTimeout(c.Request.Context(), extractTimeout)
		defer cancel()

		photos, err = ws.extractor.Extract(ctx, albumURL)
		if err != nil {
			abortWithExtractionError(c, err)
			return
		}
		if ws.albumCacheTTL > 0 {
			if err := ws.db.PutAlbum(albumURL, photos); err != nil {
				slog.Warn("unable to cache album", "url", albumURL, "error", err)
			}
		}
	} else {
		slog.Debug("serving album from cache", "url", albumURL, "count", len(photos))
	}

	ws.startSession(c, photos)
}

func (ws *WebServer) handleDemo(c *gin.Context) {
	ws.startSession(c, album.DemoPhotos())
}

func (ws *WebServer) handleRemote(c *gin.Context) {
	if ws.remote == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "remote photo source is not configured"})
		return
	}

	photos, err := ws.remote.Photos(c.Request.Context())
	if errors.Is(err, album.ErrNoPhotosFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: album.ErrNoPhotosFound.Error()})
		return
	}
	if err != nil {
		slog.Warn("unable to list remote photos", "error", err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "failed to list remote photos"})
		return
	}

	ws.startSession(c, photos)
}

// startSession shuffles photos into a new session configured from the stored defaults.
func (ws *WebServer) startSession(c *gin.Context, photos []album.Photo) {
	settings, err := ws.db.GetAppSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get settings: %v", err)})
		return
	}
	cfg, err := configFromSettings(settings)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Invalid stored settings: %v", err)})
		return
	}

	s, err := slideshow.NewSession(ws.shuffle(photos), slideshow.SessionOptions{
		Config:      cfg,
		Clock:       ws.clock,
		Preloader:   ws.images,
		QuietPeriod: ws.quietPeriod,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to start slideshow: %v", err)})
		return
	}
	s.Subscribe(func(ev slideshow.Event) {
		ws.hub.Publish(s.ID, models.EventMessage{
			Type:    string(ev.Type),
			Session: sessionResponse(s, ev.State, ev.Config, ev.ControlsVisible),
		})
	})
	ws.sessions.Add(s)

	c.JSON(http.StatusCreated, snapshotResponse(s))
}

func (ws *WebServer) session(c *gin.Context) (*slideshow.Session, bool) {
	s, ok := ws.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: errSessionNotFound.Error()})
	}
	return s, ok
}

func (ws *WebServer) handleGetSession(c *gin.Context) {
	s, ok := ws.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snapshotResponse(s))
}

func (ws *WebServer) handleDeleteSession(c *gin.Context) {
	if !ws.sessions.Remove(c.Param("id")) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: errSessionNotFound.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (ws *WebServer) sessionAction(act func(*slideshow.Session)) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := ws.session(c)
		if !ok {
			return
		}
		act(s)
		c.JSON(http.StatusOK, snapshotResponse(s))
	}
}

func (ws *WebServer) handleUpdateSessionSettings(c *gin.Context) {
	s, ok := ws.session(c)
	if !ok {
		return
	}

	var req models.UpdateSessionSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	for _, u := range sessionUpdates(req) {
		if err := s.Player.Apply(u); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, snapshotResponse(s))
}

func (ws *WebServer) handleListPhotos(c *gin.Context) {
	s, ok := ws.session(c)
	if !ok {
		return
	}
	photos := s.Player.Photos()
	c.JSON(http.StatusOK, models.PhotoListResponse{Photos: photos, Total: len(photos)})
}

func (ws *WebServer) handlePhotoImage(c *gin.Context) {
	s, ok := ws.session(c)
	if !ok {
		return
	}

	photo, ok := s.Player.Find(c.Param("photo"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: fmt.Sprintf("Photo not found: %s", c.Param("photo"))})
		return
	}

	img, err := ws.images.Get(c.Request.Context(), photo.URL)
	if err != nil {
		slog.Warn("unable to load photo", "session", s.ID, "photo", photo.ID, "error", err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "Failed to load photo"})
		return
	}

	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

func (ws *WebServer) handleEvents(c *gin.Context) {
	s, ok := ws.session(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("unable to upgrade event connection", "session", s.ID, "error", err)
		return
	}

	client := &wsClient{sessionID: s.ID, conn: conn, send: make(chan []byte, sendBuffer)}
	if !ws.hub.Register(client) {
		conn.Close()
		return
	}

	// registered first so no event can slip in between the snapshot and the stream
	ws.hub.Publish(s.ID, models.EventMessage{Type: "snapshot", Session: snapshotResponse(s)})

	go client.writePump()
	go client.readPump(ws.hub, func(cmd models.CommandMessage) {
		s.Touch()
		if !ws.dispatch(s, cmd.Action) {
			slog.Debug("ignoring unknown event command", "session", s.ID, "action", cmd.Action)
		}
	})
}

func (ws *WebServer) dispatch(s *slideshow.Session, action string) bool {
	switch action {
	case "toggle":
		s.Player.Toggle()
	case "next":
		s.Player.Next()
	case "prev":
		s.Player.Prev()
	case "pointer":
		s.Monitor.PointerMoved()
	case "click":
		s.Monitor.Click()
	default:
		return false
	}
	return true
}

func (ws *WebServer) handleView(c *gin.Context) {
	s, ok := ws.session(c)
	if !ok {
		return
	}
	snap := s.Snapshot()
	render(c, http.StatusOK, templates.Player(templates.PlayerView{
		SessionID:       s.ID,
		ImageURL:        templates.ImageURL(s.ID, snap.Photo.ID),
		Transition:      string(snap.State.Transition),
		FitMode:         string(snap.Config.FitMode),
		ControlsVisible: snap.ControlsVisible,
		Playing:         snap.State.Playing,
		Index:           snap.State.Index,
		Count:           snap.Count,
	}))
}

func (ws *WebServer) handleGetSettings(c *gin.Context) {
	settings, err := ws.db.GetAppSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get settings: %v", err)})
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (ws *WebServer) handleUpdateSettings(c *gin.Context) {
	var req models.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	settings := &store.AppSettings{
		IntervalSeconds: req.IntervalSeconds,
		Transition:      req.Transition,
		FitMode:         req.FitMode,
	}
	if err := ws.db.UpsertAppSettings(settings); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update settings: %v", err)})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// handleStatic serves the page stylesheets and scripts from the embedded filesystem.
func (ws *WebServer) handleStatic(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("filepath"), "/")
	data, err := webFiles.ReadFile(path.Join("web/static", name))
	if err != nil || name == "" {
		c.Status(http.StatusNotFound)
		return
	}
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, contentType, data)
}

func render(c *gin.Context, status int, page templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := page.Render(c.Request.Context(), c.Writer); err != nil {
		slog.Error("failed to render page", "path", c.FullPath(), "error", err)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("handled request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
