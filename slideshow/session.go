package slideshow

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aouyang1/albumflow/album"
	"github.com/google/uuid"
)

type SessionOptions struct {
	Config      Config
	Clock       Clock
	Preloader   Preloader
	QuietPeriod time.Duration
	Rand        func(n int) int
}

// Session is one playback of one photo list. A new album gets a new session.
type Session struct {
	ID        string
	CreatedAt time.Time

	Player  *Player
	Monitor *Monitor

	clock Clock

	mu           sync.Mutex
	lastActivity time.Time
	subscribers  map[int]func(Event)
	nextSub      int
}

type Snapshot struct {
	ID              string
	State           State
	Config          Config
	ControlsVisible bool
	Photo           album.Photo
	Count           int
}

func NewSession(photos []album.Photo, opts SessionOptions) (*Session, error) {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}
	cfg := opts.Config
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}

	now := clock.Now()
	s := &Session{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		clock:        clock,
		lastActivity: now,
		subscribers:  make(map[int]func(Event)),
	}

	playerOpts := []Option{
		WithClock(clock),
		WithConfig(cfg),
		WithObserver(s.onPlayerEvent),
	}
	if opts.Preloader != nil {
		playerOpts = append(playerOpts, WithPreloader(opts.Preloader))
	}
	if opts.Rand != nil {
		playerOpts = append(playerOpts, WithRand(opts.Rand))
	}

	player, err := NewPlayer(photos, playerOpts...)
	if err != nil {
		return nil, err
	}
	s.Player = player
	s.Monitor = NewMonitor(clock, opts.QuietPeriod, player.Playing, s.onControlsChanged)

	slog.Info("started slideshow session", "session", s.ID, "photos", len(photos), "interval", cfg.Interval)
	return s, nil
}

// Subscribe registers fn for every session event until the returned cancel func is called.
func (s *Session) Subscribe(fn func(Event)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// Touch records user activity for idle reaping.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = s.clock.Now()
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) Snapshot() Snapshot {
	state := s.Player.State()
	return Snapshot{
		ID:              s.ID,
		State:           state,
		Config:          s.Player.Config(),
		ControlsVisible: s.Monitor.Visible(),
		Photo:           s.Player.PhotoAt(state.Index),
		Count:           s.Player.Len(),
	}
}

// Close stops every timer owned by the session and drops the subscribers.
func (s *Session) Close() {
	s.Player.Close()
	s.Monitor.Close()

	s.mu.Lock()
	s.subscribers = make(map[int]func(Event))
	s.mu.Unlock()

	slog.Info("closed slideshow session", "session", s.ID)
}

func (s *Session) onPlayerEvent(ev Event) {
	if s.Monitor != nil {
		// any player event may supersede a dropped state event
		s.Monitor.PlaybackChanged(ev.State.Playing)
		ev.ControlsVisible = s.Monitor.Visible()
	}
	s.publish(ev)
}

func (s *Session) onControlsChanged(visible bool) {
	s.publish(Event{
		Type:            EventControls,
		State:           s.Player.State(),
		Config:          s.Player.Config(),
		ControlsVisible: visible,
	})
}

func (s *Session) publish(ev Event) {
	s.mu.Lock()
	subs := make([]func(Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
