package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aouyang1/albumflow/slideshow"
)

const reapInterval = time.Minute

// SessionManager owns the live slideshow sessions and periodically closes the ones nobody has touched
// within the idle timeout.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*slideshow.Session

	idleTimeout time.Duration
	clock       slideshow.Clock

	// onClose runs after a session is removed, outside the lock
	onClose func(id string)
}

func NewSessionManager(idleTimeout time.Duration, clock slideshow.Clock, onClose func(id string)) *SessionManager {
	if clock == nil {
		clock = slideshow.SystemClock
	}
	return &SessionManager{
		sessions:    make(map[string]*slideshow.Session),
		idleTimeout: idleTimeout,
		clock:       clock,
		onClose:     onClose,
	}
}

func (m *SessionManager) Add(s *slideshow.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

// Get returns the session and records the access as activity.
func (m *SessionManager) Get(id string) (*slideshow.Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.Touch()
	}
	return s, ok
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Remove closes and forgets the session. It reports whether the session existed.
func (m *SessionManager) Remove(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.Close()
	if m.onClose != nil {
		m.onClose(id)
	}
	return true
}

func (m *SessionManager) reap() int {
	if m.idleTimeout <= 0 {
		return 0
	}
	now := m.clock.Now()

	var idle []string
	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastActivity()) >= m.idleTimeout {
			idle = append(idle, id)
		}
	}
	m.mu.Unlock()

	for _, id := range idle {
		slog.Info("closing idle slideshow session", "session", id)
		m.Remove(id)
	}
	return len(idle)
}

// Run reaps idle sessions until ctx is done, then closes every remaining session.
func (m *SessionManager) Run(ctx context.Context) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return
		case <-ticker.C:
			m.reap()
		}
	}
}

func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Remove(id)
	}
}
