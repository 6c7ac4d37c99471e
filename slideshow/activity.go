package slideshow

import (
	"sync"
	"time"
)

const DefaultQuietPeriod = 3 * time.Second

// Monitor shows the controls on pointer activity and hides them after a quiet period, but only while
// playback is running.
type Monitor struct {
	mu sync.Mutex

	clock   Clock
	quiet   time.Duration
	playing func() bool
	notify  func(visible bool)

	visible bool
	timer   Timer
	gen     uint64
	closed  bool
}

func NewMonitor(clock Clock, quiet time.Duration, playing func() bool, notify func(visible bool)) *Monitor {
	if clock == nil {
		clock = SystemClock
	}
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Monitor{
		clock:   clock,
		quiet:   quiet,
		playing: playing,
		notify:  notify,
		visible: true,
	}
}

// PointerMoved shows the controls and restarts the quiet period.
func (m *Monitor) PointerMoved() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	changed := m.setVisibleLocked(true)
	m.stopLocked()
	gen := m.gen
	m.timer = m.clock.AfterFunc(m.quiet, func() { m.onQuiet(gen) })
	m.mu.Unlock()

	m.publish(changed, true)
}

// Click counts as pointer movement when the controls are hidden. It reports whether it did anything.
func (m *Monitor) Click() bool {
	if m.Visible() {
		return false
	}
	m.PointerMoved()
	return true
}

// PlaybackChanged keeps the controls up while paused. A pending quiet period is left running; it hides
// nothing until playback resumes.
func (m *Monitor) PlaybackChanged(playing bool) {
	if playing {
		return
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	changed := m.setVisibleLocked(true)
	m.mu.Unlock()

	m.publish(changed, true)
}

func (m *Monitor) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	m.closed = true
}

func (m *Monitor) onQuiet(gen uint64) {
	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	changed := false
	if m.playing == nil || m.playing() {
		changed = m.setVisibleLocked(false)
	}
	m.mu.Unlock()

	m.publish(changed, false)
}

func (m *Monitor) stopLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
}

func (m *Monitor) setVisibleLocked(visible bool) bool {
	if m.visible == visible {
		return false
	}
	m.visible = visible
	return true
}

func (m *Monitor) publish(changed, visible bool) {
	if changed && m.notify != nil {
		m.notify(visible)
	}
}
