package slideshow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type monitorHarness struct {
	clock   *manualClock
	playing bool
	changes []bool
	m       *Monitor
}

func newMonitorHarness(playing bool) *monitorHarness {
	h := &monitorHarness{clock: newManualClock(), playing: playing}
	h.m = NewMonitor(h.clock, 0, func() bool { return h.playing }, func(visible bool) {
		h.changes = append(h.changes, visible)
	})
	return h
}

func TestMonitor_HidesAfterQuietPeriod(t *testing.T) {
	h := newMonitorHarness(true)
	assert.True(t, h.m.Visible())
	assert.Equal(t, 0, h.clock.Pending())

	h.m.PointerMoved()
	h.clock.Advance(2999 * time.Millisecond)
	assert.True(t, h.m.Visible())

	h.clock.Advance(time.Millisecond)
	assert.False(t, h.m.Visible())
	assert.Equal(t, []bool{false}, h.changes)
}

func TestMonitor_MovementRestartsQuietPeriod(t *testing.T) {
	h := newMonitorHarness(true)

	h.m.PointerMoved()
	h.clock.Advance(2999 * time.Millisecond)
	h.m.PointerMoved()
	assert.Equal(t, 1, h.clock.Pending())

	h.clock.Advance(2 * time.Millisecond)
	assert.True(t, h.m.Visible())

	h.clock.Advance(3 * time.Second)
	assert.False(t, h.m.Visible())
}

func TestMonitor_StaysVisibleWhilePaused(t *testing.T) {
	h := newMonitorHarness(false)

	h.m.PointerMoved()
	h.clock.Advance(10 * time.Second)
	assert.True(t, h.m.Visible())
	assert.Empty(t, h.changes)
}

func TestMonitor_Click(t *testing.T) {
	h := newMonitorHarness(true)

	assert.False(t, h.m.Click())

	h.m.PointerMoved()
	h.clock.Advance(3 * time.Second)
	assert.False(t, h.m.Visible())

	assert.True(t, h.m.Click())
	assert.True(t, h.m.Visible())
	assert.Equal(t, []bool{false, true}, h.changes)

	h.clock.Advance(3 * time.Second)
	assert.False(t, h.m.Visible())
}

func TestMonitor_PauseRevealsControls(t *testing.T) {
	h := newMonitorHarness(true)
	h.m.PointerMoved()
	h.clock.Advance(3 * time.Second)

	h.playing = false
	h.m.PlaybackChanged(false)
	assert.True(t, h.m.Visible())

	h.m.PlaybackChanged(true)
	assert.True(t, h.m.Visible())
	assert.Equal(t, []bool{false, true}, h.changes)
}

func TestMonitor_Close(t *testing.T) {
	h := newMonitorHarness(true)
	h.m.PointerMoved()
	h.m.Close()

	assert.Equal(t, 0, h.clock.Pending())
	h.m.PointerMoved()
	h.clock.Advance(time.Minute)
	assert.True(t, h.m.Visible())
	assert.Empty(t, h.changes)
}

func TestMonitor_PauseKeepsPendingQuietPeriod(t *testing.T) {
	h := newMonitorHarness(true)
	h.m.PointerMoved()
	h.clock.Advance(time.Second)

	h.playing = false
	h.m.PlaybackChanged(false)
	assert.Equal(t, 1, h.clock.Pending())

	h.playing = true
	h.m.PlaybackChanged(true)
	h.clock.Advance(2 * time.Second)
	assert.False(t, h.m.Visible())
	assert.Equal(t, []bool{false}, h.changes)
}
