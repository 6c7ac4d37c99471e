// Package slideshow manages playback of a photo list: the advance timer, transitions, preloading and
// the visibility of the controls
package slideshow

import (
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/aouyang1/albumflow/album"
)

type State struct {
	Index   int  `json:"index"`
	Playing bool `json:"playing"`
	// Transition is always concrete, never TransitionRandom.
	Transition TransitionType `json:"transition"`
}

// Player cycles through a fixed photo list. Every exported method is one atomic event: index and
// transition change together under the same lock.
type Player struct {
	mu sync.Mutex

	photos []album.Photo
	cfg    Config
	state  State

	clock     Clock
	intn      func(n int) int
	preloader Preloader
	observer  func(Event)

	// tick is the pending advance timer; tickGen invalidates callbacks of stopped timers
	tick    Timer
	tickGen uint64
	closed  bool

	// seq stamps events under mu. emitMu serializes delivery and emitted is the last delivered seq, so an
	// event overtaken by a newer one is dropped instead of reaching the observer out of order.
	seq     uint64
	emitMu  sync.Mutex
	emitted uint64
}

type Option func(*Player)

func WithClock(clock Clock) Option {
	return func(p *Player) { p.clock = clock }
}

// WithRand sets the source used to pick random transitions; intn(n) returns a value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(p *Player) { p.intn = intn }
}

func WithPreloader(preloader Preloader) Option {
	return func(p *Player) { p.preloader = preloader }
}

func WithConfig(cfg Config) Option {
	return func(p *Player) { p.cfg = cfg }
}

// WithObserver receives every event after the lock is released.
func WithObserver(observer func(Event)) Option {
	return func(p *Player) { p.observer = observer }
}

func NewPlayer(photos []album.Photo, opts ...Option) (*Player, error) {
	if len(photos) == 0 {
		return nil, errors.New("no photos provided for slideshow")
	}

	p := &Player{
		photos: append([]album.Photo(nil), photos...),
		cfg:    DefaultConfig(),
		clock:  SystemClock,
		intn:   rand.IntN,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	p.state = State{Index: 0, Playing: true, Transition: TransitionFade}
	if p.cfg.Transition.Concrete() {
		p.state.Transition = p.cfg.Transition
	}

	p.mu.Lock()
	p.armLocked()
	p.mu.Unlock()

	p.preload(0)
	return p, nil
}

func (p *Player) Next() {
	p.advance(1)
}

func (p *Player) Prev() {
	p.advance(-1)
}

// Toggle flips between playing and paused. Resuming starts a full interval.
func (p *Player) Toggle() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.state.Playing = !p.state.Playing
	p.armLocked()
	ev := p.eventLocked(EventState)
	p.mu.Unlock()

	p.emit(ev)
}

// Apply changes one setting. An interval change restarts the advance timer.
func (p *Player) Apply(u Update) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New("slideshow is closed")
	}
	prev := p.cfg
	if err := u.apply(&p.cfg); err != nil {
		p.mu.Unlock()
		return err
	}
	if p.cfg.Interval != prev.Interval {
		p.armLocked()
	}
	ev := p.eventLocked(EventConfig)
	p.mu.Unlock()

	p.emit(ev)
	return nil
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

func (p *Player) Playing() bool {
	return p.State().Playing
}

func (p *Player) Current() album.Photo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.photos[p.state.Index]
}

func (p *Player) Photos() []album.Photo {
	return append([]album.Photo(nil), p.photos...)
}

// PhotoAt returns the photo at a wrapped index.
func (p *Player) PhotoAt(index int) album.Photo {
	return p.photos[wrap(index, len(p.photos))]
}

// Find returns the photo with the given id.
func (p *Player) Find(id string) (album.Photo, bool) {
	for _, photo := range p.photos {
		if photo.ID == id {
			return photo, true
		}
	}
	return album.Photo{}, false
}

func (p *Player) Len() int {
	return len(p.photos)
}

// Close releases the advance timer. Later calls are no-ops.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disarmLocked()
	p.closed = true
}

func (p *Player) advance(delta int) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	ev := p.advanceLocked(delta)
	p.mu.Unlock()

	p.preload(ev.State.Index)
	p.emit(ev)
}

func (p *Player) advanceLocked(delta int) Event {
	p.state.Index = wrap(p.state.Index+delta, len(p.photos))
	p.state.Transition = p.resolveTransitionLocked()
	return p.eventLocked(EventIndex)
}

func (p *Player) eventLocked(typ EventType) Event {
	p.seq++
	return Event{Type: typ, State: p.state, Config: p.cfg, Seq: p.seq}
}

func (p *Player) resolveTransitionLocked() TransitionType {
	if p.cfg.Transition.Concrete() {
		return p.cfg.Transition
	}
	return RandomTransitions[p.intn(len(RandomTransitions))]
}

// armLocked drops any pending timer and, while playing, schedules a fresh full interval.
func (p *Player) armLocked() {
	p.disarmLocked()
	if p.closed || !p.state.Playing {
		return
	}
	gen := p.tickGen
	p.tick = p.clock.AfterFunc(p.cfg.Interval, func() { p.onTick(gen) })
}

func (p *Player) disarmLocked() {
	if p.tick != nil {
		p.tick.Stop()
		p.tick = nil
	}
	p.tickGen++
}

func (p *Player) onTick(gen uint64) {
	p.mu.Lock()
	if p.closed || gen != p.tickGen || !p.state.Playing {
		// stale timer
		p.mu.Unlock()
		return
	}
	ev := p.advanceLocked(1)
	p.tick = p.clock.AfterFunc(p.cfg.Interval, func() { p.onTick(gen) })
	p.mu.Unlock()

	p.preload(ev.State.Index)
	p.emit(ev)
}

func (p *Player) preload(index int) {
	if p.preloader == nil || len(p.photos) < 2 {
		return
	}
	prev, next := Neighbors(len(p.photos), index)
	urls := []string{p.photos[next].URL}
	if prev != next {
		urls = append(urls, p.photos[prev].URL)
	}
	p.preloader.Preload(urls...)
}

// emit delivers events in seq order. Every event carries the full state, so a stale one is safe to drop.
func (p *Player) emit(ev Event) {
	if p.observer == nil {
		return
	}
	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	if ev.Seq <= p.emitted {
		return
	}
	p.emitted = ev.Seq
	p.observer(ev)
}
