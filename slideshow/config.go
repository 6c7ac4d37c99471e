package slideshow

import (
	"fmt"
	"time"
)

type TransitionType string

const (
	// TransitionRandom is a selection directive, never an animation. It is resolved to one of
	// RandomTransitions on every advance.
	TransitionRandom TransitionType = "random"
	TransitionFade   TransitionType = "fade"
	TransitionSlide  TransitionType = "slide"
	TransitionZoom   TransitionType = "zoom"
	TransitionFlip   TransitionType = "flip"
	TransitionBlur   TransitionType = "blur"
)

var ConcreteTransitions = []TransitionType{
	TransitionFade,
	TransitionSlide,
	TransitionZoom,
	TransitionFlip,
	TransitionBlur,
}

// RandomTransitions is the pool random draws from. Blur only plays when chosen explicitly.
var RandomTransitions = []TransitionType{
	TransitionFade,
	TransitionSlide,
	TransitionZoom,
	TransitionFlip,
}

func (t TransitionType) Concrete() bool {
	for _, c := range ConcreteTransitions {
		if t == c {
			return true
		}
	}
	return false
}

func (t TransitionType) Valid() bool {
	return t == TransitionRandom || t.Concrete()
}

type FitMode string

const (
	FitCover   FitMode = "cover"
	FitContain FitMode = "contain"
)

func (f FitMode) Valid() bool {
	return f == FitCover || f == FitContain
}

type Config struct {
	Interval   time.Duration
	Transition TransitionType
	FitMode    FitMode
}

const DefaultInterval = 5 * time.Second

func DefaultConfig() Config {
	return Config{
		Interval:   DefaultInterval,
		Transition: TransitionRandom,
		FitMode:    FitCover,
	}
}

func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", c.Interval)
	}
	if !c.Transition.Valid() {
		return fmt.Errorf("unknown transition type %q", c.Transition)
	}
	if !c.FitMode.Valid() {
		return fmt.Errorf("unknown fit mode %q", c.FitMode)
	}
	return nil
}

// Update is a single settings change. Each setting has its own update type so an interval can only
// ever carry a duration and a transition only a TransitionType.
type Update interface {
	apply(c *Config) error
}

type IntervalUpdate struct {
	Interval time.Duration
}

func (u IntervalUpdate) apply(c *Config) error {
	if u.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", u.Interval)
	}
	c.Interval = u.Interval
	return nil
}

type TransitionUpdate struct {
	Transition TransitionType
}

func (u TransitionUpdate) apply(c *Config) error {
	if !u.Transition.Valid() {
		return fmt.Errorf("unknown transition type %q", u.Transition)
	}
	c.Transition = u.Transition
	return nil
}

type FitModeUpdate struct {
	FitMode FitMode
}

func (u FitModeUpdate) apply(c *Config) error {
	if !u.FitMode.Valid() {
		return fmt.Errorf("unknown fit mode %q", u.FitMode)
	}
	c.FitMode = u.FitMode
	return nil
}
