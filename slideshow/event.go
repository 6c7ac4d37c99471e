package slideshow

type EventType string

const (
	EventIndex    EventType = "index"
	EventState    EventType = "state"
	EventConfig   EventType = "config"
	EventControls EventType = "controls"
)

// Event is published after every change to a session. State and Config are snapshots taken under the
// same lock as the change.
type Event struct {
	Type            EventType
	State           State
	Config          Config
	ControlsVisible bool
	// Seq orders the events of one player. Controls events carry zero.
	Seq uint64
}
