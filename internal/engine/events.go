package engine

import "pokepet/internal/pet"

// EventKind classifies what an observer is being told.
type EventKind int

const (
	// EventChanged fires after any change to the pet, its needs or its mode.
	EventChanged EventKind = iota
	// EventMessage carries a user-visible message.
	EventMessage
	// EventCritical is a low-gauge alert, one per gauge per check.
	EventCritical
	// EventGameOver fires once when the pet runs away.
	EventGameOver
)

func (k EventKind) String() string {
	switch k {
	case EventChanged:
		return "changed"
	case EventMessage:
		return "message"
	case EventCritical:
		return "critical"
	case EventGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Cause is the reason reported when the pet runs away.
type Cause string

const (
	CauseNone      Cause = ""
	CauseStarved   Cause = "starved"
	CauseSad       Cause = "got too sad"
	CauseExhausted Cause = "got too exhausted"
)

// CauseFor maps a depleted gauge to its game-over reason.
func CauseFor(g pet.Gauge) Cause {
	switch g {
	case pet.Hunger:
		return CauseStarved
	case pet.Happiness:
		return CauseSad
	case pet.Energy:
		return CauseExhausted
	}
	return CauseNone
}

// Event is delivered to every observer. Snapshot is a copy and safe to keep.
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
	Message  string
	Gauge    pet.Gauge
	Cause    Cause
}

// Observer receives engine events on the engine's thread. Implementations
// must not call back into the engine.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Notify implements Observer.
func (f ObserverFunc) Notify(ev Event) { f(ev) }

// Recorder buffers events until drained. The UI uses it to pick up events
// produced by timer callbacks and actions between two updates.
type Recorder struct {
	events []Event
}

// Notify implements Observer.
func (r *Recorder) Notify(ev Event) {
	r.events = append(r.events, ev)
}

// Drain returns the buffered events and empties the buffer.
func (r *Recorder) Drain() []Event {
	events := r.events
	r.events = nil
	return events
}
