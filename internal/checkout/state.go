package checkout

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoTransition is returned when an event is not valid in the current state.
var ErrNoTransition = errors.New("checkout: no transition available")

// State is a checkout stage. There is deliberately no "paid" state: payment
// completion is only ever known to the backend.
type State string

const (
	StateIdle              State = "idle"
	StatePlansLoaded       State = "plans_loaded"
	StateSubmitting        State = "submitting"
	StateHandoffInProgress State = "handoff_in_progress"
	StateSubmitFailed      State = "submit_failed"
)

// Event drives a transition.
type Event string

const (
	EventPlansLoaded     Event = "plans_loaded"
	EventSubmit          Event = "submit"
	EventPayloadReceived Event = "payload_received"
	EventSubmitFailed    Event = "submit_failed"
	EventHandoffFailed   Event = "handoff_failed"
	EventReset           Event = "reset"
)

// transitions is keyed [from][event] -> to.
var transitions = map[State]map[Event]State{
	StateIdle: {
		EventPlansLoaded: StatePlansLoaded,
		EventSubmit:      StateSubmitting,
	},
	StatePlansLoaded: {
		EventPlansLoaded: StatePlansLoaded,
		EventSubmit:      StateSubmitting,
	},
	StateSubmitting: {
		EventPayloadReceived: StateHandoffInProgress,
		EventSubmitFailed:    StateSubmitFailed,
	},
	StateHandoffInProgress: {
		EventHandoffFailed: StateSubmitFailed,
		EventReset:         StateIdle,
	},
	// SubmitFailed accepts everything Idle does.
	StateSubmitFailed: {
		EventPlansLoaded: StatePlansLoaded,
		EventSubmit:      StateSubmitting,
		EventReset:       StateIdle,
	},
}

// Machine is a thread-safe checkout state machine.
type Machine struct {
	mu      sync.RWMutex
	current State
}

// NewMachine returns a machine in StateIdle.
func NewMachine() *Machine {
	return &Machine{current: StateIdle}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// CanFire reports whether e is valid in the current state.
func (m *Machine) CanFire(e Event) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := transitions[m.current][e]
	return ok
}

// Fire applies e and returns the new state.
func (m *Machine) Fire(e Event) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	to, ok := transitions[m.current][e]
	if !ok {
		return m.current, fmt.Errorf("%w: %s in state %s", ErrNoTransition, e, m.current)
	}
	m.current = to
	return to, nil
}
