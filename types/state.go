package types

import "fmt"

// State is the controller state of the orchestrator.
// Exactly one value is live per process; it starts at StateInit and is
// never persisted.
type State int

// Controller states. The numeric values index the transition table.
const (
	// StateInit is the power-on state, before the peer sub-processes report in.
	StateInit State = iota
	// StateApSet is access-point configuration mode entered from the boot pattern.
	StateApSet
	// StateApSetWait waits for AP configuration after the peer has initialized.
	StateApSetWait
	// StatePdWait waits for the peer sub-process to finish initializing.
	StatePdWait
	// StateIdle accepts record, play and tuning requests.
	StateIdle
	// StateRecording is active while the recorder service is capturing.
	StateRecording
	// StatePlaying is active while the player service is playing back.
	StatePlaying
	// StateTuning is active while the tuner service runs.
	StateTuning
)

// NumStates is the number of controller states (table rows).
const NumStates = int(StateTuning) + 1

var stateNames = [NumStates]string{
	StateInit:      "init",
	StateApSet:     "ap_set",
	StateApSetWait: "ap_set_wait",
	StatePdWait:    "pd_wait",
	StateIdle:      "idle",
	StateRecording: "recording",
	StatePlaying:   "playing",
	StateTuning:    "tuning",
}

// String returns the snake_case name of the state.
func (s State) String() string {
	if !s.Valid() {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Valid reports whether s is one of the defined states.
func (s State) Valid() bool {
	return s >= StateInit && int(s) < NumStates
}

// MarshalText implements encoding.TextMarshaler so states render by name.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	parsed, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseState resolves a state by its snake_case name.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return StateInit, fmt.Errorf("unknown state %q", name)
}

// AllStates returns every state in table order.
func AllStates() []State {
	states := make([]State, NumStates)
	for i := range states {
		states[i] = State(i)
	}
	return states
}
