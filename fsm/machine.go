package fsm

import (
	"context"

	"github.com/pithecene-io/pws/types"
)

// Transition records one handled event.
type Transition struct {
	From   types.State
	To     types.State
	Event  types.Event
	Action ActionKind
	// ActionErr is the action failure, if any. The transition commits regardless.
	ActionErr error
}

// Changed reports whether the state changed.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Machine holds the controller state and drives transitions.
// It is not safe for concurrent use; one dispatch loop owns it.
type Machine struct {
	state   types.State
	table   *Table
	actions *Actions
}

// Option configures a Machine.
type Option func(*Machine)

// WithState sets the initial state (default types.StateInit).
func WithState(s types.State) Option {
	return func(m *Machine) { m.state = s }
}

// WithTable replaces the transition table.
func WithTable(t *Table) Option {
	return func(m *Machine) { m.table = t }
}

// NewMachine creates a machine in types.StateInit using the default table.
func NewMachine(actions *Actions, opts ...Option) *Machine {
	m := &Machine{
		state:   types.StateInit,
		table:   defaultTable,
		actions: actions,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Machine) State() types.State {
	return m.state
}

// Handle looks up (state, ev), runs the action with the pre-transition
// state and then commits the next state. The action's error is reported
// in the returned Transition and never changes the next state.
// EventNone and unknown events leave the machine untouched.
func (m *Machine) Handle(ctx context.Context, ev types.Event, args Args) Transition {
	from := m.state
	entry := m.table.Lookup(from, ev)

	tr := Transition{From: from, To: entry.Next, Event: ev, Action: entry.Action}
	if entry.Action != ActionNone {
		tr.ActionErr = m.actions.Run(ctx, entry.Action, from, args)
	}
	m.state = entry.Next
	return tr
}
