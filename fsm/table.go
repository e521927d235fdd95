package fsm

import "github.com/pithecene-io/pws/types"

// Entry is one transition table cell.
type Entry struct {
	Next   types.State
	Action ActionKind
}

// Table is the dense state x event transition table.
// Its array type makes every (state, event) pair addressable.
type Table [types.NumStates][types.NumEvents]Entry

type cell struct {
	event  types.Event
	next   types.State
	action ActionKind
}

// transitions lists the cells that differ from "stay, no action".
var transitions = map[types.State][]cell{
	types.StateInit: {
		{types.EventStartup, types.StatePdWait, ActionInitialize},
		{types.EventApSetButton, types.StateApSet, ActionApConfigure},
		{types.EventPeerInitFinished, types.StateIdle, ActionPeerInitFinished},
		{types.EventPeerInitError, types.StateInit, ActionPeerInitError},
		{types.EventShutdownButton, types.StateInit, ActionShutdown},
	},
	types.StateApSet: {
		{types.EventApConfigured, types.StatePdWait, ActionApConfigured},
		{types.EventApConfigError, types.StateApSet, ActionApConfigError},
		{types.EventPeerInitFinished, types.StateApSetWait, ActionPeerInitFinished},
		{types.EventPeerInitError, types.StateApSet, ActionPeerInitError},
		{types.EventShutdownButton, types.StateInit, ActionShutdown},
	},
	types.StateApSetWait: {
		{types.EventApConfigured, types.StateIdle, ActionApConfigured},
		{types.EventApConfigError, types.StateApSetWait, ActionApConfigError},
		{types.EventShutdownButton, types.StateInit, ActionShutdown},
	},
	types.StatePdWait: {
		{types.EventPeerInitFinished, types.StateIdle, ActionPeerInitFinished},
		{types.EventPeerInitError, types.StatePdWait, ActionPeerInitError},
		{types.EventShutdownButton, types.StateInit, ActionShutdown},
	},
	types.StateIdle: {
		{types.EventRecordButton, types.StateRecording, ActionRecordStart},
		{types.EventPlayButton, types.StatePlaying, ActionPlayStart},
		{types.EventVolumeUpButton, types.StateIdle, ActionVolumeUp},
		{types.EventVolumeDownButton, types.StateIdle, ActionVolumeDown},
		{types.EventEffectButton, types.StateIdle, ActionEffectToggle},
		{types.EventTuningButton, types.StateTuning, ActionTuningStart},
		{types.EventUploadStarted, types.StateIdle, ActionUploadStarted},
		{types.EventUploadStopped, types.StateIdle, ActionUploadStopped},
		{types.EventDownloadStopped, types.StateIdle, ActionDownloadStopped},
		{types.EventShutdownButton, types.StateInit, ActionShutdown},
	},
	types.StateRecording: {
		{types.EventRecordButton, types.StateRecording, ActionRecordStop},
		{types.EventRecordStopped, types.StateIdle, ActionRecordStopped},
		{types.EventVolumeUpButton, types.StateRecording, ActionVolumeUp},
		{types.EventVolumeDownButton, types.StateRecording, ActionVolumeDown},
		{types.EventEffectButton, types.StateRecording, ActionEffectToggle},
		{types.EventUploadStarted, types.StateRecording, ActionUploadStarted},
		{types.EventUploadStopped, types.StateRecording, ActionUploadStopped},
		{types.EventDownloadStopped, types.StateRecording, ActionDownloadStopped},
		{types.EventShutdownButton, types.StateInit, ActionShutdown},
	},
	types.StatePlaying: {
		{types.EventPlayButton, types.StatePlaying, ActionPlayStop},
		{types.EventPlayStopped, types.StateIdle, ActionPlayStopped},
		{types.EventVolumeUpButton, types.StatePlaying, ActionVolumeUp},
		{types.EventVolumeDownButton, types.StatePlaying, ActionVolumeDown},
		{types.EventEffectButton, types.StatePlaying, ActionEffectToggle},
		{types.EventUploadStarted, types.StatePlaying, ActionUploadStarted},
		{types.EventUploadStopped, types.StatePlaying, ActionUploadStopped},
		{types.EventDownloadStopped, types.StatePlaying, ActionDownloadStopped},
		{types.EventShutdownButton, types.StateInit, ActionShutdown},
	},
	types.StateTuning: {
		{types.EventVolumeUpButton, types.StateTuning, ActionVolumeUp},
		{types.EventVolumeDownButton, types.StateTuning, ActionVolumeDown},
		{types.EventEffectButton, types.StateTuning, ActionEffectToggle},
		{types.EventTuningButton, types.StateTuning, ActionTuningStop},
		{types.EventTuningStopped, types.StateIdle, ActionTuningStopped},
		{types.EventTuningCondition, types.StateTuning, ActionTuningCondition},
		{types.EventUploadStarted, types.StateTuning, ActionUploadStarted},
		{types.EventUploadStopped, types.StateTuning, ActionUploadStopped},
		{types.EventDownloadStopped, types.StateTuning, ActionDownloadStopped},
		{types.EventShutdownButton, types.StateInit, ActionShutdown},
	},
}

var defaultTable = buildTable()

// buildTable fills every cell with "stay, no action" and then applies
// the transitions list.
func buildTable() *Table {
	var t Table
	for s := range t {
		for e := range t[s] {
			t[s][e] = Entry{Next: types.State(s), Action: ActionNone}
		}
	}
	for s, cells := range transitions {
		for _, c := range cells {
			t[s][c.event] = Entry{Next: c.next, Action: c.action}
		}
	}
	return &t
}

// DefaultTable returns the appliance transition table.
// The returned value is a copy.
func DefaultTable() Table {
	return *defaultTable
}

// Lookup returns the entry for (s, e). It is total over valid states and
// events; anything else yields "stay, no action".
func (t *Table) Lookup(s types.State, e types.Event) Entry {
	if !s.Valid() || !e.Valid() {
		return Entry{Next: s, Action: ActionNone}
	}
	return t[s][e]
}

// Row returns the entries of state s in event order.
func (t *Table) Row(s types.State) []Entry {
	if !s.Valid() {
		return nil
	}
	row := t[s]
	return row[:]
}

// TransitionRow is one table cell flattened for display.
type TransitionRow struct {
	State   types.State `json:"state" yaml:"state"`
	Event   types.Event `json:"event" yaml:"event"`
	Address string      `json:"address" yaml:"address"`
	Next    types.State `json:"next" yaml:"next"`
	Action  ActionKind  `json:"action" yaml:"action"`
}

// Rows lists the cells of the given states (all states when none are
// given) in table order. Cells that stay without an action are omitted
// unless all is set.
func (t *Table) Rows(all bool, states ...types.State) []TransitionRow {
	if len(states) == 0 {
		states = types.AllStates()
	}
	var rows []TransitionRow
	for _, s := range states {
		for e, entry := range t.Row(s) {
			if !all && entry.Next == s && entry.Action == ActionNone {
				continue
			}
			ev := types.Event(e)
			addr, _ := AddressFor(ev)
			rows = append(rows, TransitionRow{
				State:   s,
				Event:   ev,
				Address: addr,
				Next:    entry.Next,
				Action:  entry.Action,
			})
		}
	}
	return rows
}
