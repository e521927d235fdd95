// Package fsm implements the orchestrator state machine: event
// classification, the transition table and the transition actions.
package fsm

import (
	"github.com/pithecene-io/pws/osc"
	"github.com/pithecene-io/pws/types"
)

// addressEvents maps inbound addresses to events by exact match.
var addressEvents = map[string]types.Event{
	types.AddrInitialize:       types.EventStartup,
	types.AddrPushApSet:        types.EventApSetButton,
	types.AddrApConfigured:     types.EventApConfigured,
	types.AddrPeerInitFinished: types.EventPeerInitFinished,
	types.AddrPushRecord:       types.EventRecordButton,
	types.AddrRecordStopped:    types.EventRecordStopped,
	types.AddrPushPlay:         types.EventPlayButton,
	types.AddrPlayStopped:      types.EventPlayStopped,
	types.AddrPushVolumeUp:     types.EventVolumeUpButton,
	types.AddrPushVolumeDown:   types.EventVolumeDownButton,
	types.AddrPushEffect:       types.EventEffectButton,
	types.AddrPushTuning:       types.EventTuningButton,
	types.AddrTuneStopped:      types.EventTuningStopped,
	types.AddrTuneCondition:    types.EventTuningCondition,
	types.AddrUploadStarted:    types.EventUploadStarted,
	types.AddrUploadStopped:    types.EventUploadStopped,
	types.AddrDownloadStopped:  types.EventDownloadStopped,
	types.AddrPushShutdown:     types.EventShutdownButton,
}

// errorVariants re-maps success notifications that carry a negative
// leading status to their error event.
var errorVariants = map[types.Event]types.Event{
	types.EventApConfigured:     types.EventApConfigError,
	types.EventPeerInitFinished: types.EventPeerInitError,
}

// Args are the action inputs derived from a message: the leading int32
// status and the second and third arguments as strings.
// Missing or differently typed arguments leave the zero value.
type Args struct {
	Code  int32
	Text1 string
	Text2 string
}

// ArgsFrom extracts action arguments from msg.
func ArgsFrom(msg *osc.Message) Args {
	var a Args
	a.Code, _ = msg.IntArg(0)
	a.Text1, _ = msg.StringArg(1)
	a.Text2, _ = msg.StringArg(2)
	return a
}

// Classify maps a decoded message to an event.
// Unknown addresses return types.EventNone.
func Classify(msg *osc.Message) (types.Event, Args) {
	if msg == nil {
		return types.EventNone, Args{}
	}
	ev, ok := addressEvents[msg.Address]
	if !ok {
		return types.EventNone, Args{}
	}
	if errEv, ok := errorVariants[ev]; ok {
		if status, present := msg.IntArg(0); present && status < 0 {
			ev = errEv
		}
	}
	return ev, ArgsFrom(msg)
}

// AddressFor returns the inbound address that classifies as ev.
// Error variants return the address of their success event.
func AddressFor(ev types.Event) (string, bool) {
	for success, errEv := range errorVariants {
		if errEv == ev {
			ev = success
		}
	}
	for addr, e := range addressEvents {
		if e == ev {
			return addr, true
		}
	}
	return "", false
}
