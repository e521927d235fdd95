package types

import "fmt"

// Event is the abstract input of the orchestrator state machine.
// Events are derived from one inbound datagram and never stored.
type Event int

// EventNone marks a datagram that does not map to any event.
// It never indexes the transition table.
const EventNone Event = -1

// Events. The numeric values index the transition table columns.
const (
	EventStartup Event = iota
	EventApSetButton
	EventApConfigured
	EventApConfigError
	EventPeerInitFinished
	EventPeerInitError
	EventRecordButton
	EventRecordStopped
	EventPlayButton
	EventPlayStopped
	EventVolumeUpButton
	EventVolumeDownButton
	EventEffectButton
	EventTuningButton
	EventTuningStopped
	EventTuningCondition
	EventUploadStarted
	EventUploadStopped
	EventDownloadStopped
	EventShutdownButton
)

// NumEvents is the number of table columns.
const NumEvents = int(EventShutdownButton) + 1

var eventNames = [NumEvents]string{
	EventStartup:          "startup",
	EventApSetButton:      "ap_set_button",
	EventApConfigured:     "ap_configured",
	EventApConfigError:    "ap_config_error",
	EventPeerInitFinished: "peer_init_finished",
	EventPeerInitError:    "peer_init_error",
	EventRecordButton:     "record_button",
	EventRecordStopped:    "record_stopped",
	EventPlayButton:       "play_button",
	EventPlayStopped:      "play_stopped",
	EventVolumeUpButton:   "volume_up_button",
	EventVolumeDownButton: "volume_down_button",
	EventEffectButton:     "effect_button",
	EventTuningButton:     "tuning_button",
	EventTuningStopped:    "tuning_stopped",
	EventTuningCondition:  "tuning_condition",
	EventUploadStarted:    "upload_started",
	EventUploadStopped:    "upload_stopped",
	EventDownloadStopped:  "download_stopped",
	EventShutdownButton:   "shutdown_button",
}

// String returns the snake_case name of the event.
func (e Event) String() string {
	if e == EventNone {
		return "none"
	}
	if !e.Valid() {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

// Valid reports whether e indexes the transition table.
// EventNone is not valid.
func (e Event) Valid() bool {
	return e >= EventStartup && int(e) < NumEvents
}

// MarshalText implements encoding.TextMarshaler so events render by name.
func (e Event) MarshalText() ([]byte, error) {
	if e != EventNone && !e.Valid() {
		return nil, fmt.Errorf("invalid event %d", int(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. "none" decodes to
// EventNone.
func (e *Event) UnmarshalText(b []byte) error {
	if string(b) == EventNone.String() {
		*e = EventNone
		return nil
	}
	parsed, err := ParseEvent(string(b))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// ParseEvent resolves an event by its snake_case name.
func ParseEvent(name string) (Event, error) {
	for i, n := range eventNames {
		if n == name {
			return Event(i), nil
		}
	}
	return EventNone, fmt.Errorf("unknown event %q", name)
}

// AllEvents returns every table event in column order.
func AllEvents() []Event {
	events := make([]Event, NumEvents)
	for i := range events {
		events[i] = Event(i)
	}
	return events
}
