// Package adapter defines the notification boundary for controller
// state changes.
//
// Adapters publish one TransitionEvent per handled event to a downstream
// system (the appliance web UI, a bench monitor). Publishing is
// best-effort and never feeds back into the state machine.
package adapter

import "context"

// EventType is the discriminant carried by every TransitionEvent.
const EventType = "transition"

// TransitionEvent is the payload published after a transition commits.
type TransitionEvent struct {
	ProtocolVersion string `json:"protocol_version" msgpack:"protocol_version"`
	EventType       string `json:"event_type" msgpack:"event_type"` // always "transition"
	BootID          string `json:"boot_id" msgpack:"boot_id"`
	Seq             uint64 `json:"seq" msgpack:"seq"`
	From            string `json:"from" msgpack:"from"`
	To              string `json:"to" msgpack:"to"`
	Event           string `json:"event" msgpack:"event"`
	Address         string `json:"address" msgpack:"address"`
	Action          string `json:"action" msgpack:"action"`
	ActionError     string `json:"action_error,omitempty" msgpack:"action_error,omitempty"`
	Timestamp       string `json:"timestamp" msgpack:"timestamp"` // RFC 3339
}

// Adapter publishes transition events to a downstream system.
type Adapter interface {
	// Publish sends one event. Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *TransitionEvent) error

	// Close releases adapter resources.
	Close() error
}
