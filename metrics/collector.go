// Package metrics provides process-lifetime counters for the orchestrator.
//
// The Collector accumulates counters while the dispatch loop runs. It is a
// leaf package: event names are plain strings so it does not depend on the
// types package.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Inbound
	DatagramsReceived int64 `json:"datagrams_received" yaml:"datagrams_received"`
	DecodeErrors      int64 `json:"decode_errors" yaml:"decode_errors"`
	Unclassified      int64 `json:"unclassified" yaml:"unclassified"`

	// State machine
	Transitions    int64            `json:"transitions" yaml:"transitions"`
	StateChanges   int64            `json:"state_changes" yaml:"state_changes"`
	IgnoredEvents  int64            `json:"ignored_events" yaml:"ignored_events"`
	ActionFailures int64            `json:"action_failures" yaml:"action_failures"`
	EventsByName   map[string]int64 `json:"events_by_name" yaml:"events_by_name"`

	// Outbound
	MessagesSent    int64 `json:"messages_sent" yaml:"messages_sent"`
	SendFailures    int64 `json:"send_failures" yaml:"send_failures"`
	CommandsRun     int64 `json:"commands_run" yaml:"commands_run"`
	CommandFailures int64 `json:"command_failures" yaml:"command_failures"`
	NotifyPublished int64 `json:"notify_published" yaml:"notify_published"`
	NotifyDropped   int64 `json:"notify_dropped" yaml:"notify_dropped"`
	NotifyFailures  int64 `json:"notify_failures" yaml:"notify_failures"`

	// Dimensions (informational, set at construction)
	BootID string `json:"boot_id" yaml:"boot_id"`
	Port   int    `json:"port" yaml:"port"`
}

// Collector accumulates counters for one orchestrator process.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	datagramsReceived int64
	decodeErrors      int64
	unclassified      int64

	transitions    int64
	stateChanges   int64
	ignoredEvents  int64
	actionFailures int64
	eventsByName   map[string]int64

	messagesSent    int64
	sendFailures    int64
	commandsRun     int64
	commandFailures int64
	notifyPublished int64
	notifyDropped   int64
	notifyFailures  int64

	bootID string
	port   int
}

// NewCollector creates a Collector labelled with the boot ID and the
// orchestrator's receive port.
func NewCollector(bootID string, port int) *Collector {
	return &Collector{
		eventsByName: make(map[string]int64),
		bootID:       bootID,
		port:         port,
	}
}

// add increments field under the lock. Callers check for a nil receiver.
func (c *Collector) add(field *int64) {
	c.mu.Lock()
	*field++
	c.mu.Unlock()
}

// --- Inbound ---

// IncDatagramReceived records one received datagram.
func (c *Collector) IncDatagramReceived() {
	if c == nil {
		return
	}
	c.add(&c.datagramsReceived)
}

// IncDecodeError records a dropped malformed datagram.
func (c *Collector) IncDecodeError() {
	if c == nil {
		return
	}
	c.add(&c.decodeErrors)
}

// IncUnclassified records a datagram whose address maps to no event.
func (c *Collector) IncUnclassified() {
	if c == nil {
		return
	}
	c.add(&c.unclassified)
}

// --- State machine ---

// RecordTransition records one handled event.
// changed is true when the state changed; acted is false for cells
// without an action.
func (c *Collector) RecordTransition(event string, changed, acted bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitions++
	c.eventsByName[event]++
	if changed {
		c.stateChanges++
	}
	if !acted && !changed {
		c.ignoredEvents++
	}
}

// IncActionFailure records an action that reported an error.
func (c *Collector) IncActionFailure() {
	if c == nil {
		return
	}
	c.add(&c.actionFailures)
}

// --- Outbound ---
// Send counters are per datagram. A sent datagram is one that left the
// process; delivery is never confirmed.

// IncMessageSent records a datagram handed to the network.
func (c *Collector) IncMessageSent() {
	if c == nil {
		return
	}
	c.add(&c.messagesSent)
}

// IncSendFailure records a datagram that could not be sent.
func (c *Collector) IncSendFailure() {
	if c == nil {
		return
	}
	c.add(&c.sendFailures)
}

// IncCommandRun records an OS command invocation.
func (c *Collector) IncCommandRun() {
	if c == nil {
		return
	}
	c.add(&c.commandsRun)
}

// IncCommandFailure records an OS command that failed.
func (c *Collector) IncCommandFailure() {
	if c == nil {
		return
	}
	c.add(&c.commandFailures)
}

// IncNotifyPublished records a transition notification delivered to the adapter.
func (c *Collector) IncNotifyPublished() {
	if c == nil {
		return
	}
	c.add(&c.notifyPublished)
}

// IncNotifyDropped records a notification dropped because the queue was full.
func (c *Collector) IncNotifyDropped() {
	if c == nil {
		return
	}
	c.add(&c.notifyDropped)
}

// IncNotifyFailure records a notification the adapter failed to publish.
func (c *Collector) IncNotifyFailure() {
	if c == nil {
		return
	}
	c.add(&c.notifyFailures)
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all counters.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	events := make(map[string]int64, len(c.eventsByName))
	for k, v := range c.eventsByName {
		events[k] = v
	}

	return Snapshot{
		DatagramsReceived: c.datagramsReceived,
		DecodeErrors:      c.decodeErrors,
		Unclassified:      c.unclassified,

		Transitions:    c.transitions,
		StateChanges:   c.stateChanges,
		IgnoredEvents:  c.ignoredEvents,
		ActionFailures: c.actionFailures,
		EventsByName:   events,

		MessagesSent:    c.messagesSent,
		SendFailures:    c.sendFailures,
		CommandsRun:     c.commandsRun,
		CommandFailures: c.commandFailures,
		NotifyPublished: c.notifyPublished,
		NotifyDropped:   c.notifyDropped,
		NotifyFailures:  c.notifyFailures,

		BootID: c.bootID,
		Port:   c.port,
	}
}
