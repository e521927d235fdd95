// Package runtime runs the orchestrator's receive loop.
//
// The Dispatcher owns the receive socket and the state machine. Datagrams
// are handled one at a time: decode, classify, transition. Nothing here is
// safe for concurrent use except Run's cancellation.
package runtime

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/pithecene-io/pws/adapter"
	"github.com/pithecene-io/pws/fsm"
	"github.com/pithecene-io/pws/log"
	"github.com/pithecene-io/pws/metrics"
	"github.com/pithecene-io/pws/osc"
	"github.com/pithecene-io/pws/transport"
	"github.com/pithecene-io/pws/types"
)

// DispatcherConfig wires a Dispatcher.
type DispatcherConfig struct {
	// Listener is the bound receive socket (required).
	Listener *transport.Listener
	// Machine is the state machine (required).
	Machine *fsm.Machine
	// Notifier receives one event per handled transition. May be nil.
	Notifier *Notifier
	// Logger defaults to a nop logger.
	Logger *log.Logger
	// Collector may be nil; all Collector methods are nil-safe.
	Collector *metrics.Collector
	// Now overrides the clock used for notification timestamps.
	Now func() time.Time
}

// Dispatcher is the single-threaded receive loop.
type Dispatcher struct {
	listener *transport.Listener
	machine  *fsm.Machine
	notifier *Notifier
	logger   *log.Logger
	metrics  *metrics.Collector
	now      func() time.Time
	bootID   string
	seq      uint64
}

// NewDispatcher creates a dispatcher from config.
func NewDispatcher(config DispatcherConfig) (*Dispatcher, error) {
	if config.Listener == nil {
		return nil, fmt.Errorf("dispatcher requires a listener")
	}
	if config.Machine == nil {
		return nil, fmt.Errorf("dispatcher requires a state machine")
	}
	logger := config.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		listener: config.Listener,
		machine:  config.Machine,
		notifier: config.Notifier,
		logger:   logger.Named("dispatch"),
		metrics:  config.Collector,
		now:      now,
		bootID:   logger.BootID(),
	}, nil
}

// Run receives and handles datagrams until ctx is canceled or the
// socket fails. Cancellation closes the socket to unblock the pending
// receive and Run returns nil. Any other receive error is returned.
func (d *Dispatcher) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = d.listener.Close()
	})
	defer stop()

	d.logger.Info("dispatcher started", map[string]any{
		"port":  d.listener.Port(),
		"state": d.machine.State().String(),
	})

	for {
		data, from, err := d.listener.Receive()
		if err != nil {
			if ctx.Err() != nil && transport.IsClosed(err) {
				d.logger.Info("dispatcher stopped", map[string]any{
					"state": d.machine.State().String(),
				})
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		d.Handle(ctx, data, from)
	}
}

// Handle processes one datagram. The returned bool is false when the
// datagram was dropped before reaching the state machine.
func (d *Dispatcher) Handle(ctx context.Context, data []byte, from net.Addr) (fsm.Transition, bool) {
	d.metrics.IncDatagramReceived()

	if d.logger.Enabled(zapcore.DebugLevel) {
		d.logger.Debug("datagram received", map[string]any{
			"from": addrString(from),
			"size": len(data),
			"dump": hex.Dump(data),
		})
	}

	msg, err := osc.Decode(data)
	if err != nil {
		d.metrics.IncDecodeError()
		d.logger.Warn("dropping malformed datagram", map[string]any{
			"from":  addrString(from),
			"size":  len(data),
			"error": err.Error(),
		})
		return fsm.Transition{}, false
	}

	ev, args := fsm.Classify(msg)
	if ev == types.EventNone {
		d.metrics.IncUnclassified()
		d.logger.Debug("no event for address", map[string]any{
			"address": msg.Address,
		})
		return fsm.Transition{}, false
	}

	tr := d.machine.Handle(ctx, ev, args)
	acted := tr.Action != fsm.ActionNone
	d.metrics.RecordTransition(ev.String(), tr.Changed(), acted)

	fields := map[string]any{
		"event":  ev.String(),
		"from":   tr.From.String(),
		"to":     tr.To.String(),
		"action": tr.Action.String(),
	}
	switch {
	case tr.ActionErr != nil:
		d.metrics.IncActionFailure()
		fields["error"] = tr.ActionErr.Error()
		d.logger.Error("action failed", fields)
	case acted || tr.Changed():
		d.logger.Info("transition", fields)
	default:
		d.logger.Debug("event ignored", fields)
	}

	d.notify(tr, msg.Address)
	return tr, true
}

func (d *Dispatcher) notify(tr fsm.Transition, address string) {
	if d.notifier == nil {
		return
	}
	d.seq++
	event := &adapter.TransitionEvent{
		ProtocolVersion: types.ProtocolVersion,
		EventType:       adapter.EventType,
		BootID:          d.bootID,
		Seq:             d.seq,
		From:            tr.From.String(),
		To:              tr.To.String(),
		Event:           tr.Event.String(),
		Address:         address,
		Action:          tr.Action.String(),
		Timestamp:       d.now().UTC().Format(time.RFC3339Nano),
	}
	if tr.ActionErr != nil {
		event.ActionError = tr.ActionErr.Error()
	}
	d.notifier.Notify(event)
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}
