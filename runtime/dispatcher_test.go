package runtime

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pithecene-io/pws/adapter"
	"github.com/pithecene-io/pws/fsm"
	"github.com/pithecene-io/pws/log"
	"github.com/pithecene-io/pws/metrics"
	"github.com/pithecene-io/pws/osc"
	"github.com/pithecene-io/pws/transport"
	"github.com/pithecene-io/pws/types"
)

// fakeEmitter records outbound messages; safe for use from the loop goroutine.
type fakeEmitter struct {
	mu   sync.Mutex
	sent []string
	cmds []types.Command
	err  error
}

func (f *fakeEmitter) Emit(_ context.Context, to types.Role, msg *osc.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, string(to)+" "+msg.String())
	return f.err
}

func (f *fakeEmitter) Run(_ context.Context, cmd types.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	return nil
}

func (f *fakeEmitter) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// chanAdapter delivers published events to a channel.
type chanAdapter struct {
	events chan *adapter.TransitionEvent
	err    error
	closed bool
}

func newChanAdapter(size int) *chanAdapter {
	return &chanAdapter{events: make(chan *adapter.TransitionEvent, size)}
}

func (c *chanAdapter) Publish(_ context.Context, event *adapter.TransitionEvent) error {
	if c.err != nil {
		return c.err
	}
	c.events <- event
	return nil
}

func (c *chanAdapter) Close() error {
	c.closed = true
	return nil
}

func waitEvent(t *testing.T, ch <-chan *adapter.TransitionEvent) *adapter.TransitionEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for transition event")
		return nil
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func listenLoopback(t *testing.T) *transport.Listener {
	t.Helper()
	l, err := transport.Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func newTestDispatcher(t *testing.T, l *transport.Listener, state types.State, n *Notifier) (*Dispatcher, *fakeEmitter, *metrics.Collector) {
	t.Helper()
	c := metrics.NewCollector("boot-test", 0)
	d, out := newTestDispatcherWithCollector(t, l, state, n, c)
	return d, out, c
}

// newTestDispatcherWithCollector shares c between the dispatcher and
// whatever else the test wires to it, such as a Notifier.
func newTestDispatcherWithCollector(t *testing.T, l *transport.Listener, state types.State, n *Notifier, c *metrics.Collector) (*Dispatcher, *fakeEmitter) {
	t.Helper()
	out := &fakeEmitter{}
	d, err := NewDispatcher(DispatcherConfig{
		Listener:  l,
		Machine:   fsm.NewMachine(fsm.NewActions(out, out), fsm.WithState(state)),
		Notifier:  n,
		Collector: c,
		Now:       func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}
	return d, out
}

func encode(t *testing.T, msg *osc.Message) []byte {
	t.Helper()
	data, err := osc.Encode(msg)
	if err != nil {
		t.Fatalf("Encode(%s) failed: %v", msg, err)
	}
	return data
}

func TestNewDispatcher_RequiresCollaborators(t *testing.T) {
	if _, err := NewDispatcher(DispatcherConfig{}); err == nil {
		t.Error("expected error without listener")
	}
	l := listenLoopback(t)
	if _, err := NewDispatcher(DispatcherConfig{Listener: l}); err == nil {
		t.Error("expected error without machine")
	}
}

func TestDispatcher_RecordButtonEndToEnd(t *testing.T) {
	l := listenLoopback(t)
	ca := newChanAdapter(4)
	c := metrics.NewCollector("boot-test", 0)
	n := NewNotifier(ca, NotifierConfig{Collector: c})
	d, out := newTestDispatcherWithCollector(t, l, types.StateIdle, n, c)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	sender := transport.NewSender("127.0.0.1", nil)
	if err := sender.SendTo(t.Context(), l.Port(), osc.NewMessage(types.AddrPushRecord)); err != nil {
		t.Fatalf("SendTo failed: %v", err)
	}

	ev := waitEvent(t, ca.events)
	if ev.From != "idle" || ev.To != "recording" {
		t.Errorf("From/To = %s/%s, want idle/recording", ev.From, ev.To)
	}
	if ev.Event != types.EventRecordButton.String() {
		t.Errorf("Event = %q, want %q", ev.Event, types.EventRecordButton.String())
	}
	if ev.Address != types.AddrPushRecord {
		t.Errorf("Address = %q, want %q", ev.Address, types.AddrPushRecord)
	}
	if ev.Seq != 1 {
		t.Errorf("Seq = %d, want 1", ev.Seq)
	}
	if ev.Timestamp != "2026-10-16T12:00:00Z" {
		t.Errorf("Timestamp = %q", ev.Timestamp)
	}

	want := []string{
		"led " + types.AddrLEDRedOn,
		"led " + types.AddrLEDGreenOff,
		"led " + types.AddrLEDYellowOn,
		"recorder " + types.AddrRecordStart,
	}
	got := out.Sent()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("sent = %v, want %v", got, want)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if err := n.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	snap := c.Snapshot()
	if snap.DatagramsReceived != 1 || snap.Transitions != 1 || snap.StateChanges != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.NotifyPublished != 1 {
		t.Errorf("NotifyPublished = %d, want 1", snap.NotifyPublished)
	}
}

func TestDispatcher_DropsMalformedAndUnknown(t *testing.T) {
	l := listenLoopback(t)
	d, out, c := newTestDispatcher(t, l, types.StateIdle, nil)

	if _, ok := d.Handle(t.Context(), []byte("no-slash\x00\x00\x00\x00"), nil); ok {
		t.Error("malformed datagram should be dropped")
	}
	if _, ok := d.Handle(t.Context(), encode(t, osc.NewMessage("/nobody/listens")), nil); ok {
		t.Error("unknown address should be dropped")
	}

	// Loop continues: a valid datagram after the bad ones still transitions.
	tr, ok := d.Handle(t.Context(), encode(t, osc.NewMessage(types.AddrPushRecord)), nil)
	if !ok || tr.To != types.StateRecording {
		t.Errorf("Handle = %+v, %v, want recording", tr, ok)
	}
	if len(out.Sent()) == 0 {
		t.Error("expected outbound messages after valid datagram")
	}

	snap := c.Snapshot()
	if snap.DatagramsReceived != 3 {
		t.Errorf("DatagramsReceived = %d, want 3", snap.DatagramsReceived)
	}
	if snap.DecodeErrors != 1 {
		t.Errorf("DecodeErrors = %d, want 1", snap.DecodeErrors)
	}
	if snap.Unclassified != 1 {
		t.Errorf("Unclassified = %d, want 1", snap.Unclassified)
	}
}

func TestDispatcher_FailedRecordingSkipsUpload(t *testing.T) {
	l := listenLoopback(t)
	d, out, _ := newTestDispatcher(t, l, types.StateRecording, nil)

	msg := osc.NewMessage(types.AddrRecordStopped, osc.Int(-1))
	tr, ok := d.Handle(t.Context(), encode(t, msg), nil)
	if !ok {
		t.Fatal("record stopped should be handled")
	}
	if tr.Event != types.EventRecordStopped {
		t.Errorf("Event = %v, want %v", tr.Event, types.EventRecordStopped)
	}
	if tr.To != types.StateIdle {
		t.Errorf("To = %v, want %v", tr.To, types.StateIdle)
	}
	for _, s := range out.Sent() {
		if strings.Contains(s, types.AddrUploadStart) {
			t.Errorf("upload must not start after a failed recording, sent %q", s)
		}
	}
}

func TestDispatcher_ActionFailureCountedAndPublished(t *testing.T) {
	l := listenLoopback(t)
	ca := newChanAdapter(1)
	n := NewNotifier(ca, NotifierConfig{})
	t.Cleanup(func() { _ = n.Close() })
	d, out, c := newTestDispatcher(t, l, types.StateIdle, n)
	out.err = errors.New("connection refused")

	tr, _ := d.Handle(t.Context(), encode(t, osc.NewMessage(types.AddrPushRecord)), nil)
	if tr.To != types.StateRecording {
		t.Errorf("To = %v, want %v", tr.To, types.StateRecording)
	}

	ev := waitEvent(t, ca.events)
	if !strings.Contains(ev.ActionError, "connection refused") {
		t.Errorf("ActionError = %q", ev.ActionError)
	}
	if got := c.Snapshot().ActionFailures; got != 1 {
		t.Errorf("ActionFailures = %d, want 1", got)
	}
}

func TestDispatcher_DebugHexdump(t *testing.T) {
	buf := &syncBuffer{}
	logger, err := log.New("boot-hex", log.Options{Level: "debug", Output: buf})
	if err != nil {
		t.Fatalf("log.New failed: %v", err)
	}
	l := listenLoopback(t)
	out := &fakeEmitter{}
	d, err := NewDispatcher(DispatcherConfig{
		Listener: l,
		Machine:  fsm.NewMachine(fsm.NewActions(out, out)),
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}

	d.Handle(t.Context(), encode(t, osc.NewMessage(types.AddrInitialize)), nil)

	logged := buf.String()
	if !strings.Contains(logged, `"datagram received"`) {
		t.Errorf("expected datagram debug entry, got %s", logged)
	}
	if !strings.Contains(logged, `"component":"dispatch"`) {
		t.Errorf("expected dispatch component, got %s", logged)
	}
	if !strings.Contains(logged, `"boot_id":"boot-hex"`) {
		t.Errorf("expected boot_id field, got %s", logged)
	}
}

func TestDispatcher_PeerInitErrorVariant(t *testing.T) {
	l := listenLoopback(t)
	d, _, _ := newTestDispatcher(t, l, types.StatePdWait, nil)

	msg := osc.NewMessage(types.AddrPeerInitFinished, osc.Int(-2))
	tr, ok := d.Handle(t.Context(), encode(t, msg), nil)
	if !ok {
		t.Fatal("peer init should be handled")
	}
	if tr.Event != types.EventPeerInitError {
		t.Errorf("Event = %v, want %v", tr.Event, types.EventPeerInitError)
	}
}

func TestDispatcher_ReceiveFailureIsFatal(t *testing.T) {
	l := listenLoopback(t)
	d, _, _ := newTestDispatcher(t, l, types.StateInit, nil)

	// Closing the socket without canceling is a transport fault.
	_ = l.Close()
	if err := d.Run(t.Context()); err == nil {
		t.Fatal("Run should fail when the socket closes underneath it")
	}
}
