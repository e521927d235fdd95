package transport

import (
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/pithecene-io/pws/metrics"
	"github.com/pithecene-io/pws/osc"
	"github.com/pithecene-io/pws/types"
)

func listenLoopback(t *testing.T) *Listener {
	t.Helper()
	l, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

type received struct {
	data []byte
	err  error
}

func asyncReceive(l *Listener) <-chan received {
	ch := make(chan received, 1)
	go func() {
		data, _, err := l.Receive()
		ch <- received{data: data, err: err}
	}()
	return ch
}

func waitReceived(t *testing.T, ch <-chan received) received {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for datagram")
		return received{}
	}
}

func TestSender_EmitToRole(t *testing.T) {
	l := listenLoopback(t)
	c := metrics.NewCollector("boot", 0)
	s := NewSender("127.0.0.1", map[types.Role]int{types.RoleRecorder: l.Port()}, WithMetrics(c))

	ch := asyncReceive(l)
	if err := s.Emit(t.Context(), types.RoleRecorder, osc.NewMessage(types.AddrRecordStart)); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	r := waitReceived(t, ch)
	if r.err != nil {
		t.Fatalf("Receive failed: %v", r.err)
	}
	msg, err := osc.Decode(r.data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if msg.Address != types.AddrRecordStart {
		t.Errorf("Address = %q, want %q", msg.Address, types.AddrRecordStart)
	}
	if got := c.Snapshot().MessagesSent; got != 1 {
		t.Errorf("MessagesSent = %d, want 1", got)
	}
}

func TestSender_DefaultPorts(t *testing.T) {
	s := NewSender("127.0.0.1", map[types.Role]int{types.RoleLED: 19001})

	if p, _ := s.Port(types.RoleLED); p != 19001 {
		t.Errorf("Port(led) = %d, want 19001", p)
	}
	if p, _ := s.Port(types.RoleUploader); p != 8100 {
		t.Errorf("Port(uploader) = %d, want 8100", p)
	}
	// Overrides must not leak into the shared defaults.
	if types.DefaultPorts[types.RoleLED] != 9001 {
		t.Errorf("DefaultPorts[led] = %d, want 9001", types.DefaultPorts[types.RoleLED])
	}
}

func TestSender_Errors(t *testing.T) {
	c := metrics.NewCollector("boot", 0)
	s := NewSender("127.0.0.1", nil, WithMetrics(c))

	if err := s.Emit(t.Context(), types.Role("printer"), osc.NewMessage("/x")); err == nil {
		t.Error("Emit to unknown role should fail")
	}
	err := s.SendTo(t.Context(), 9, osc.NewMessage("no-slash"))
	var encErr *osc.EncodeError
	if !errors.As(err, &encErr) {
		t.Errorf("SendTo error = %v, want *osc.EncodeError", err)
	}
	if got := c.Snapshot().SendFailures; got != 2 {
		t.Errorf("SendFailures = %d, want 2", got)
	}
}

func TestListener_CloseUnblocksReceive(t *testing.T) {
	l := listenLoopback(t)
	ch := asyncReceive(l)

	// Give the goroutine a moment to block in Receive.
	time.Sleep(20 * time.Millisecond)
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r := waitReceived(t, ch)
	if !IsClosed(r.err) {
		t.Errorf("Receive error = %v, want net.ErrClosed", r.err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestListen_BindConflict(t *testing.T) {
	l := listenLoopback(t)

	_, err := Listen("127.0.0.1", l.Port())
	var openErr *OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("Listen error = %v, want *OpenError", err)
	}
	if openErr.Kind != OpenBind {
		t.Errorf("Kind = %v, want %v", openErr.Kind, OpenBind)
	}
}

func TestClassifyOpen(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want OpenErrorKind
	}{
		{
			name: "socket syscall",
			err:  &net.OpError{Op: "listen", Err: os.NewSyscallError("socket", errors.New("too many open files"))},
			want: OpenSocket,
		},
		{
			name: "bind syscall",
			err:  &net.OpError{Op: "listen", Err: os.NewSyscallError("bind", errors.New("address already in use"))},
			want: OpenBind,
		},
		{
			name: "other",
			err:  errors.New("boom"),
			want: OpenBind,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyOpen(tt.err); got != tt.want {
				t.Errorf("classifyOpen() = %v, want %v", got, tt.want)
			}
		})
	}
}
