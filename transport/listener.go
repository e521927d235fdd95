// Package transport carries encoded messages over loopback UDP.
//
// Delivery is fire-and-forget in both directions: there is no
// acknowledgment, retry or ordering guarantee. A lost datagram silently
// leaves a collaborator out of step with the orchestrator.
package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/pithecene-io/pws/osc"
)

// OpenErrorKind says which step of opening the receive socket failed.
type OpenErrorKind int

const (
	// OpenSocket indicates the socket could not be created.
	OpenSocket OpenErrorKind = iota
	// OpenBind indicates the socket could not be bound to its address.
	OpenBind
)

func (k OpenErrorKind) String() string {
	if k == OpenSocket {
		return "socket"
	}
	return "bind"
}

// OpenError is returned by Listen.
type OpenError struct {
	Kind OpenErrorKind
	Addr string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Addr, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// Listener owns the orchestrator's receive socket.
type Listener struct {
	conn      *net.UDPConn
	closeOnce sync.Once
	closeErr  error
}

// Listen binds a UDP socket on host:port. Port 0 picks a free port.
// Failures are *OpenError.
func Listen(host string, port int) (*Listener, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, &OpenError{Kind: OpenBind, Addr: addr, Err: err}
	}
	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, &OpenError{Kind: classifyOpen(err), Addr: addr, Err: err}
	}
	return &Listener{conn: conn}, nil
}

// classifyOpen separates socket creation failures from bind failures.
func classifyOpen(err error) OpenErrorKind {
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) && sysErr.Syscall == "socket" {
		return OpenSocket
	}
	return OpenBind
}

// Port returns the bound local port.
func (l *Listener) Port() int {
	return l.conn.LocalAddr().(*net.UDPAddr).Port
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Receive blocks for one datagram and returns a copy of its bytes.
// Datagrams longer than osc.MaxDatagramSize are truncated by the kernel.
// After Close, Receive returns net.ErrClosed.
func (l *Listener) Receive() ([]byte, net.Addr, error) {
	buf := make([]byte, osc.MaxDatagramSize)
	n, from, err := l.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, nil, err
	}
	return buf[:n], from, nil
}

// Close closes the socket, unblocking a pending Receive. Safe to call
// more than once.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.conn.Close()
	})
	return l.closeErr
}

// IsClosed reports whether err comes from a receive on a closed listener.
func IsClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
