package transport

import (
	"context"
	"encoding/hex"
	"fmt"
	"maps"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/pithecene-io/pws/log"
	"github.com/pithecene-io/pws/metrics"
	"github.com/pithecene-io/pws/osc"
	"github.com/pithecene-io/pws/types"
)

// DefaultWriteTimeout bounds a single datagram write.
const DefaultWriteTimeout = time.Second

// Sender emits messages to collaborator roles. Every send opens a fresh
// socket, writes one datagram and closes it.
type Sender struct {
	host    string
	ports   map[types.Role]int
	timeout time.Duration
	logger  *log.Logger
	metrics *metrics.Collector
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithLogger logs each outbound datagram at debug level.
func WithLogger(l *log.Logger) SenderOption {
	return func(s *Sender) { s.logger = l }
}

// WithMetrics counts sends and send failures.
func WithMetrics(c *metrics.Collector) SenderOption {
	return func(s *Sender) { s.metrics = c }
}

// WithWriteTimeout overrides DefaultWriteTimeout. Zero keeps the default.
func WithWriteTimeout(d time.Duration) SenderOption {
	return func(s *Sender) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSender creates a sender for host using the role port map.
// Roles missing from ports fall back to types.DefaultPorts.
func NewSender(host string, ports map[types.Role]int, opts ...SenderOption) *Sender {
	merged := maps.Clone(types.DefaultPorts)
	maps.Copy(merged, ports)
	s := &Sender{
		host:    host,
		ports:   merged,
		timeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Port returns the port configured for role.
func (s *Sender) Port(role types.Role) (int, bool) {
	p, ok := s.ports[role]
	return p, ok
}

// Emit encodes msg and sends it to the port of role.
func (s *Sender) Emit(ctx context.Context, to types.Role, msg *osc.Message) error {
	port, ok := s.ports[to]
	if !ok {
		s.metrics.IncSendFailure()
		return fmt.Errorf("no port for role %q", to)
	}
	return s.SendTo(ctx, port, msg)
}

// SendTo encodes msg and sends it to host:port.
func (s *Sender) SendTo(ctx context.Context, port int, msg *osc.Message) error {
	data, err := osc.Encode(msg)
	if err != nil {
		s.metrics.IncSendFailure()
		return err
	}
	return s.SendRaw(ctx, port, data)
}

// SendRaw writes one already-encoded datagram to host:port.
func (s *Sender) SendRaw(ctx context.Context, port int, data []byte) error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(port))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp4", addr)
	if err != nil {
		s.metrics.IncSendFailure()
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()

	if s.timeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.timeout))
	}
	if _, err := conn.Write(data); err != nil {
		s.metrics.IncSendFailure()
		return fmt.Errorf("write %s: %w", addr, err)
	}
	s.metrics.IncMessageSent()

	if s.logger != nil && s.logger.Enabled(zapcore.DebugLevel) {
		s.logger.Debug("datagram sent", map[string]any{
			"to":   addr,
			"size": len(data),
			"dump": hex.Dump(data),
		})
	}
	return nil
}
