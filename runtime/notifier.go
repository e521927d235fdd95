package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/pithecene-io/pws/adapter"
	"github.com/pithecene-io/pws/log"
	"github.com/pithecene-io/pws/metrics"
)

// DefaultQueueSize is the default notification queue capacity.
const DefaultQueueSize = 64

// DefaultDrainTimeout bounds how long Close waits for queued events.
const DefaultDrainTimeout = 2 * time.Second

// NotifierConfig configures a Notifier.
type NotifierConfig struct {
	// QueueSize is the queue capacity (default 64). Events beyond it are dropped.
	QueueSize int
	// DrainTimeout bounds Close (default 2s).
	DrainTimeout time.Duration
	// Logger receives publish failures. If nil, a nop logger is used.
	Logger *log.Logger
	// Collector counts published, dropped and failed events. May be nil.
	Collector *metrics.Collector
}

// Notifier hands transition events to an adapter without blocking the
// dispatch loop. A nil *Notifier discards everything.
type Notifier struct {
	adapter adapter.Adapter
	config  NotifierConfig
	logger  *log.Logger
	metrics *metrics.Collector

	queue  chan *adapter.TransitionEvent
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewNotifier starts a publishing worker over a.
func NewNotifier(a adapter.Adapter, config NotifierConfig) *Notifier {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = DefaultDrainTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &Notifier{
		adapter: a,
		config:  config,
		logger:  logger.Named("notify"),
		metrics: config.Collector,
		queue:   make(chan *adapter.TransitionEvent, config.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go n.run()
	return n
}

// Notify enqueues event. Returns false when the event was dropped
// because the queue is full or the notifier is closed.
func (n *Notifier) Notify(event *adapter.TransitionEvent) bool {
	if n == nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		n.metrics.IncNotifyDropped()
		return false
	}
	select {
	case n.queue <- event:
		return true
	default:
		n.metrics.IncNotifyDropped()
		n.logger.Warn("notification queue full, dropping event", map[string]any{
			"seq":   event.Seq,
			"event": event.Event,
		})
		return false
	}
}

func (n *Notifier) run() {
	defer close(n.done)
	for event := range n.queue {
		if err := n.adapter.Publish(n.ctx, event); err != nil {
			n.metrics.IncNotifyFailure()
			n.logger.Warn("publish failed", map[string]any{
				"seq":   event.Seq,
				"error": err.Error(),
			})
			continue
		}
		n.metrics.IncNotifyPublished()
	}
}

// Close stops accepting events, drains the queue within DrainTimeout and
// closes the adapter. Events still pending after the timeout are abandoned.
func (n *Notifier) Close() error {
	if n == nil {
		return nil
	}
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	timer := time.NewTimer(n.config.DrainTimeout)
	defer timer.Stop()
	select {
	case <-n.done:
	case <-timer.C:
		n.logger.Warn("notification drain timed out", map[string]any{
			"pending": len(n.queue),
		})
		n.cancel()
		<-n.done
	}
	n.cancel()
	return n.adapter.Close()
}
