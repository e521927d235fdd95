// Package redis publishes transition events on a Redis pub/sub channel.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/pws/adapter"
)

const (
	DefaultChannel = "pws:transition"
	DefaultTimeout = 2 * time.Second
	DefaultRetries = 2
)

// Payload encodings.
const (
	EncodingMsgpack = "msgpack"
	EncodingJSON    = "json"
)

var encoders = map[string]func(any) ([]byte, error){
	EncodingMsgpack: msgpack.Marshal,
	EncodingJSON:    json.Marshal,
}

// Config configures the Redis adapter.
type Config struct {
	// URL is redis://[:password@]host:port[/db] (required).
	URL      string
	Channel  string
	Encoding string        // msgpack (default) or json
	Timeout  time.Duration // per PUBLISH attempt
	Retries  int
}

// Adapter publishes transition events via Redis PUBLISH.
type Adapter struct {
	config Config
	encode func(any) ([]byte, error)
	client *goredis.Client
}

// New validates cfg, fills defaults and builds a client. It does not dial.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis adapter requires a URL")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: invalid URL: %w", err)
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	if cfg.Encoding == "" {
		cfg.Encoding = EncodingMsgpack
	}
	encode, ok := encoders[cfg.Encoding]
	if !ok {
		return nil, fmt.Errorf("redis adapter: unknown encoding %q", cfg.Encoding)
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Adapter{
		config: cfg,
		encode: encode,
		client: goredis.NewClient(opts),
	}, nil
}

// Publish encodes the event once and PUBLISHes it, retrying failed attempts.
func (a *Adapter) Publish(ctx context.Context, event *adapter.TransitionEvent) error {
	payload, err := a.encode(event)
	if err != nil {
		return fmt.Errorf("redis: encode event: %w", err)
	}
	err = adapter.Deliver(ctx, a.config.Retries, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
		return a.client.Publish(attemptCtx, a.config.Channel, payload).Err()
	})
	if err != nil {
		return fmt.Errorf("redis: publish to %s: %w", a.config.Channel, err)
	}
	return nil
}

// Close closes the client's connection pool.
func (a *Adapter) Close() error {
	return a.client.Close()
}

var _ adapter.Adapter = (*Adapter)(nil)
