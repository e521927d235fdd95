// Package webhook POSTs transition events to an HTTP endpoint, such as
// the appliance web UI.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pithecene-io/pws/adapter"
	"github.com/pithecene-io/pws/iox"
)

const (
	DefaultTimeout = 3 * time.Second
	DefaultRetries = 2
)

// Headers identifying the event, set on every attempt.
const (
	HeaderBootID = "X-PWS-Boot-ID"
	HeaderSeq    = "X-PWS-Seq"
)

// Config configures the webhook adapter.
type Config struct {
	URL     string            // required
	Headers map[string]string // sent with every request
	Timeout time.Duration     // per request; DefaultTimeout when zero
	Retries int               // extra attempts after the first
}

// Adapter publishes transition events via HTTP POST.
type Adapter struct {
	config Config
	header http.Header
	client *http.Client
}

// New validates cfg and builds an adapter.
func New(cfg Config) (*Adapter, error) {
	switch {
	case cfg.URL == "":
		return nil, errors.New("webhook adapter requires a URL")
	case cfg.Retries < 0:
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	header := make(http.Header, len(cfg.Headers)+1)
	header.Set("Content-Type", "application/json")
	for k, v := range cfg.Headers {
		header.Set(k, v)
	}
	return &Adapter{
		config: cfg,
		header: header,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Publish POSTs the event as JSON. A 4xx response is not retried.
func (a *Adapter) Publish(ctx context.Context, event *adapter.TransitionEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}
	err = adapter.Deliver(ctx, a.config.Retries, func(ctx context.Context) error {
		return a.post(ctx, event, body)
	})
	if err != nil {
		return fmt.Errorf("webhook: seq %d: %w", event.Seq, err)
	}
	return nil
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

func (a *Adapter) post(ctx context.Context, event *adapter.TransitionEvent, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.URL, bytes.NewReader(body))
	if err != nil {
		return adapter.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header = a.header.Clone()
	req.Header.Set(HeaderBootID, event.BootID)
	req.Header.Set(HeaderSeq, strconv.FormatUint(event.Seq, 10))

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer iox.DiscardClose(resp.Body)
	_, _ = io.Copy(io.Discard, resp.Body)

	switch code := resp.StatusCode; {
	case code >= 200 && code < 300:
		return nil
	case code >= 400 && code < 500:
		return adapter.Permanent(&StatusError{Code: code})
	default:
		return &StatusError{Code: code}
	}
}

// Close drops idle connections.
func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

var _ adapter.Adapter = (*Adapter)(nil)
