// Package webhook POSTs structured JSON payloads to an HTTP endpoint.
//
// Delivery is a single attempt per record: no retry, no batching. Any
// transport error or non-2xx response becomes a *sink.DeliveryError.
package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"applog/internal/sink"
)

const (
	Kind           = "webhook"
	DefaultTimeout = 10 * time.Second
	contentType    = "application/json"
)

// Option configures a webhook Transport.
type Option func(*Transport)

// WithTimeout sets the HTTP client timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.client.Timeout = d
		}
	}
}

// WithGzip compresses request bodies and sets Content-Encoding: gzip.
func WithGzip(enabled bool) Option {
	return func(t *Transport) { t.gzip = enabled }
}

// WithClient replaces the HTTP client. Its Timeout is kept unless
// WithTimeout is applied after it.
func WithClient(c *http.Client) Option {
	return func(t *Transport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithHeaders sets extra headers sent with every POST. Content-Type cannot
// be overridden.
func WithHeaders(h map[string]string) Option {
	return func(t *Transport) { t.headers = h }
}

type Transport struct {
	url     string
	target  string
	client  *http.Client
	gzip    bool
	headers map[string]string
}

// New validates rawURL and returns a transport posting to it.
func New(rawURL string, opts ...Option) (*Transport, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errors.New("webhook: url is empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("webhook: parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("webhook: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("webhook: url has no host")
	}
	t := &Transport{
		url:    rawURL,
		target: u.Scheme + "://" + u.Host + u.Path,
		client: &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Target returns the endpoint without query string or credentials.
func (t *Transport) Target() string { return t.target }

func (t *Transport) Deliver(ctx context.Context, d sink.Delivery) error {
	body, err := t.encode(d.Body)
	if err != nil {
		return t.fail(0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return t.fail(0, err)
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", contentType)
	if t.gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return t.fail(0, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return t.fail(resp.StatusCode, fmt.Errorf("unexpected response %s", resp.Status))
	}
	return nil
}

func (t *Transport) encode(p []byte) ([]byte, error) {
	if !t.gzip {
		return p, nil
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(p); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return buf.Bytes(), nil
}

func (t *Transport) fail(status int, err error) error {
	return &sink.DeliveryError{Kind: Kind, Target: t.target, Status: status, Err: err}
}

// Close releases idle connections.
func (t *Transport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
