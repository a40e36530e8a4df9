// Package httpx is the outbound JSON client shared by the remote adapters.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"
)

const maxResponseBytes = 2 << 20

var (
	// ErrCircuitOpen is returned while the client refuses calls after
	// repeated failures.
	ErrCircuitOpen = errors.New("circuit open")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	Timeout            time.Duration
	MaxConsecutiveFail int
	CircuitOpen        time.Duration
	Headers            map[string]string
}

// Client posts JSON with a per-call timeout and a simple circuit breaker.
type Client struct {
	hc        *http.Client
	opt       Options
	fail      int32
	openUntil int64
	now       func() time.Time
}

// New creates a Client, filling unset options with defaults.
func New(opt Options) *Client {
	if opt.Timeout <= 0 {
		opt.Timeout = 8 * time.Second
	}
	if opt.MaxConsecutiveFail <= 0 {
		opt.MaxConsecutiveFail = 5
	}
	if opt.CircuitOpen <= 0 {
		opt.CircuitOpen = 30 * time.Second
	}

	transport := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: opt.Timeout}).DialContext,
		MaxIdleConns:    50,
		IdleConnTimeout: 30 * time.Second,
	}
	return &Client{
		hc:  &http.Client{Transport: transport},
		opt: opt,
		now: time.Now,
	}
}

// Timeout reports the per-call timeout.
func (c *Client) Timeout() time.Duration {
	return c.opt.Timeout
}

// PostJSON sends body as JSON to url and returns the raw response body of a
// 2xx response. The call is bounded by the client timeout and by ctx.
func (c *Client) PostJSON(ctx context.Context, url string, body any) ([]byte, error) {
	if atomic.LoadInt64(&c.openUntil) > c.now().UnixNano() {
		return nil, ErrCircuitOpen
	}

	data, err := c.post(ctx, url, body)
	if err != nil {
		if atomic.AddInt32(&c.fail, 1) >= int32(c.opt.MaxConsecutiveFail) {
			atomic.StoreInt64(&c.openUntil, c.now().Add(c.opt.CircuitOpen).UnixNano())
			atomic.StoreInt32(&c.fail, 0)
		}
		return nil, err
	}
	atomic.StoreInt32(&c.fail, 0)
	return data, nil
}

func (c *Client) post(ctx context.Context, url string, body any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opt.Timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.opt.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(data)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}
	return data, nil
}

// BearerHeaders returns the auth headers expected by the edge functions.
func BearerHeaders(apiKey string) map[string]string {
	if apiKey == "" {
		return nil
	}
	return map[string]string{
		"Authorization": "Bearer " + apiKey,
		"apikey":        apiKey,
	}
}
