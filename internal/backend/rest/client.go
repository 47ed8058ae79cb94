// Package rest is the HTTP adapter of the backend ports.  Every response
// uses the {success, data, message} envelope of the cinema API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-box-office/internal/backend"
	"github.com/iliyamo/cinema-box-office/internal/errs"
	"github.com/iliyamo/cinema-box-office/internal/logger"
)

// Client calls the cinema REST API.  Reads are retried on network errors;
// hold, cancel and order creation are sent exactly once.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	backoff    time.Duration
	log        *zap.Logger
}

var _ backend.Backend = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackoff sets the delay before the first read retry; it doubles per
// attempt.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

func New(baseURL string, timeout time.Duration, readRetries int, log *zap.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if readRetries < 0 {
		readRetries = 0
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retries:    readRetries,
		backoff:    200 * time.Millisecond,
		log:        logger.OrNop(log).Named("rest"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type conflictData struct {
	Unavailable []string `json:"unavailable"`
}

// get performs an idempotent read, retrying network failures.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	var err error
	delay := c.backoff
	for attempt := 0; ; attempt++ {
		err = c.do(ctx, op, http.MethodGet, path, query, nil, out)
		if err == nil || !errs.Is(err, errs.ErrNetwork) || attempt >= c.retries {
			return err
		}
		c.log.Debug("retrying read", zap.String("op", op), zap.Int("attempt", attempt+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return errs.Network(op, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (c *Client) send(ctx context.Context, op, method, path string, body, out any) error {
	return c.do(ctx, op, method, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errs.Wrapf(err, "%s: encode request", op)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return errs.Wrapf(err, "%s: build request", op)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok, ok := backend.TokenFrom(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Network(op, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Network(op, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return errs.Network(op, errs.Wrap(err, "decode response"))
		}
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		var cd conflictData
		if len(env.Data) > 0 {
			_ = json.Unmarshal(env.Data, &cd)
		}
		return errs.Conflict(cd.Unavailable...)
	case resp.StatusCode == http.StatusNotFound:
		return errs.Wrapf(errs.ErrNotFound, "%s: %s", op, env.Message)
	case resp.StatusCode >= 500:
		return errs.Network(op, errs.Newf("status %d: %s", resp.StatusCode, env.Message))
	case resp.StatusCode >= 400:
		return errs.Newf("%s: status %d: %s", op, resp.StatusCode, env.Message)
	case !env.Success:
		return errs.Network(op, errs.Newf("unsuccessful response: %s", env.Message))
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errs.Network(op, errs.Wrap(err, "decode data"))
	}
	return nil
}
