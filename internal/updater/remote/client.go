// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/serverpilot/internal/config"
	"github.com/tomtom215/serverpilot/internal/logging"
)

const (
	// maxJSONBodySize bounds decoded API responses.
	maxJSONBodySize = 32 << 20

	// maxRetryAfter caps a server-requested wait.
	maxRetryAfter = 2 * time.Minute
)

// Client performs GET requests against one update source.
type Client struct {
	name       string
	http       *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[interface{}]
	userAgent  string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a client for the source called name.
func NewClient(name string, cfg config.RemoteConfig) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:errcheck,forcetypeassert // DefaultTransport is always *http.Transport
	transport.ResponseHeaderTimeout = cfg.Timeout

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	return &Client{
		name:       name,
		http:       &http.Client{Transport: transport},
		limiter:    rate.NewLimiter(limit, burst),
		cb:         newBreaker(name),
		userAgent:  userAgent,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryDelay: retryDelay,
	}
}

// Name returns the source name used in logs and metrics.
func (c *Client) Name() string { return c.name }

// UserAgent returns the User-Agent sent with every request.
func (c *Client) UserAgent() string { return c.userAgent }

// GetJSON fetches url and decodes a 200 response into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := castResult[[]byte](c.execute(func() (interface{}, error) {
		resp, err := c.do(ctx, url)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close() //nolint:errcheck // read-only body

		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status, Body: readBodyForError(resp.Body)}
		}
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBodySize))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", url, err)
		}
		return &b, nil
	}))
	if err != nil {
		return err
	}

	if err := json.Unmarshal(*body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// Open issues a GET for url and returns the response with its body unread.
// Non-retryable statuses are returned as-is so the caller can validate them;
// the caller must close the body.
func (c *Client) Open(ctx context.Context, url string) (*http.Response, error) {
	return castResult[http.Response](c.execute(func() (interface{}, error) {
		return c.do(ctx, url)
	}))
}

// do sends the request, retrying 429, 5xx and transport errors with
// exponential backoff. Retry-After is honored when present.
func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	var resp *http.Response

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryDelay
	eb.MaxInterval = 30 * time.Second
	eb.MaxElapsedTime = 5 * time.Minute
	retries := 0
	if c.maxRetries > 0 {
		retries = c.maxRetries
	}
	b := &retryAfterBackOff{BackOff: backoff.WithMaxRetries(eb, uint64(retries))}

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("User-Agent", c.userAgent)

		r, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("HTTP request failed: %w", err)
		}

		if retryableStatus(r.StatusCode) {
			b.next = parseRetryAfter(r.Header.Get("Retry-After"))
			statusErr := &StatusError{URL: url, StatusCode: r.StatusCode, Status: r.Status, Body: readBodyForError(r.Body)}
			_ = r.Body.Close() //nolint:errcheck // retrying anyway
			return statusErr
		}

		resp = r
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logging.Debug().Str("source", c.name).Str("url", url).Err(err).Dur("wait", wait).Msg("Retrying remote request")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}
	return resp, nil
}

// retryAfterBackOff lets a Retry-After header stretch the next wait.
type retryAfterBackOff struct {
	backoff.BackOff
	next time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	d := b.BackOff.NextBackOff()
	if d == backoff.Stop {
		return d
	}
	if b.next > d {
		d = b.next
	}
	b.next = 0
	return d
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	var d time.Duration
	if seconds, err := strconv.Atoi(v); err == nil {
		d = time.Duration(seconds) * time.Second
	} else if t, err := http.ParseTime(v); err == nil {
		d = time.Until(t)
	}
	if d < 0 {
		return 0
	}
	if d > maxRetryAfter {
		return maxRetryAfter
	}
	return d
}

// isClientError reports whether err is a 4xx answer other than 429. Such
// answers say nothing about the source's health.
func isClientError(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 && !statusErr.Retryable()
	}
	return false
}
