// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/serverpilot/internal/config"
)

func testConfig() config.RemoteConfig {
	return config.RemoteConfig{
		UserAgent:         "serverpilot-test",
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             100,
		MaxRetries:        2,
		RetryDelay:        time.Millisecond,
	}
}

func TestGetJSON(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"number": 42, "url": "http://ci/job/x/42/"}`))
	}))
	defer srv.Close()

	c := NewClient("test-getjson", testConfig())
	var out struct {
		Number int    `json:"number"`
		URL    string `json:"url"`
	}
	if err := c.GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Number != 42 {
		t.Errorf("Number = %d, want 42", out.Number)
	}
	if gotUA != "serverpilot-test" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestGetJSON_RetriesTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("test-429", testConfig())
	var out map[string]any
	if err := c.GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestGetJSON_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{"not found is not retried", http.StatusNotFound, 1},
		{"unavailable is retried", http.StatusServiceUnavailable, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			c := NewClient("test-status-"+http.StatusText(tt.status), testConfig())
			err := c.GetJSON(context.Background(), srv.URL, &struct{}{})
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("err = %v, want *StatusError", err)
			}
			if statusErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, tt.status)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestOpen_ReturnsNonRetryableStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("test-open", testConfig())
	resp, err := c.Open(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRetries = 0
	c := NewClient("test-breaker", cfg)
	for i := 0; i < 10; i++ {
		_ = c.GetJSON(context.Background(), srv.URL, &struct{}{})
	}
	if c.State() != "open" {
		t.Fatalf("State = %s, want open", c.State())
	}
	err := c.GetJSON(context.Background(), srv.URL, &struct{}{})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want ErrOpenState", err)
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient("test-breaker-4xx", testConfig())
	for i := 0; i < 15; i++ {
		_ = c.GetJSON(context.Background(), srv.URL, &struct{}{})
	}
	if c.State() != "closed" {
		t.Errorf("State = %s, want closed", c.State())
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-1", 0},
		{"garbage", 0},
		{"3600", maxRetryAfter},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
