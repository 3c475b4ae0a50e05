// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*HTTPServerService)(nil)

// fakeHTTPServer blocks in ListenAndServe until Shutdown, or fails at once
// when listenErr is set.
type fakeHTTPServer struct {
	listenErr   error
	shutdownErr error
	listening   chan struct{}
	stop        chan struct{}
	listens     atomic.Int32
	shutdowns   atomic.Int32
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{listening: make(chan struct{}, 8), stop: make(chan struct{})}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	f.listens.Add(1)
	f.listening <- struct{}{}
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	close(f.stop)
	return f.shutdownErr
}

func serveAsync(svc *HTTPServerService, ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	return errCh
}

func TestNewHTTPServerServiceDefaults(t *testing.T) {
	for _, timeout := range []time.Duration{0, -5 * time.Second} {
		svc := NewHTTPServerService(newFakeHTTPServer(), timeout)
		if svc.shutdownTimeout != 10*time.Second {
			t.Errorf("timeout %v: shutdownTimeout = %v, want 10s", timeout, svc.shutdownTimeout)
		}
	}
	if got := NewHTTPServerService(newFakeHTTPServer(), time.Second).String(); got != "api-server" {
		t.Errorf("String() = %q", got)
	}
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	srv := newFakeHTTPServer()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := serveAsync(NewHTTPServerService(srv, time.Second), ctx)

	<-srv.listening
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	if srv.shutdowns.Load() != 1 {
		t.Errorf("Shutdown calls = %d, want 1", srv.shutdowns.Load())
	}
}

func TestHTTPServerServiceListenFailure(t *testing.T) {
	bindErr := errors.New("bind: address already in use")
	srv := newFakeHTTPServer()
	srv.listenErr = bindErr

	err := NewHTTPServerService(srv, time.Second).Serve(context.Background())
	if !errors.Is(err, bindErr) {
		t.Errorf("Serve() = %v, want wrapped bind error", err)
	}
}

func TestHTTPServerServiceShutdownFailure(t *testing.T) {
	shutdownErr := errors.New("connections still active")
	srv := newFakeHTTPServer()
	srv.shutdownErr = shutdownErr
	ctx, cancel := context.WithCancel(context.Background())
	errCh := serveAsync(NewHTTPServerService(srv, time.Second), ctx)

	<-srv.listening
	cancel()
	if err := <-errCh; !errors.Is(err, shutdownErr) {
		t.Errorf("Serve() = %v, want shutdown error", err)
	}
}

func TestHTTPServerServiceRestartedBySupervisor(t *testing.T) {
	srv := newFakeHTTPServer()
	srv.listenErr = errors.New("port busy")

	sup := suture.New("test-api", suture.Spec{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(NewHTTPServerService(srv, time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := sup.ServeBackground(ctx)

	for i := 0; i < 2; i++ {
		select {
		case <-srv.listening:
		case <-ctx.Done():
			t.Fatal("listener was not restarted")
		}
	}
	cancel()
	<-done
}

func TestHTTPServerServiceRealListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	srv := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := serveAsync(NewHTTPServerService(srv, time.Second), ctx)

	var resp *http.Response
	for i := 0; i < 50; i++ {
		if resp, err = http.Get("http://" + addr + "/"); err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v", err)
	}
}
