// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

//go:build !windows

package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// echoServer reads stdin lines, echoes them and exits 0 on "stop".
const echoServer = `sh -c "while read l; do case $l in stop) echo bye; exit 0;; esac; echo got $l; done"`

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *lineRecorder) add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func (r *lineRecorder) contains(s string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lines {
		if strings.Contains(l, s) {
			return true
		}
	}
	return false
}

func newTestSupervisor(t *testing.T, command string) *Supervisor {
	t.Helper()
	sup := NewSupervisor(Options{
		Dir:          t.TempDir(),
		Command:      func() (string, error) { return command, nil },
		StopCommands: []string{"stop"},
		Console:      io.Discard,
		StopTimeout:  5 * time.Second,
		KillTimeout:  5 * time.Second,
		PollInterval: 20 * time.Millisecond,
	})
	t.Cleanup(func() {
		if sup.IsRunning() {
			_ = sup.Kill(context.Background())
		}
	})
	return sup
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSupervisor_StartSubmitStop(t *testing.T) {
	sup := newTestSupervisor(t, echoServer)
	rec := &lineRecorder{}
	sup.AddListener(rec.add)

	ctx := context.Background()
	if err := sup.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !sup.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}
	if err := sup.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}

	if err := sup.SubmitCommand("hello"); err != nil {
		t.Fatalf("SubmitCommand() error = %v", err)
	}
	waitFor(t, "echoed command", func() bool { return rec.contains("got hello") })

	if err := sup.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if sup.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	if code := sup.LastExitCode(); code != 0 {
		t.Errorf("LastExitCode() = %d, want 0", code)
	}
	waitFor(t, "final output line", func() bool { return rec.contains("bye") })
}

func TestSupervisor_NotRunningOperations(t *testing.T) {
	sup := newTestSupervisor(t, echoServer)
	ctx := context.Background()

	if err := sup.Stop(ctx); err != nil {
		t.Errorf("Stop() on stopped server error = %v, want nil", err)
	}
	if err := sup.Kill(ctx); err != nil {
		t.Errorf("Kill() on stopped server error = %v, want nil", err)
	}
	if err := sup.SubmitCommand("say hi"); err != nil {
		t.Errorf("SubmitCommand() on stopped server error = %v, want nil", err)
	}
	if sup.takeKillExpected() {
		t.Error("Kill() on a stopped server must not leave the expected-kill flag set")
	}
}

func TestSupervisor_StopWithoutStopCommands(t *testing.T) {
	sup := newTestSupervisor(t, "sleep 30")
	sup.SetStopCommands(nil)
	ctx := context.Background()

	if err := sup.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := sup.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if !sup.IsRunning() {
		t.Error("Stop() without stop commands must leave the server running")
	}
}

func TestSupervisor_StopEscalatesToKill(t *testing.T) {
	sup := NewSupervisor(Options{
		Dir:          t.TempDir(),
		Command:      func() (string, error) { return "sleep 30", nil },
		StopCommands: []string{"stop"},
		Console:      io.Discard,
		StopTimeout:  100 * time.Millisecond,
		KillTimeout:  5 * time.Second,
		PollInterval: 20 * time.Millisecond,
	})
	ctx := context.Background()

	if err := sup.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := sup.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if sup.IsRunning() {
		t.Error("server still running after escalation")
	}
	if !sup.takeKillExpected() {
		t.Error("escalated kill should set the expected-kill flag")
	}
}

func TestSupervisor_BeforeStartHook(t *testing.T) {
	t.Run("error is logged and start continues", func(t *testing.T) {
		sup := newTestSupervisor(t, "sleep 30")
		sup.SetBeforeStart(func(context.Context) error { return errors.New("backup failed") })
		if err := sup.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if !sup.IsRunning() {
			t.Error("server should run despite hook error")
		}
	})

	t.Run("abort prevents start", func(t *testing.T) {
		sup := newTestSupervisor(t, "sleep 30")
		sup.SetBeforeStart(func(context.Context) error {
			return fmt.Errorf("self update staged: %w", ErrStartAborted)
		})
		if err := sup.Start(context.Background()); !errors.Is(err, ErrStartAborted) {
			t.Fatalf("Start() error = %v, want ErrStartAborted", err)
		}
		if sup.IsRunning() {
			t.Error("server must not run after abort")
		}
	})

	t.Run("canceled during hook prevents start", func(t *testing.T) {
		sup := newTestSupervisor(t, "sleep 30")
		ctx, cancel := context.WithCancel(context.Background())
		sup.SetBeforeStart(func(context.Context) error {
			cancel()
			return nil
		})
		if err := sup.Start(ctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("Start() error = %v, want context.Canceled", err)
		}
		if sup.IsRunning() {
			t.Error("server must not run after cancellation")
		}
	})
}

func TestSupervisor_EmptyCommand(t *testing.T) {
	sup := newTestSupervisor(t, "   ")
	if err := sup.Start(context.Background()); !errors.Is(err, ErrNoStartCommand) {
		t.Errorf("Start() error = %v, want ErrNoStartCommand", err)
	}
}

func TestCrashDetector_KillIsNotACrash(t *testing.T) {
	var starts atomic.Int32
	sup := newTestSupervisor(t, "sleep 30")
	sup.opts.Command = func() (string, error) {
		starts.Add(1)
		return "sleep 30", nil
	}
	var exits atomic.Int32
	det := NewCrashDetector(sup, time.Hour, func() CrashPolicy {
		return CrashPolicy{RestartOnCrash: true, OnAgentExit: func() { exits.Add(1) }}
	})
	ctx := context.Background()

	if err := sup.Start(ctx); err != nil {
		t.Fatal(err)
	}
	det.check(ctx) // observe running

	if err := sup.Kill(ctx); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}
	if sup.IsRunning() {
		t.Fatal("IsRunning() = true after Kill")
	}
	det.check(ctx) // observe stop

	if got := starts.Load(); got != 1 {
		t.Errorf("start count = %d, want 1 (no crash restart)", got)
	}
	if sup.takeKillExpected() {
		t.Error("detector should have cleared the expected-kill flag")
	}
	if exits.Load() != 0 {
		t.Error("agent exit must not be requested")
	}
}

func TestCrashDetector_CrashAfterKillAndQuickStart(t *testing.T) {
	var starts atomic.Int32
	sup := newTestSupervisor(t, "")
	sup.opts.Command = func() (string, error) {
		switch starts.Add(1) {
		case 2:
			return `sh -c "sleep 0.3; exit 3"`, nil
		default:
			return "sleep 30", nil
		}
	}
	det := NewCrashDetector(sup, time.Hour, func() CrashPolicy {
		return CrashPolicy{RestartOnCrash: true}
	})
	ctx := context.Background()

	if err := sup.Start(ctx); err != nil {
		t.Fatal(err)
	}
	det.check(ctx)

	// Kill and start again before the detector polls.
	if err := sup.Kill(ctx); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}
	if err := sup.Start(ctx); err != nil {
		t.Fatal(err)
	}
	det.check(ctx)

	waitFor(t, "crash", func() bool { return !sup.IsRunning() })
	det.check(ctx)

	if got := starts.Load(); got != 3 {
		t.Fatalf("start count = %d, want 3 (crash restart)", got)
	}
	if !sup.IsRunning() {
		t.Error("crashed server should have been restarted")
	}
}

func TestCrashDetector_RestartsCrashedServer(t *testing.T) {
	var starts atomic.Int32
	sup := newTestSupervisor(t, "")
	sup.opts.Command = func() (string, error) {
		if starts.Add(1) == 1 {
			return `sh -c "exit 3"`, nil
		}
		return "sleep 30", nil
	}
	det := NewCrashDetector(sup, time.Hour, func() CrashPolicy {
		return CrashPolicy{RestartOnCrash: true}
	})
	ctx := context.Background()

	if err := sup.Start(ctx); err != nil {
		t.Fatal(err)
	}
	det.lastRunning = true
	waitFor(t, "crash", func() bool { return !sup.IsRunning() })
	if code := sup.LastExitCode(); code != 3 {
		t.Errorf("LastExitCode() = %d, want 3", code)
	}

	det.check(ctx)
	if got := starts.Load(); got != 2 {
		t.Fatalf("start count = %d, want 2", got)
	}
	if !sup.IsRunning() {
		t.Error("server should be running again")
	}
}

func TestCrashDetector_StopAgentOnCleanStop(t *testing.T) {
	sup := newTestSupervisor(t, echoServer)
	var exits atomic.Int32
	det := NewCrashDetector(sup, time.Hour, func() CrashPolicy {
		return CrashPolicy{StopAgentOnServerStop: true, OnAgentExit: func() { exits.Add(1) }}
	})
	ctx := context.Background()

	if err := sup.Start(ctx); err != nil {
		t.Fatal(err)
	}
	det.check(ctx)
	if err := sup.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	det.check(ctx)
	if exits.Load() != 1 {
		t.Errorf("agent exit requests = %d, want 1", exits.Load())
	}
}

func TestCrashDetector_ServeStopsOnCancel(t *testing.T) {
	sup := newTestSupervisor(t, "sleep 30")
	det := NewCrashDetector(sup, 10*time.Millisecond, func() CrashPolicy { return CrashPolicy{} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- det.Serve(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
