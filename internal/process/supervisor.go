// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/serverpilot/internal/logging"
	"github.com/tomtom215/serverpilot/internal/metrics"
)

// Listener receives every line the server prints, without the line ending.
type Listener func(line string)

// Hook runs inside Start before the process is launched.
type Hook func(ctx context.Context) error

// Options configures a Supervisor.
type Options struct {
	// Dir is the server's working directory.
	Dir string

	// Command resolves the start command at every Start, so that config
	// reloads and Java installs are picked up.
	Command func() (string, error)

	// StopCommands are written to stdin by Stop, in order.
	StopCommands []string

	// ColorOutput colors echoed lines by severity keywords.
	ColorOutput bool

	// Console receives echoed server output. Default: os.Stdout.
	Console io.Writer

	// StopTimeout is how long Stop waits before escalating to Kill.
	// KillTimeout is how long Kill waits for the OS to reclaim the process.
	// Both default to 10 minutes.
	StopTimeout time.Duration
	KillTimeout time.Duration

	// PollInterval is the liveness polling granularity of Stop and Kill.
	// Default: 1s.
	PollInterval time.Duration
}

// Status is a snapshot of the managed process.
type Status struct {
	Running      bool      `json:"running"`
	PID          int       `json:"pid,omitempty"`
	StartedAt    time.Time `json:"started_at,omitempty"`
	LastExitCode int       `json:"last_exit_code"`
}

// Supervisor owns the managed server process. Start, Stop, Kill and Restart
// are serialized by a single lifecycle lock; at most one process is alive
// per Supervisor.
type Supervisor struct {
	opts Options

	lifecycle sync.Mutex

	mu        sync.RWMutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	done      chan struct{}
	running   bool
	exitCode  int
	startedAt time.Time
	listeners []Listener

	beforeStart Hook

	killExpected atomic.Bool
	restarting   atomic.Bool
}

// NewSupervisor creates a supervisor. No process is started.
func NewSupervisor(opts Options) *Supervisor {
	if opts.Console == nil {
		opts.Console = os.Stdout
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 10 * time.Minute
	}
	if opts.KillTimeout <= 0 {
		opts.KillTimeout = 10 * time.Minute
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}

	s := &Supervisor{opts: opts, exitCode: -1}
	s.listeners = append(s.listeners, s.echo)
	return s
}

// SetBeforeStart installs the hook run by Start before launching. Hook
// errors are logged and the start continues, unless the error wraps
// ErrStartAborted.
func (s *Supervisor) SetBeforeStart(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeStart = h
}

// AddListener registers l for every subsequent output line.
func (s *Supervisor) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// SetStopCommands replaces the stop commands (config reload).
func (s *Supervisor) SetStopCommands(cmds []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.StopCommands = append([]string(nil), cmds...)
}

// IsRunning reports whether the server process is alive. It never blocks on
// a lifecycle transition.
func (s *Supervisor) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Status returns a snapshot of the managed process.
func (s *Supervisor) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{Running: s.running, LastExitCode: s.exitCode}
	if s.running && s.cmd != nil && s.cmd.Process != nil {
		st.PID = s.cmd.Process.Pid
		st.StartedAt = s.startedAt
	}
	return st
}

// PID returns the process id of the running server, or 0.
func (s *Supervisor) PID() int {
	return s.Status().PID
}

// LastExitCode returns the exit code of the last process, -1 if none exited
// normally.
func (s *Supervisor) LastExitCode() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exitCode
}

// Start runs the before-start hook and launches the server.
func (s *Supervisor) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.start(ctx)
}

func (s *Supervisor) start(ctx context.Context) error {
	if s.IsRunning() {
		return ErrAlreadyRunning
	}

	s.mu.RLock()
	hook := s.beforeStart
	s.mu.RUnlock()
	if hook != nil {
		if err := hook(ctx); err != nil {
			if errors.Is(err, ErrStartAborted) {
				return err
			}
			logging.Warn().Err(err).Msg("Pre-startup tasks reported an error, starting server anyway")
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	command, err := s.opts.Command()
	if err != nil {
		return fmt.Errorf("failed to resolve start command: %w", err)
	}
	args := SplitCommand(command)
	if len(args) == 0 {
		return ErrNoStartCommand
	}

	cmd := exec.Command(args[0], args[1:]...) //nolint:gosec // operator-configured start command
	cmd.Dir = s.opts.Dir
	configureCommand(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open server stdin: %w", err)
	}

	// One pipe for stdout and stderr keeps the interleaving the server wrote.
	reader, writer, err := os.Pipe()
	if err != nil {
		_ = stdin.Close() //nolint:errcheck // best effort
		return fmt.Errorf("failed to create output pipe: %w", err)
	}
	cmd.Stdout = writer
	cmd.Stderr = writer

	logging.Info().Strs("command", args).Str("dir", s.opts.Dir).Msg("Starting server")
	if err := cmd.Start(); err != nil {
		_ = reader.Close() //nolint:errcheck // best effort
		_ = writer.Close() //nolint:errcheck // best effort
		_ = stdin.Close()  //nolint:errcheck // best effort
		return fmt.Errorf("failed to start server: %w", err)
	}
	// The child holds its own copy of the write end.
	_ = writer.Close() //nolint:errcheck // parent copy only

	done := make(chan struct{})
	s.mu.Lock()
	s.cmd = cmd
	s.stdin = stdin
	s.done = done
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()
	// A kill the crash detector never observed must not cover this process.
	s.killExpected.Store(false)

	metrics.ServerStartsTotal.Inc()
	metrics.SetServerRunning(true)

	pumpDone := make(chan struct{})
	go s.pump(reader, pumpDone)
	go s.wait(cmd, done, pumpDone)

	return nil
}

// pump forwards output lines to the listeners until the pipe closes.
func (s *Supervisor) pump(r io.ReadCloser, done chan<- struct{}) {
	defer close(done)
	defer func() { _ = r.Close() }() //nolint:errcheck // read side only

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			s.dispatch(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				logging.Debug().Err(err).Msg("Server output pipe closed")
			}
			return
		}
	}
}

func (s *Supervisor) dispatch(line string) {
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logging.Warn().Interface("panic", r).Msg("Output listener panicked")
				}
			}()
			l(line)
		}()
	}
}

func (s *Supervisor) echo(line string) {
	if s.opts.ColorOutput {
		line = Colorize(line)
	}
	_, _ = fmt.Fprintln(s.opts.Console, line) //nolint:errcheck // console echo
}

// wait reaps the process and records its exit code.
func (s *Supervisor) wait(cmd *exec.Cmd, done chan struct{}, pumpDone <-chan struct{}) {
	err := cmd.Wait()

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}

	// Let the pump drain what the server printed last, but do not hang on
	// grandchildren that inherited the pipe.
	select {
	case <-pumpDone:
	case <-time.After(2 * time.Second):
	}

	s.mu.Lock()
	if s.cmd == cmd {
		s.running = false
		s.exitCode = code
		s.stdin = nil
	}
	s.mu.Unlock()
	close(done)

	metrics.SetServerRunning(false)
	logging.Info().Int("exit_code", code).Msg("Server process exited")
}

// SubmitCommand writes text to the server's stdin, appending a newline if
// missing. A command submitted while the server is down is dropped with a
// warning and no error.
func (s *Supervisor) SubmitCommand(text string) error {
	s.mu.RLock()
	stdin := s.stdin
	running := s.running
	s.mu.RUnlock()

	if !running || stdin == nil {
		if text != "" {
			logging.Warn().Msgf("Failed to submit command '%s' because server is not running!", text)
		} else {
			logging.Warn().Msg("Server is not running!")
		}
		metrics.RecordServerCommand(false)
		return nil
	}

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := io.WriteString(stdin, text); err != nil {
		metrics.RecordServerCommand(false)
		return fmt.Errorf("failed to write command to server: %w", err)
	}
	metrics.RecordServerCommand(true)
	return nil
}

// Stop sends the stop commands and blocks until the process exits. After
// StopTimeout it escalates to a kill; if the process survives KillTimeout
// more, ErrStopTimeout is returned. Stopping a stopped server only warns.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.stop(ctx)
}

func (s *Supervisor) stop(ctx context.Context) error {
	logging.Info().Msg("Stopping server...")
	if !s.IsRunning() {
		logging.Warn().Msg("Server not running!")
		return nil
	}

	s.mu.RLock()
	stopCommands := s.opts.StopCommands
	done := s.done
	s.mu.RUnlock()

	if len(stopCommands) == 0 {
		logging.Warn().Msg("No stop command provided in server.stop_commands")
		return nil
	}
	for _, c := range stopCommands {
		logging.Debug().Str("command", c).Msg("Stopping server with command")
		if err := s.SubmitCommand(c); err != nil {
			logging.Warn().Err(err).Msg("Failed to send stop command")
		}
	}

	if s.awaitExit(ctx, done, s.opts.StopTimeout) {
		return nil
	}

	logging.Warn().Dur("waited", s.opts.StopTimeout).Msg("Server is still running, killing it...")
	if err := s.kill(ctx); err != nil {
		return fmt.Errorf("%w (waited %s in total): %w", ErrStopTimeout, s.opts.StopTimeout+s.opts.KillTimeout, err)
	}
	return nil
}

// Kill force-terminates the server and blocks until the OS reclaimed it.
// The crash detector ignores the resulting exit.
func (s *Supervisor) Kill(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.kill(ctx)
}

func (s *Supervisor) kill(ctx context.Context) error {
	logging.Info().Msg("Killing server!")

	s.mu.RLock()
	cmd := s.cmd
	done := s.done
	running := s.running
	s.mu.RUnlock()

	if !running || cmd == nil || cmd.Process == nil {
		logging.Warn().Msg("Server is not running!")
		return nil
	}
	s.killExpected.Store(true)

	if err := forceKill(cmd.Process); err != nil {
		logging.Warn().Err(err).Msg("Kill signal failed")
	}

	if !s.awaitExit(ctx, done, s.opts.KillTimeout) {
		return fmt.Errorf("%w (waited %s)", ErrKillTimeout, s.opts.KillTimeout)
	}
	metrics.RecordServerExit("killed")
	logging.Info().Msg("Server killed!")
	return nil
}

// awaitExit polls liveness every PollInterval until the process exits or
// timeout elapses. Context cancellation does not shorten the wait; shutdown
// must not abandon a live server.
func (s *Supervisor) awaitExit(ctx context.Context, done <-chan struct{}, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	ctxDone := ctx.Done()
	for s.IsRunning() {
		if !time.Now().Before(deadline) {
			return false
		}
		select {
		case <-done:
		case <-ticker.C:
		case <-ctxDone:
			logging.Info().Msg("Shutdown requested, still waiting for the server to exit")
			ctxDone = nil
		}
	}
	return true
}

// Restart stops and starts the server. Failures are logged, not returned.
func (s *Supervisor) Restart(ctx context.Context) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.restarting.Store(true)
	defer s.restarting.Store(false)

	logging.Info().Msg("Restarting server...")
	if err := s.stop(ctx); err != nil {
		logging.Error().Err(err).Msg("Failed to stop server during restart")
		return
	}
	if err := s.start(ctx); err != nil {
		logging.Error().Err(err).Msg("Failed to start server during restart")
	}
}

// takeKillExpected clears and returns the expected-kill flag.
func (s *Supervisor) takeKillExpected() bool {
	return s.killExpected.Swap(false)
}

// isRestarting reports whether a Restart is in progress.
func (s *Supervisor) isRestarting() bool {
	return s.restarting.Load()
}
