// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Outcome is the state of a Job. Every outcome except NotFinished is terminal.
type Outcome int

const (
	NotFinished Outcome = iota
	Success
	// Unsuccessful is a deliberate non-error end, such as a notify-only update.
	Unsuccessful
	Failed
	Interrupted
	Skipped
)

// String returns the lower-case outcome name used in logs, metrics and the API.
func (o Outcome) String() string {
	switch o {
	case NotFinished:
		return "not-finished"
	case Success:
		return "success"
	case Unsuccessful:
		return "unsuccessful"
	case Failed:
		return "failed"
	case Interrupted:
		return "interrupted"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Terminal reports whether o ends a job.
func (o Outcome) Terminal() bool {
	return o != NotFinished
}

// WorkFunc is the body of a job. Returning an error fails the job; returning
// nil without calling Finish, Skip or Fail finishes it successfully.
type WorkFunc func(ctx context.Context, j *Job) error

// Job is one unit of maintenance work with progress, status and outcome.
// All methods are safe for concurrent use. A job is immutable once terminal:
// later outcome, status, progress and warning updates are ignored.
type Job struct {
	name string

	mu       sync.RWMutex
	status   string
	now      int64
	max      int64
	outcome  Outcome
	err      error
	warnings []string
	started  time.Time
	finished time.Time

	done chan struct{}
}

// NewJob creates a job in the not-finished state.
func NewJob(name string) *Job {
	return &Job{name: name, done: make(chan struct{})}
}

// Name returns the job's name.
func (j *Job) Name() string { return j.name }

// SetStatus sets the human-readable status line.
func (j *Job) SetStatus(format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.outcome.Terminal() {
		return
	}
	j.status = msg
}

// SetMax sets the progress maximum.
func (j *Job) SetMax(n int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.outcome.Terminal() {
		return
	}
	j.max = n
}

// SetNow sets the current progress.
func (j *Job) SetNow(n int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.outcome.Terminal() {
		return
	}
	j.now = n
}

// Step advances progress by one.
func (j *Job) Step() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.outcome.Terminal() {
		return
	}
	j.now++
}

// AddWarning records a non-fatal problem, for example one plugin failing
// inside the plugins job. Like the progress setters it is a no-op once the
// job is terminal.
func (j *Job) AddWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.outcome.Terminal() {
		return
	}
	j.warnings = append(j.warnings, msg)
}

// Finish ends the job as Success or Unsuccessful.
func (j *Job) Finish(success bool) {
	if success {
		j.terminate(Success, nil, "")
	} else {
		j.terminate(Unsuccessful, nil, "")
	}
}

// Fail ends the job as Failed with err.
func (j *Job) Fail(err error) {
	j.terminate(Failed, err, "")
}

// Skip ends the job as Skipped, typically because it is disabled.
func (j *Job) Skip(reason string) {
	j.terminate(Skipped, nil, reason)
}

// Interrupt ends the job as Interrupted.
func (j *Job) Interrupt(err error) {
	j.terminate(Interrupted, err, "")
}

func (j *Job) terminate(o Outcome, err error, status string) bool {
	j.mu.Lock()
	if j.outcome.Terminal() {
		j.mu.Unlock()
		return false
	}
	j.outcome = o
	j.err = err
	if status != "" {
		j.status = status
	}
	if o == Success && j.max > 0 {
		j.now = j.max
	}
	j.finished = time.Now()
	j.mu.Unlock()

	close(j.done)
	return true
}

// IsFinished reports whether the job reached a terminal outcome.
func (j *Job) IsFinished() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

// Done is closed when the job becomes terminal.
func (j *Job) Done() <-chan struct{} { return j.done }

// Outcome returns the current outcome.
func (j *Job) Outcome() Outcome {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.outcome
}

// Err returns the failure cause, if any.
func (j *Job) Err() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.err
}

func (j *Job) markStarted() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.started = time.Now()
}

// Snapshot is a consistent copy of a job's state.
type Snapshot struct {
	Name     string
	Status   string
	Now      int64
	Max      int64
	Outcome  Outcome
	Err      error
	Warnings []string
	Started  time.Time
	Finished time.Time
}

// Percent returns progress in percent, or -1 when the maximum is unknown.
func (s Snapshot) Percent() int {
	if s.Max <= 0 {
		return -1
	}
	p := s.Now * 100 / s.Max
	if p > 100 {
		p = 100
	}
	return int(p)
}

// Duration returns how long the job ran (so far).
func (s Snapshot) Duration() time.Duration {
	if s.Started.IsZero() {
		return 0
	}
	if s.Finished.IsZero() {
		return time.Since(s.Started)
	}
	return s.Finished.Sub(s.Started)
}

// Snapshot returns the job's current state.
func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return Snapshot{
		Name:     j.name,
		Status:   j.status,
		Now:      j.now,
		Max:      j.max,
		Outcome:  j.outcome,
		Err:      j.err,
		Warnings: append([]string(nil), j.warnings...),
		Started:  j.started,
		Finished: j.finished,
	}
}
