// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/serverpilot/internal/logging"
	"github.com/tomtom215/serverpilot/internal/metrics"
)

// ErrCycleAborted marks jobs force-failed because the pipeline itself failed.
var ErrCycleAborted = errors.New("maintenance cycle aborted")

// Orchestrator runs the jobs of one maintenance cycle. Jobs run on their own
// goroutines; one job's failure never stops its siblings. There is no
// mid-job cancellation: the context handed to jobs is canceled only on agent
// shutdown, and a job force-marked failed keeps running until it returns.
//
// An Orchestrator is not reused across cycles.
type Orchestrator struct {
	ctx   context.Context
	group errgroup.Group

	mu   sync.Mutex
	jobs []*Job

	events *EventBus
	origin string
}

// NewOrchestrator creates an orchestrator whose jobs receive ctx.
func NewOrchestrator(ctx context.Context) *Orchestrator {
	return &Orchestrator{ctx: ctx}
}

// PublishTo makes every finished job publish an Event to bus. Call it before
// the first Start.
func (o *Orchestrator) PublishTo(bus *EventBus, origin string) {
	o.events = bus
	o.origin = origin
}

// Start registers a job and starts it immediately.
func (o *Orchestrator) Start(name string, fn WorkFunc) *Job {
	j := NewJob(name)

	o.mu.Lock()
	o.jobs = append(o.jobs, j)
	o.mu.Unlock()

	j.markStarted()
	o.group.Go(func() error {
		o.run(j, fn)
		return nil
	})
	return j
}

// run executes fn and converts its result into a terminal outcome.
func (o *Orchestrator) run(j *Job, fn WorkFunc) {
	log := logging.Ctx(o.ctx).With().Str("job", j.Name()).Logger()

	defer func() {
		if r := recover(); r != nil {
			j.Fail(fmt.Errorf("panic: %v", r))
		}
		snap := j.Snapshot()
		metrics.RecordJob(snap.Name, snap.Outcome.String(), snap.Duration())

		ev := log.Info()
		if snap.Outcome == Failed {
			ev = log.Error().Err(snap.Err)
		}
		ev.Str("outcome", snap.Outcome.String()).
			Int("warnings", len(snap.Warnings)).
			Dur("took", snap.Duration()).
			Msg(snap.Status)

		if o.events != nil {
			if err := o.events.Publish(NewEvent(o.origin, logging.CycleIDFromContext(o.ctx), snap)); err != nil {
				log.Debug().Err(err).Msg("Job event not published")
			}
		}
	}()

	err := fn(o.ctx, j)
	switch {
	case err == nil:
		j.Finish(true)
	case errors.Is(err, context.Canceled) && o.ctx.Err() != nil:
		j.Interrupt(err)
	default:
		j.Fail(err)
	}
}

// Await blocks until every given job is terminal or ctx is done.
func (o *Orchestrator) Await(ctx context.Context, jobs ...*Job) error {
	for _, j := range jobs {
		select {
		case <-j.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// WaitAll blocks until every started job is terminal or ctx is done. Jobs
// started by other jobs while waiting (downloads) are waited for as well.
func (o *Orchestrator) WaitAll(ctx context.Context) error {
	for {
		jobs := o.Jobs()
		if err := o.Await(ctx, jobs...); err != nil {
			return err
		}
		if len(o.Jobs()) == len(jobs) {
			return nil
		}
	}
}

// AllFinished reports whether every started job is terminal.
func (o *Orchestrator) AllFinished() bool {
	for _, j := range o.Jobs() {
		if !j.IsFinished() {
			return false
		}
	}
	return true
}

// MarkUnfinishedFailed force-fails every job that is still running. Their
// goroutines are not interrupted.
func (o *Orchestrator) MarkUnfinishedFailed(cause error) {
	err := ErrCycleAborted
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrCycleAborted, cause)
	}
	for _, j := range o.Jobs() {
		if !j.IsFinished() {
			j.Fail(err)
		}
	}
}

// Close waits for every job goroutine to return, including force-failed ones.
func (o *Orchestrator) Close() {
	_ = o.group.Wait() //nolint:errcheck // job goroutines never return errors
}

// Jobs returns the started jobs in start order.
func (o *Orchestrator) Jobs() []*Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Job(nil), o.jobs...)
}

// Report snapshots every job.
func (o *Orchestrator) Report() Report {
	jobs := o.Jobs()
	r := Report{Jobs: make([]Snapshot, 0, len(jobs))}
	for _, j := range jobs {
		r.Jobs = append(r.Jobs, j.Snapshot())
	}
	return r
}

// Report is the aggregated result of a cycle.
type Report struct {
	Jobs []Snapshot
}

// Count returns the number of jobs with outcome o.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, s := range r.Jobs {
		if s.Outcome == o {
			n++
		}
	}
	return n
}

// Failed returns the snapshots of failed or interrupted jobs.
func (r Report) Failed() []Snapshot {
	var out []Snapshot
	for _, s := range r.Jobs {
		if s.Outcome == Failed || s.Outcome == Interrupted {
			out = append(out, s)
		}
	}
	return out
}

// Get returns the snapshot of the named job.
func (r Report) Get(name string) (Snapshot, bool) {
	for _, s := range r.Jobs {
		if s.Name == name {
			return s, true
		}
	}
	return Snapshot{}, false
}
