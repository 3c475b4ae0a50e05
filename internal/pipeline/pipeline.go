// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

// Package pipeline runs the maintenance cycle before every server start.
//
// Order of one cycle:
//
//  1. SelfUpdater, awaited (skipped entirely during the cooldown)
//  2. BackupTask, awaited
//  3. GeneralTasks, DailyRestarter and CustomRestarter, concurrently
//  4. JavaUpdater, ServerUpdater, PluginsUpdater and ModsUpdater,
//     concurrently (skipped entirely during the cooldown)
//  5. wait for every job, including the download jobs the updaters start
//
// The last-cycle timestamp is refreshed at the end of every cycle, also when
// the cooldown skipped the update jobs or the cycle failed.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/serverpilot/internal/backup"
	"github.com/tomtom215/serverpilot/internal/config"
	"github.com/tomtom215/serverpilot/internal/jobs"
	"github.com/tomtom215/serverpilot/internal/logging"
	"github.com/tomtom215/serverpilot/internal/metrics"
	"github.com/tomtom215/serverpilot/internal/process"
	"github.com/tomtom215/serverpilot/internal/restart"
	"github.com/tomtom215/serverpilot/internal/selfupdate"
	"github.com/tomtom215/serverpilot/internal/state"
	"github.com/tomtom215/serverpilot/internal/updater"
)

// ErrRelaunching is returned by BeforeStart once a self-update was launched.
var ErrRelaunching = fmt.Errorf("agent update launched: %w", process.ErrStartAborted)

// Pipeline builds and runs maintenance cycles.
type Pipeline struct {
	cfg     atomic.Pointer[config.Config]
	store   *state.Store
	clients *updater.Clients
	sched   *restart.Scheduler
	version string
	out     io.Writer
	now     func() time.Time

	// runMu serializes cycles; a restart may race a manual start.
	runMu sync.Mutex

	relaunching atomic.Bool
	onRelaunch  func()

	events *jobs.EventBus

	// newSelfUpdater is replaced in tests.
	newSelfUpdater func(cfg *config.Config, o *jobs.Orchestrator) jobs.WorkFunc
}

// New creates a pipeline. onRelaunch is called when a self-update has been
// launched and the agent must shut down.
func New(cfg *config.Config, store *state.Store, clients *updater.Clients, sched *restart.Scheduler, version string, onRelaunch func()) *Pipeline {
	p := &Pipeline{
		store:      store,
		clients:    clients,
		sched:      sched,
		version:    version,
		out:        os.Stdout,
		now:        time.Now,
		onRelaunch: onRelaunch,
	}
	p.cfg.Store(cfg)
	p.newSelfUpdater = func(cfg *config.Config, o *jobs.Orchestrator) jobs.WorkFunc {
		return selfupdate.NewUpdater(cfg, p.clients, o, p.version, p.requestRelaunch).Run
	}
	return p
}

// SetConfig replaces the configuration used by the next cycle.
func (p *Pipeline) SetConfig(cfg *config.Config) { p.cfg.Store(cfg) }

// SetEvents publishes the jobs of every cycle to bus. Call it before the
// first cycle.
func (p *Pipeline) SetEvents(bus *jobs.EventBus) { p.events = bus }

// SetOutput redirects the job display.
func (p *Pipeline) SetOutput(w io.Writer) { p.out = w }

// Relaunching reports whether a self-update asked the agent to exit.
func (p *Pipeline) Relaunching() bool { return p.relaunching.Load() }

func (p *Pipeline) requestRelaunch() {
	if p.relaunching.Swap(true) {
		return
	}
	if p.onRelaunch != nil {
		p.onRelaunch()
	}
}

// BeforeStart is the supervisor's before-start hook. A failed cycle does not
// keep the server from starting; a launched self-update does.
func (p *Pipeline) BeforeStart(ctx context.Context) error {
	_, err := p.Run(ctx)
	if p.Relaunching() {
		return ErrRelaunching
	}
	return err
}

// Run executes one maintenance cycle and returns its report. The report is
// also persisted for the status API.
func (p *Pipeline) Run(ctx context.Context) (*state.CycleReport, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	cfg := p.cfg.Load()
	started := p.now()
	cycleID := logging.NewCycleID()
	ctx = logging.ContextWithCycleID(ctx, cycleID)
	log := logging.Ctx(ctx)

	p.store.Lock()
	defer p.store.Unlock()

	last, err := p.store.LastCycle()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read last cycle timestamp, ignoring cool-down")
	}
	cooldown := jobs.CooldownFromTimestamp(last, cfg.Tasks.CooldownMinutes, started)
	inCooldown := cooldown.IsInCooldown()
	if inCooldown {
		log.Info().Msgf("Skipped updater tasks. Global updater cool-down still active (%d minutes remaining)",
			cooldown.MinutesRemaining())
	}

	mode := jobs.DisplayBatch
	if cfg.Tasks.LiveDisplay {
		mode = jobs.DisplayLive
	}
	display := jobs.NewDisplay(p.out, mode, cfg.Tasks.RefreshInterval)

	o := jobs.NewOrchestrator(ctx)
	if p.events != nil {
		o.PublishTo(p.events, jobs.OriginCycle)
	}
	moreJobs := make(chan struct{})
	var rendered <-chan struct{}
	if mode == jobs.DisplayLive {
		rendered = display.Live(ctx, o, moreJobs)
	}

	runErr := p.runJobs(ctx, cfg, o, inCooldown)
	close(moreJobs)
	if runErr != nil {
		log.Error().Err(runErr).Msg("Maintenance cycle failed")
		o.MarkUnfinishedFailed(runErr)
	}
	if rendered != nil {
		<-rendered
	}
	report := o.Report()
	display.PrintSummary(report)

	finished := p.now()
	if err := p.store.SetLastCycle(finished); err != nil {
		log.Error().Err(err).Msg("Failed to save last cycle timestamp")
	}
	cr := cycleReport(cycleID, started, finished, inCooldown, runErr, report)
	if err := p.store.SaveCycleReport(cr); err != nil {
		log.Warn().Err(err).Msg("Failed to save cycle report")
	}
	metrics.RecordCycle(finished.Sub(started), inCooldown)

	log.Info().
		Int("jobs", len(report.Jobs)).
		Int("failed", len(report.Failed())).
		Bool("cooldown", inCooldown).
		Dur("took", finished.Sub(started)).
		Msg("Maintenance cycle finished")
	return cr, runErr
}

// runJobs starts the jobs in pipeline order. Panics while building the
// pipeline are returned as errors so the caller can fail the started jobs.
func (p *Pipeline) runJobs(ctx context.Context, cfg *config.Config, o *jobs.Orchestrator, inCooldown bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while running pipeline: %v", r)
		}
	}()

	if !inCooldown {
		self := o.Start(selfupdate.JobName, p.newSelfUpdater(cfg, o))
		if err := o.Await(ctx, self); err != nil {
			return err
		}
		// The agent is about to be replaced; nothing else may touch the files.
		if p.Relaunching() {
			return nil
		}
	}

	mgr, err := backup.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("set up backup: %w", err)
	}
	bk := o.Start(backup.JobName, mgr.Run)
	if err := o.Await(ctx, bk); err != nil {
		return err
	}

	o.Start(JobGeneral, GeneralTasks(cfg))
	if p.sched != nil {
		o.Start(restart.JobDaily, p.sched.DailyJob(cfg.Restarter.Daily))
		o.Start(restart.JobCustom, p.sched.CustomJob(cfg.Restarter.Custom))
	}

	if !inCooldown {
		updater.New(cfg, p.store, p.clients, o).StartAll()
	}

	if err := o.WaitAll(ctx); err != nil {
		return fmt.Errorf("waiting for jobs: %w", err)
	}
	return nil
}

func cycleReport(id string, started, finished time.Time, inCooldown bool, runErr error, r jobs.Report) *state.CycleReport {
	cr := &state.CycleReport{
		ID:             id,
		StartedAt:      started,
		FinishedAt:     finished,
		CooldownActive: inCooldown,
		Jobs:           make([]state.JobResult, 0, len(r.Jobs)),
	}
	if runErr != nil {
		cr.Error = runErr.Error()
	}
	for _, s := range r.Jobs {
		status := s.Status
		if s.Err != nil && status == "" {
			status = s.Err.Error()
		}
		cr.Jobs = append(cr.Jobs, state.JobResult{
			Name:     s.Name,
			Outcome:  s.Outcome.String(),
			Status:   status,
			Warnings: s.Warnings,
		})
	}
	return cr
}
