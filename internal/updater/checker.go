// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package updater

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/serverpilot/internal/config"
	"github.com/tomtom215/serverpilot/internal/jobs"
	"github.com/tomtom215/serverpilot/internal/logging"
	"github.com/tomtom215/serverpilot/internal/state"
)

// Checker repeats the server, plugin and mod update checks while the server
// runs. It never downloads anything.
type Checker struct {
	cfg      *config.Config
	store    *state.Store
	clients  *Clients
	interval time.Duration
	events   *jobs.EventBus
}

// NewChecker creates a checker running every cfg.Tasks.UpdateCheckInterval.
func NewChecker(cfg *config.Config, store *state.Store, clients *Clients) *Checker {
	return &Checker{cfg: cfg, store: store, clients: clients, interval: cfg.Tasks.UpdateCheckInterval}
}

// Serve implements suture.Service. A zero interval disables the checker
// for good.
func (c *Checker) Serve(ctx context.Context) error {
	if c.interval <= 0 {
		return suture.ErrDoNotRestart
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.CheckOnce(ctx)
		}
	}
}

// SetEvents publishes the jobs of every check to bus.
func (c *Checker) SetEvents(bus *jobs.EventBus) { c.events = bus }

// String implements fmt.Stringer for suture logging.
func (c *Checker) String() string { return "update-checker" }

// CheckOnce runs one round of checks and returns its report.
func (c *Checker) CheckOnce(ctx context.Context) jobs.Report {
	o := jobs.NewOrchestrator(ctx)
	if c.events != nil {
		o.PublishTo(c.events, jobs.OriginUpdateCheck)
	}
	u := New(c.cfg, c.store, c.clients, o)
	u.checkOnly = true

	o.Start(JobServer, u.Server)
	o.Start(JobPlugins, u.Plugins)
	o.Start(JobMods, u.Mods)
	if err := o.WaitAll(ctx); err != nil {
		o.MarkUnfinishedFailed(err)
	}
	o.Close()

	report := o.Report()
	logging.Ctx(ctx).Debug().
		Int("failed", len(report.Failed())).
		Msg("Recurring update check finished")
	return report
}
