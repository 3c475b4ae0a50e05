// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package updater

import (
	"context"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/tomtom215/serverpilot/internal/config"
	"github.com/tomtom215/serverpilot/internal/jobs"
	"github.com/tomtom215/serverpilot/internal/state"
	"github.com/tomtom215/serverpilot/internal/updater/download"
)

// Job names as shown in the cycle display and report.
const (
	JobJava    = "JavaUpdater"
	JobServer  = "ServerUpdater"
	JobPlugins = "PluginsUpdater"
	JobMods    = "ModsUpdater"
)

// State store keys.
const (
	stateKeyServer       = "server"
	stateKeyJava         = "java"
	stateKeyPluginPrefix = "plugin:"
)

// skipDisabled is the status of a job whose updater is turned off.
const skipDisabled = "Skipped. Disabled by user."

// Starter starts and awaits jobs. *jobs.Orchestrator implements it.
type Starter interface {
	Start(name string, fn jobs.WorkFunc) *jobs.Job
	Await(ctx context.Context, js ...*jobs.Job) error
}

// Updater runs the update jobs of one cycle.
type Updater struct {
	cfg     *config.Config
	store   *state.Store
	clients *Clients
	starter Starter

	// checkOnly suppresses download jobs; see Checker.
	checkOnly bool
}

// New creates an Updater. Download jobs are started through starter so they
// appear in the same cycle as the updater that found them.
func New(cfg *config.Config, store *state.Store, clients *Clients, starter Starter) *Updater {
	return &Updater{cfg: cfg, store: store, clients: clients, starter: starter}
}

// StartAll starts the four update jobs and returns them.
func (u *Updater) StartAll() []*jobs.Job {
	return []*jobs.Job{
		u.starter.Start(JobJava, u.Java),
		u.starter.Start(JobServer, u.Server),
		u.starter.Start(JobPlugins, u.Plugins),
		u.starter.Start(JobMods, u.Mods),
	}
}

// pending is a started download job and its task.
type pending struct {
	job  *jobs.Job
	task *download.Task
	// onInstalled runs after a successful install.
	onInstalled func() error
}

// startDownload starts task as its own job named "Download <name>". In
// check-only mode nothing is started.
func (u *Updater) startDownload(task *download.Task, onInstalled func() error) pending {
	if u.checkOnly {
		return pending{}
	}
	if task.DownloadsDir == "" {
		task.DownloadsDir = u.cfg.DownloadsDir()
	}
	return pending{
		job:         u.starter.Start("Download "+task.Name, task.Run),
		task:        task,
		onInstalled: onInstalled,
	}
}

// awaitDownloads waits for every pending download and runs the install
// callbacks. It returns how many were installed and the download failures.
func (u *Updater) awaitDownloads(ctx context.Context, ps []pending) (installed int, errs []error) {
	for _, p := range ps {
		if p.job == nil {
			continue
		}
		if err := u.starter.Await(ctx, p.job); err != nil {
			return installed, append(errs, err)
		}
		if p.job.Outcome() == jobs.Failed {
			errs = append(errs, p.job.Err())
			continue
		}
		if !p.task.Installed() {
			continue
		}
		installed++
		if p.onInstalled != nil {
			if err := p.onInstalled(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return installed, errs
}

// downloadErr combines download failures into the updater's error.
func downloadErr(errs []error) error {
	var result *multierror.Error
	for _, err := range errs {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// lookupTarget finds key in m, exact match first, then case-insensitive.
func lookupTarget[T any](m map[string]T, key string) (T, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	var zero T
	return zero, false
}
