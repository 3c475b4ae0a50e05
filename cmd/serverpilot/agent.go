// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/serverpilot/internal/api"
	"github.com/tomtom215/serverpilot/internal/config"
	"github.com/tomtom215/serverpilot/internal/jobs"
	"github.com/tomtom215/serverpilot/internal/logging"
	"github.com/tomtom215/serverpilot/internal/pipeline"
	"github.com/tomtom215/serverpilot/internal/process"
	"github.com/tomtom215/serverpilot/internal/restart"
	"github.com/tomtom215/serverpilot/internal/state"
	"github.com/tomtom215/serverpilot/internal/supervisor"
	"github.com/tomtom215/serverpilot/internal/supervisor/services"
	"github.com/tomtom215/serverpilot/internal/updater"
)

const (
	// outputTailLines is how much server output the status API can return.
	outputTailLines = 500
	// jobHistorySize is how many finished jobs the status API can return.
	jobHistorySize = 100

	activeLogName = "latest.log"
)

// agent holds the wired components of one agent run.
type agent struct {
	cfg atomic.Pointer[config.Config]

	store    *state.Store
	events   *jobs.EventBus
	history  *jobs.History
	server   *process.Supervisor
	tail     *process.OutputTail
	stats    *process.StatsSampler
	sched    *restart.Scheduler
	pipeline *pipeline.Pipeline
	tree     *supervisor.Tree

	// stopAgent ends the run: signal, self-update relaunch or
	// stop_agent_on_server_stop.
	stopAgent context.CancelFunc
}

func (a *agent) config() *config.Config { return a.cfg.Load() }

// loadConfig loads path, or the first default config file when path is "".
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		path = config.FindConfigFile()
	}
	return config.LoadFrom(path)
}

// logConfig maps the logging section onto the logger configuration. The
// rotated file lives in serverpilot/logs so general tasks can prune it.
func logConfig(cfg *config.Config) logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = cfg.Logging.Level
	lc.Format = cfg.Logging.Format
	lc.Caller = cfg.Logging.Caller
	if f := cfg.Logging.File; f.Enabled {
		lc.File = logging.FileConfig{
			Enabled:    true,
			Path:       filepath.Join(cfg.LogsDir(), activeLogName),
			MaxSizeMB:  f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAgeDays: f.MaxAgeDays,
			Compress:   f.Compress,
		}
	}
	return lc
}

// runAgent runs the agent until ctx is canceled or the agent asks to stop.
// On the way out the managed server is stopped before the service tree.
func runAgent(ctx context.Context, configPath string) error {
	cfg, usedPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logging.Init(logConfig(cfg))
	defer func() { _ = logging.Close() }() //nolint:errcheck // shutting down

	logging.Info().
		Str("version", version).
		Str("work_dir", cfg.Server.WorkDir).
		Str("config", usedPath).
		Msg("Starting ServerPilot")

	store, err := state.Open(cfg.StateDir())
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing state store")
		}
	}()

	agentCtx, stopAgent := context.WithCancel(ctx)
	defer stopAgent()
	// The tree outlives agentCtx so crash detection keeps working while the
	// server is being stopped.
	treeCtx, stopTree := context.WithCancel(context.WithoutCancel(ctx))
	defer stopTree()

	events := jobs.NewEventBus()
	defer func() {
		if err := events.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing job event bus")
		}
	}()

	a := &agent{store: store, events: events, stopAgent: stopAgent}
	a.cfg.Store(cfg)
	a.wire(usedPath)

	errCh := a.tree.ServeBackground(treeCtx)

	var starting sync.WaitGroup
	if cfg.Server.StartOnLaunch {
		starting.Add(1)
		go func() {
			defer starting.Done()
			if err := a.server.Start(agentCtx); err != nil && !errors.Is(err, process.ErrStartAborted) && agentCtx.Err() == nil {
				logging.Error().Err(err).Msg("Failed to start server")
			}
		}()
	} else {
		logging.Info().Msg("server.start_on_launch is disabled, waiting for a start request")
	}

	<-agentCtx.Done()
	logging.Info().Msg("Shutting down ServerPilot")

	starting.Wait()
	a.stopServer()

	stopTree()
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	if unstopped, _ := a.tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("ServerPilot stopped")
	return nil
}

// wire builds the components and the service tree.
func (a *agent) wire(configPath string) {
	cfg := a.config()
	clients := updater.NewClients(cfg.Remote)

	a.server = process.NewSupervisor(process.Options{
		Dir: cfg.Server.WorkDir,
		Command: func() (string, error) {
			return a.config().Server.StartCommand, nil
		},
		StopCommands: cfg.Server.StopCommands,
		ColorOutput:  cfg.Server.ColorOutput,
		StopTimeout:  cfg.Server.StopTimeout,
		KillTimeout:  cfg.Server.KillTimeout,
	})
	a.tail = process.NewOutputTail(outputTailLines)
	a.server.AddListener(a.tail.Add)

	a.sched = restart.NewScheduler(a.server)
	a.pipeline = pipeline.New(cfg, a.store, clients, a.sched, version, a.stopAgent)
	a.pipeline.SetEvents(a.events)
	a.server.SetBeforeStart(a.pipeline.BeforeStart)
	a.history = jobs.NewHistory(a.events, jobHistorySize)

	a.stats = process.NewStatsSampler(a.server, cfg.Server.StatsInterval)

	a.tree = supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	a.tree.AddServerService(process.NewCrashDetector(a.server, cfg.Server.CrashPollInterval, a.crashPolicy))
	a.tree.AddServerService(a.stats)
	a.tree.AddMaintenanceService(a.sched)
	checker := updater.NewChecker(cfg, a.store, clients)
	checker.SetEvents(a.events)
	a.tree.AddMaintenanceService(checker)
	a.tree.AddMaintenanceService(a.history)
	if configPath != "" {
		a.tree.AddMaintenanceService(config.NewWatcher(configPath, a.reload))
	}
	if cfg.API.Enabled {
		a.tree.AddAPIService(services.NewHTTPServerService(a.apiServer(cfg), cfg.Supervisor.ShutdownTimeout))
	}
}

func (a *agent) apiServer(cfg *config.Config) *http.Server {
	handler := api.New(cfg.API, api.Deps{
		Server:  a.server,
		Stats:   a.stats,
		Output:  a.tail,
		Cycles:  a.store,
		Jobs:    a.history,
		Version: version,
	}).Handler()

	return &http.Server{
		Addr:              net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

func (a *agent) crashPolicy() process.CrashPolicy {
	s := a.config().Server
	return process.CrashPolicy{
		RestartOnCrash:        s.RestartOnCrash,
		StopAgentOnServerStop: s.StopAgentOnServerStop,
		OnAgentExit:           a.stopAgent,
	}
}

// reload applies a changed config file. Settings read at construction
// (work dir, API listener, tree tuning) need an agent restart.
func (a *agent) reload(cfg *config.Config) {
	old := a.cfg.Swap(cfg)
	logging.SetLevelString(cfg.Logging.Level)
	a.server.SetStopCommands(cfg.Server.StopCommands)
	a.pipeline.SetConfig(cfg)

	if old.Server.WorkDir != cfg.Server.WorkDir || old.API != cfg.API || old.Supervisor != cfg.Supervisor {
		logging.Warn().Msg("Work dir, API or supervisor settings changed, restart ServerPilot to apply them")
	}
	logging.Info().Msg("Configuration reloaded, changes apply from the next maintenance cycle")
}

// stopServer is the shutdown hook: a running server gets its stop commands
// and, failing that, is killed.
func (a *agent) stopServer() {
	if !a.server.IsRunning() {
		return
	}
	s := a.config().Server
	ctx, cancel := context.WithTimeout(context.Background(), s.StopTimeout+s.KillTimeout+time.Minute)
	defer cancel()

	logging.Info().Msg("Stopping the server before exiting")
	if err := a.server.Stop(ctx); err != nil && !errors.Is(err, process.ErrNotRunning) {
		logging.Error().Err(err).Msg("Failed to stop the server")
	}
}
