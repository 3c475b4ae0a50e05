// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package process

import (
	"context"
	"time"

	"github.com/tomtom215/serverpilot/internal/logging"
	"github.com/tomtom215/serverpilot/internal/metrics"
)

// CrashPolicy decides what happens after the server stops on its own.
type CrashPolicy struct {
	// RestartOnCrash starts the server again after a non-zero exit.
	RestartOnCrash bool

	// StopAgentOnServerStop calls OnAgentExit when the server stops and is
	// not being restarted.
	StopAgentOnServerStop bool

	// OnAgentExit requests agent shutdown. main cancels the root context.
	OnAgentExit func()
}

// CrashDetector watches a Supervisor for running -> stopped transitions.
// It implements suture.Service and runs for the agent's lifetime.
type CrashDetector struct {
	sup      *Supervisor
	interval time.Duration
	policy   func() CrashPolicy

	lastRunning bool
}

// NewCrashDetector polls sup every interval (2s when zero). policy is read on
// every transition so config reloads apply without a restart.
func NewCrashDetector(sup *Supervisor, interval time.Duration, policy func() CrashPolicy) *CrashDetector {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &CrashDetector{sup: sup, interval: interval, policy: policy}
}

// Serve polls until ctx is canceled. A panic in one iteration is logged and
// polling continues.
func (d *CrashDetector) Serve(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.check(ctx)
		}
	}
}

func (d *CrashDetector) check(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Interface("panic", r).Msg("Crash detector iteration failed")
		}
	}()

	running := d.sup.IsRunning()
	wasRunning := d.lastRunning
	d.lastRunning = running
	if running || !wasRunning {
		return
	}

	d.handleStop(ctx)
}

// handleStop classifies one observed stop.
func (d *CrashDetector) handleStop(ctx context.Context) {
	if d.sup.takeKillExpected() {
		logging.Debug().Msg("Server was killed on request")
		return
	}
	if d.sup.isRestarting() {
		return
	}

	logging.Info().Msg("Server was stopped.")
	policy := d.policy()

	if code := d.sup.LastExitCode(); code != 0 {
		metrics.RecordServerExit("crash")
		logging.Warn().Int("exit_code", code).Msgf("Server crash was detected! Exit-Code should be 0, but is '%d'!", code)
		if policy.RestartOnCrash {
			logging.Info().Msg("Restart on crash is enabled, thus the server is restarting...")
			metrics.ServerRestartsTotal.WithLabelValues("crash").Inc()
			if err := d.sup.Start(ctx); err != nil {
				logging.Error().Err(err).Msg("Failed to restart server after crash")
			}
			return
		}
	} else {
		metrics.RecordServerExit("clean")
	}

	if policy.StopAgentOnServerStop && policy.OnAgentExit != nil {
		logging.Info().Msg("Stopping ServerPilot too, since server.stop_agent_on_server_stop is enabled.")
		policy.OnAgentExit()
	}
}

// String implements fmt.Stringer for supervisor logging.
func (d *CrashDetector) String() string {
	return "crash-detector"
}
