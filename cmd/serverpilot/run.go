// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/tomtom215/serverpilot/internal/logging"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent in the foreground or under the service manager",
	RunE:  runAgentCmd,
}

func runAgentCmd(cmd *cobra.Command, _ []string) error {
	if !service.Interactive() {
		return runAsService()
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runAgent(ctx, configPath)
}

// program adapts runAgent to the service manager's Start/Stop calls.
type program struct {
	cancel   context.CancelFunc
	done     chan error
	stopping atomic.Bool
}

// Start must not block.
func (p *program) Start(service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)
	go func() {
		err := runAgent(ctx, configPath)
		if !p.stopping.Load() {
			// The agent ended on its own (self-update relaunch or
			// stop_agent_on_server_stop); the service manager only learns
			// about it from the exit status.
			if err != nil {
				logging.Error().Err(err).Msg("ServerPilot exited")
				os.Exit(1)
			}
			os.Exit(0)
		}
		p.done <- err
	}()
	return nil
}

// Stop blocks until the managed server and the agent have shut down.
func (p *program) Stop(service.Service) error {
	if p.cancel == nil {
		return nil
	}
	p.stopping.Store(true)
	p.cancel()
	return <-p.done
}

func runAsService() error {
	cfg, err := newServiceConfig()
	if err != nil {
		return err
	}
	s, err := service.New(&program{}, cfg)
	if err != nil {
		return err
	}
	return s.Run()
}
