// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

// Package main is the ServerPilot agent.
//
// ServerPilot runs next to a Minecraft-style game server, starts it, and
// before every start runs a maintenance cycle: agent self-update, backup,
// housekeeping, restart schedules and the Java, server, plugin and mod
// updaters. While the server runs it restarts it on crashes and on the
// configured schedules, and serves a small status API.
//
// # Startup order
//
//  1. A binary launched from serverpilot/downloads installs itself over the
//     old one and relaunches it (self-update), then exits
//  2. Configuration: defaults, config file, environment (koanf)
//  3. Logging: console plus optional rotated file in serverpilot/logs
//  4. State store: badger in serverpilot/state
//  5. Supervisor tree: crash detector, stats sampler, restart scheduler,
//     update checker, config watcher, status API
//  6. Server start (server.start_on_launch), which runs the maintenance cycle
//
// # Signal handling
//
// SIGINT and SIGTERM stop the managed server with its stop commands (killing
// it after server.stop_timeout), then stop the supervisor tree.
//
// # Commands
//
//	serverpilot [run]                 run the agent (default)
//	serverpilot check                 test read/write permissions
//	serverpilot service install       register as a system service
//	serverpilot service uninstall|start|stop|status
//	serverpilot backup list           list backups
//	serverpilot backup verify FILE    verify archive checksums
//	serverpilot version
package main

import (
	"context"
	"os"

	"github.com/tomtom215/serverpilot/internal/selfupdate"
)

// version is set at build time:
//
//	go build -ldflags "-X main.version=1.4.0" ./cmd/serverpilot
var version = "dev"

func main() {
	if staged, err := selfupdate.RunIfStaged(context.Background()); staged {
		if err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
