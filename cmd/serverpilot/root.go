// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package main

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "serverpilot",
	Short: "Unattended game server operations agent",
	Long: `ServerPilot starts and supervises a game server. Before every start it
updates itself, backs up the server, installs Java, server, plugin and mod
updates, and schedules restarts.`,
	SilenceUsage: true,
	RunE:         runAgentCmd,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default: first of serverpilot.yaml, serverpilot.yml, serverpilot/config.yaml, /etc/serverpilot/config.yaml; or $SERVERPILOT_CONFIG)")

	rootCmd.AddCommand(runCmd, checkCmd, serviceCmd, backupCmd, versionCmd)
}
