// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/tomtom215/serverpilot/internal/config"
	"github.com/tomtom215/serverpilot/internal/pipeline"
	"github.com/tomtom215/serverpilot/internal/process"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check permissions and the start command without starting anything",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		return systemCheck(cmd.OutOrStdout(), cfg)
	},
}

var (
	okLabel   = color.New(color.FgGreen).Sprint("OK  ")
	failLabel = color.New(color.FgRed).Sprint("FAIL")
)

// systemCheck tests read/write access to the server and agent directories
// and that the start command's executable can be found. Every failure is
// printed and returned.
func systemCheck(w io.Writer, cfg *config.Config) error {
	var result *multierror.Error
	report := func(what string, err error) {
		if err != nil {
			_, _ = fmt.Fprintf(w, "%s %s: %v\n", failLabel, what, err)
			result = multierror.Append(result, err)
			return
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", okLabel, what)
	}

	report("read/write "+cfg.Server.WorkDir, pipeline.CheckPermissions(cfg.Server.WorkDir))

	agentDir := cfg.AgentDir()
	err := os.MkdirAll(agentDir, 0o750)
	if err == nil {
		err = pipeline.CheckPermissions(agentDir)
	}
	report("read/write "+agentDir, err)

	if args := process.SplitCommand(cfg.Server.StartCommand); len(args) > 0 {
		_, err := exec.LookPath(args[0])
		report("start command executable "+args[0], err)
	} else if cfg.Server.StartOnLaunch {
		report("start command", process.ErrNoStartCommand)
	}

	return result.ErrorOrNil()
}
