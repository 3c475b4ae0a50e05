// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package selfupdate

import (
	"os"
	"os/exec"
)

// launchDetached starts exe in dir in its own session or process group so it
// survives the exit of the current process.
func launchDetached(exe, dir string, args, env []string) error {
	cmd := exec.Command(exe, args...) //nolint:gosec // our own executable
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
