// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

//go:build !windows

package process

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureCommand puts the server in its own process group so that a
// terminal Ctrl-C reaches the agent only; the agent then stops the server
// with its stop commands.
func configureCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// forceKill kills the whole process group, falling back to the process.
func forceKill(p *os.Process) error {
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err == nil || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return p.Kill()
}
