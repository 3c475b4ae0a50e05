// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package process

import "errors"

var (
	// ErrAlreadyRunning is returned by Start while a server process is alive.
	ErrAlreadyRunning = errors.New("server already running")

	// ErrNotRunning is returned by operations that need a live process.
	ErrNotRunning = errors.New("server is not running")

	// ErrNoStartCommand is returned when the resolved start command is empty.
	ErrNoStartCommand = errors.New("no start command configured")

	// ErrStartAborted is returned (wrapped) by a before-start hook to keep the
	// server from launching, for example when the agent is about to be replaced.
	ErrStartAborted = errors.New("server start aborted")

	// ErrStopTimeout means the process survived the stop commands and a kill.
	ErrStopTimeout = errors.New("failed to stop and kill server")

	// ErrKillTimeout means the OS did not reclaim the process after a kill.
	ErrKillTimeout = errors.New("failed to kill server")
)
