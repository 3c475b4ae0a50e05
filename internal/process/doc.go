// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

/*
Package process supervises the managed game server process.

# Components

  - Supervisor: the only owner of the server process. Start, Stop, Kill and
    Restart share one lifecycle lock, so at most one transition runs at a
    time and at most one process is alive.
  - Output pump: stdout and stderr share one pipe; every line goes to the
    registered listeners (console echo with optional severity colors,
    OutputTail for the status API).
  - CrashDetector: a suture service polling every two seconds for the
    running to stopped transition. Expected kills are ignored, non-zero
    exits are crashes (optionally restarted), and a stop can take the whole
    agent down when configured.
  - StatsSampler: gopsutil CPU and RSS samples for metrics and the API.

# Blocking Behavior

Stop and Kill block. Stop writes the stop commands, polls liveness every
second for up to StopTimeout, then kills and polls up to KillTimeout more.
Surviving both is ErrStopTimeout. Canceling the context does not shorten
these waits.

# Example

	sup := process.NewSupervisor(process.Options{
	    Dir:          cfg.Server.WorkDir,
	    Command:      func() (string, error) { return cfg.Server.StartCommand, nil },
	    StopCommands: cfg.Server.StopCommands,
	    ColorOutput:  true,
	})
	sup.SetBeforeStart(pipeline.Run)
	if err := sup.Start(ctx); err != nil { ... }
	defer sup.Stop(context.Background())
*/
package process
