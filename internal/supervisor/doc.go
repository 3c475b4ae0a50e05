// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

/*
Package supervisor runs the agent's long-lived services under a suture v4
tree.

	Root ("serverpilot")
	├── server-layer
	│   ├── CrashDetector ("crash-detector")
	│   └── StatsSampler ("stats-sampler")
	├── maintenance-layer
	│   ├── restart.Scheduler ("restart-scheduler")
	│   ├── updater.Checker ("update-checker", if tasks.update_check_interval > 0)
	│   ├── jobs.History ("job-history")
	│   └── config.Watcher ("config-watcher", if a config file is in use)
	└── api-layer
	    └── HTTPServerService ("api-server", if api.enabled)

Each layer counts failures on its own, so a listener that cannot bind keeps
restarting with backoff while crash detection carries on. Services that are
done for good return suture.ErrDoNotRestart.

The managed game server itself is not a suture service: its stop sequence can
take minutes, longer than any sensible ShutdownTimeout. main stops it before
canceling the tree.

Supervisor events are logged through sutureslog into the zerolog logger:

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	tree.AddServerService(process.NewCrashDetector(sup, cfg.Server.CrashPollInterval, policy))
	errCh := tree.ServeBackground(ctx)
*/
package supervisor
