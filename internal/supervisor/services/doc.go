// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

/*
Package services adapts components with a blocking Start/Shutdown lifecycle to
suture's context-aware Serve pattern.

Components that already implement Serve(ctx) error (the crash detector, stats
sampler, restart scheduler, update checker and config watcher) are added to the
tree directly and need no wrapper.

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe to Serve
  - http.ErrServerClosed is not a failure
*/
package services
