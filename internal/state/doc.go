// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

// Package state persists what the agent must remember between launches:
// the last maintenance cycle timestamp (drives the update cooldown), the CI
// build ids and versions installed per update target, and the summary of the
// last cycle.
//
// Data lives in a BadgerDB under <work_dir>/serverpilot/state. Values are
// small; JSON (goccy/go-json) is used for structured entries.
package state
