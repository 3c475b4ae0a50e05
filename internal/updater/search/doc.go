// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

// Package search resolves the latest version of a managed artifact from a
// remote source and classifies it against the installed version.
//
// Every searcher returns exactly one Result. Network and parse faults never
// escape as errors: they become a Result with classification APIError that
// carries the cause, so callers can move on to the next plugin or mod.
package search
