// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

// Package jobs is the task orchestration framework of a maintenance cycle:
// Job (progress, status, outcome), Orchestrator (concurrent runner with
// failure isolation), the update cooldown report and the live/batch display.
//
// A job's work function reports problems by returning an error or by
// calling Fail; panics are recovered by the orchestrator as a backstop.
// Outcomes are final: the first terminal transition wins.
package jobs
