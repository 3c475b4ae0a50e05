// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package state

import "time"

// CycleReport summarizes one maintenance cycle for the status API.
type CycleReport struct {
	ID             string      `json:"id"`
	StartedAt      time.Time   `json:"started_at"`
	FinishedAt     time.Time   `json:"finished_at"`
	CooldownActive bool        `json:"cooldown_active"`
	Error          string      `json:"error,omitempty"`
	Jobs           []JobResult `json:"jobs"`
}

// JobResult is the terminal view of one job.
type JobResult struct {
	Name     string   `json:"name"`
	Outcome  string   `json:"outcome"`
	Status   string   `json:"status"`
	Warnings []string `json:"warnings,omitempty"`
}
