// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package jobs

import (
	"time"

	"github.com/tomtom215/serverpilot/internal/state"
)

// CooldownReport compares the time since the last cycle with the cooldown
// window. Both values are in milliseconds.
type CooldownReport struct {
	ElapsedMs int64
	WindowMs  int64
}

// NewCooldownReport creates a report from raw millisecond values.
func NewCooldownReport(elapsedMs, windowMs int64) CooldownReport {
	return CooldownReport{ElapsedMs: elapsedMs, WindowMs: windowMs}
}

// CooldownFromTimestamp builds the report from the persisted last-cycle
// timestamp. A missing or unparsable timestamp yields (0, 0), which is never
// in cooldown.
func CooldownFromTimestamp(last string, windowMinutes int, now time.Time) CooldownReport {
	if last == "" {
		return CooldownReport{}
	}
	t, err := time.ParseInLocation(state.TimestampLayout, last, now.Location())
	if err != nil {
		return CooldownReport{}
	}
	return CooldownReport{
		ElapsedMs: now.Sub(t).Milliseconds(),
		WindowMs:  (time.Duration(windowMinutes) * time.Minute).Milliseconds(),
	}
}

// IsInCooldown reports elapsed < window.
func (c CooldownReport) IsInCooldown() bool {
	return c.ElapsedMs < c.WindowMs
}

// MsRemaining returns window - elapsed while in cooldown, else 0.
func (c CooldownReport) MsRemaining() int64 {
	if !c.IsInCooldown() {
		return 0
	}
	return c.WindowMs - c.ElapsedMs
}

// MinutesRemaining rounds MsRemaining down to whole minutes.
func (c CooldownReport) MinutesRemaining() int64 {
	return c.MsRemaining() / time.Minute.Milliseconds()
}
