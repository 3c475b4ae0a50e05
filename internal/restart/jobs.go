// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package restart

import (
	"context"
	"strings"

	"github.com/tomtom215/serverpilot/internal/config"
	"github.com/tomtom215/serverpilot/internal/jobs"
)

// Job names as shown in the cycle display.
const (
	JobDaily  = "DailyRestarter"
	JobCustom = "CustomRestarter"
)

// DailyJob returns the DailyRestarter job, which (re)registers the daily
// restart times. A disabled restarter removes previously registered times.
func (s *Scheduler) DailyJob(cfg config.DailyRestartConfig) jobs.WorkFunc {
	return func(_ context.Context, j *jobs.Job) error {
		if !cfg.Enabled || len(cfg.Times) == 0 {
			s.Clear(GroupDaily)
			j.Skip("Skipped. Disabled by user.")
			return nil
		}
		if err := s.ScheduleDaily(cfg.Times, config.CountdownSeconds(cfg.Commands)); err != nil {
			return err
		}
		j.SetStatus("Restarts scheduled at %s", strings.Join(cfg.Times, ", "))
		return nil
	}
}

// CustomJob returns the CustomRestarter job for cron expressions.
func (s *Scheduler) CustomJob(cfg config.CustomRestartConfig) jobs.WorkFunc {
	return func(_ context.Context, j *jobs.Job) error {
		if !cfg.Enabled || len(cfg.Cron) == 0 {
			s.Clear(GroupCustom)
			j.Skip("Skipped. Disabled by user.")
			return nil
		}
		if err := s.ScheduleCustom(cfg.Cron, config.CountdownSeconds(cfg.Commands)); err != nil {
			return err
		}
		j.SetStatus("Restarts scheduled for %d cron expressions, next at %s",
			len(cfg.Cron), s.Next(GroupCustom).Format("2006-01-02 15:04"))
		return nil
	}
}
