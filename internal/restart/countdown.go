// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

// Package restart runs scheduled server restarts: a countdown of in-game
// commands followed by a supervisor restart, triggered by daily times or
// cron expressions.
package restart

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/serverpilot/internal/logging"
	"github.com/tomtom215/serverpilot/internal/process"
)

// Controller is the part of the process supervisor a restart needs.
type Controller interface {
	IsRunning() bool
	SubmitCommand(text string) error
	Restart(ctx context.Context)
}

// SleepFunc waits d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Countdown sends per-second commands before restarting the server.
// Commands maps seconds-before-restart to the commands sent at that second.
type Countdown struct {
	ctl      Controller
	commands map[int][]string
	sleep    SleepFunc
}

// NewCountdown creates a countdown over commands.
func NewCountdown(ctl Controller, commands map[int][]string) *Countdown {
	return &Countdown{ctl: ctl, commands: commands, sleep: sleepCtx}
}

// Run counts down from the highest configured second to zero, sending each
// second's commands and sleeping one second between seconds, then restarts
// the server. It fails without restarting when the server is not running or
// ctx ends during the countdown.
func (c *Countdown) Run(ctx context.Context) error {
	if !c.ctl.IsRunning() {
		return fmt.Errorf("scheduled restart: %w", process.ErrNotRunning)
	}

	keys := make([]int, 0, len(c.commands))
	for k := range c.commands {
		if k >= 0 {
			keys = append(keys, k)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(keys)))

	if len(keys) > 0 {
		logging.Ctx(ctx).Info().Int("seconds", keys[0]).Msg("Scheduled restart countdown started")
		for second := keys[0]; second >= 0; second-- {
			for _, cmd := range c.commands[second] {
				if err := c.ctl.SubmitCommand(cmd); err != nil {
					logging.Ctx(ctx).Warn().Err(err).Str("command", cmd).Msg("Countdown command failed")
				}
			}
			if second == 0 {
				break
			}
			if err := c.sleep(ctx, time.Second); err != nil {
				return err
			}
		}
	}

	c.ctl.Restart(ctx)
	return nil
}
