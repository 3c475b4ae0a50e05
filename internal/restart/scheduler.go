// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package restart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/serverpilot/internal/logging"
	"github.com/tomtom215/serverpilot/internal/validation"
)

// Schedule groups. Rescheduling a group replaces all of its entries.
const (
	GroupDaily  = "daily"
	GroupCustom = "custom"
)

// Scheduler triggers restart countdowns on cron schedules. Overlapping
// triggers are skipped while a countdown or restart is still running.
type Scheduler struct {
	ctl  Controller
	cron *cron.Cron

	mu      sync.Mutex
	entries map[string][]cron.EntryID
	ctx     context.Context

	// newCountdown is replaced in tests.
	newCountdown func(ctl Controller, commands map[int][]string) *Countdown
}

// NewScheduler creates a scheduler in the local time zone. It fires nothing
// until Serve runs.
func NewScheduler(ctl Controller) *Scheduler {
	log := cronLogger{}
	return &Scheduler{
		ctl: ctl,
		cron: cron.New(
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		entries:      make(map[string][]cron.EntryID),
		ctx:          context.Background(),
		newCountdown: NewCountdown,
	}
}

// ScheduleDaily replaces the daily restarts with one per "HH:MM" time.
func (s *Scheduler) ScheduleDaily(times []string, commands map[int][]string) error {
	specs := make([]string, 0, len(times))
	for _, t := range times {
		parsed, err := time.Parse("15:04", strings.TrimSpace(t))
		if err != nil {
			return fmt.Errorf("invalid restart time %q: %w", t, err)
		}
		specs = append(specs, fmt.Sprintf("%d %d * * *", parsed.Minute(), parsed.Hour()))
	}
	return s.schedule(GroupDaily, specs, commands)
}

// ScheduleCustom replaces the custom restarts with one per cron expression.
func (s *Scheduler) ScheduleCustom(specs []string, commands map[int][]string) error {
	return s.schedule(GroupCustom, specs, commands)
}

// Clear removes every entry of group.
func (s *Scheduler) Clear(group string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(group)
}

func (s *Scheduler) clearLocked(group string) {
	for _, id := range s.entries[group] {
		s.cron.Remove(id)
	}
	delete(s.entries, group)
}

func (s *Scheduler) schedule(group string, specs []string, commands map[int][]string) error {
	schedules := make([]cron.Schedule, 0, len(specs))
	for _, spec := range specs {
		sched, err := validation.ParseCron(spec)
		if err != nil {
			return fmt.Errorf("invalid restart schedule %q: %w", spec, err)
		}
		schedules = append(schedules, sched)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(group)
	for i, sched := range schedules {
		spec := specs[i]
		id := s.cron.Schedule(sched, cron.FuncJob(func() { s.trigger(group, spec, commands) }))
		s.entries[group] = append(s.entries[group], id)
	}
	return nil
}

func (s *Scheduler) trigger(group, spec string, commands map[int][]string) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	logging.Info().Str("schedule", group).Str("spec", spec).Msg("Scheduled restart triggered")
	if err := s.newCountdown(s.ctl, commands).Run(ctx); err != nil {
		logging.Warn().Err(err).Str("schedule", group).Msg("Scheduled restart not executed")
	}
}

// Next returns the next trigger time of group, or the zero time.
func (s *Scheduler) Next(group string) time.Time {
	s.mu.Lock()
	ids := append([]cron.EntryID(nil), s.entries[group]...)
	s.mu.Unlock()

	var next time.Time
	for _, id := range ids {
		e := s.cron.Entry(id)
		n := e.Next
		if n.IsZero() && e.Schedule != nil {
			n = e.Schedule.Next(time.Now())
		}
		if !n.IsZero() && (next.IsZero() || n.Before(next)) {
			next = n
		}
	}
	return next
}

// Serve implements suture.Service. It runs the cron loop until ctx is done
// and waits for a running countdown to return.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return ctx.Err()
}

// String implements fmt.Stringer for suture logging.
func (s *Scheduler) String() string { return "restart-scheduler" }

// cronLogger routes cron's logr-style logging through zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	withFields(logging.Debug(), keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	withFields(logging.Error().Err(err), keysAndValues).Msg("cron: " + msg)
}

func withFields(ev *zerolog.Event, keysAndValues []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		ev = ev.Interface(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1])
	}
	return ev
}
