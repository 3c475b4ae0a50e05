// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package process

import (
	"context"
	"sync"
	"time"

	gopsprocess "github.com/shirou/gopsutil/v4/process"

	"github.com/tomtom215/serverpilot/internal/logging"
	"github.com/tomtom215/serverpilot/internal/metrics"
)

// Stats is one resource sample of the managed process.
type Stats struct {
	PID        int       `json:"pid"`
	CPUPercent float64   `json:"cpu_percent"`
	RSSBytes   uint64    `json:"rss_bytes"`
	Threads    int32     `json:"threads"`
	SampledAt  time.Time `json:"sampled_at"`
}

// StatsSampler periodically samples CPU and memory of the managed process.
// It implements suture.Service.
type StatsSampler struct {
	sup      *Supervisor
	interval time.Duration

	mu     sync.RWMutex
	latest Stats
	proc   *gopsprocess.Process
}

// NewStatsSampler creates a sampler; interval defaults to 15s.
func NewStatsSampler(sup *Supervisor, interval time.Duration) *StatsSampler {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &StatsSampler{sup: sup, interval: interval}
}

// Serve samples until ctx is canceled.
func (s *StatsSampler) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sample(ctx)
		}
	}
}

func (s *StatsSampler) sample(ctx context.Context) {
	pid := s.sup.PID()
	if pid == 0 {
		s.mu.Lock()
		s.latest = Stats{}
		s.proc = nil
		s.mu.Unlock()
		metrics.RecordProcessStats(0, 0)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Reuse the handle so CPUPercent measures the interval since the last call.
	if s.proc == nil || s.proc.Pid != int32(pid) { //nolint:gosec // pids fit in int32
		p, err := gopsprocess.NewProcessWithContext(ctx, int32(pid)) //nolint:gosec // pids fit in int32
		if err != nil {
			logging.Debug().Err(err).Int("pid", pid).Msg("Failed to inspect server process")
			return
		}
		s.proc = p
	}

	cpu, err := s.proc.PercentWithContext(ctx, 0)
	if err != nil {
		logging.Debug().Err(err).Msg("Failed to sample server CPU")
	}
	var rss uint64
	if mem, err := s.proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		rss = mem.RSS
	}
	threads, _ := s.proc.NumThreadsWithContext(ctx) //nolint:errcheck // optional

	s.latest = Stats{
		PID:        pid,
		CPUPercent: cpu,
		RSSBytes:   rss,
		Threads:    threads,
		SampledAt:  time.Now(),
	}
	metrics.RecordProcessStats(cpu, rss)
}

// Latest returns the most recent sample; zero when the server is down.
func (s *StatsSampler) Latest() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// String implements fmt.Stringer for supervisor logging.
func (s *StatsSampler) String() string {
	return "stats-sampler"
}
