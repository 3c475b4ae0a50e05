// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package jobs

import (
	"context"
	"sync"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/serverpilot/internal/logging"
)

// History keeps the most recent job events for the status API. It
// subscribes on creation so no event published after NewHistory is missed.
type History struct {
	events <-chan Event
	err    error

	mu     sync.RWMutex
	size   int
	recent []Event
}

// NewHistory subscribes to bus and keeps up to size events.
func NewHistory(bus *EventBus, size int) *History {
	if size <= 0 {
		size = 1
	}
	h := &History{size: size}
	h.events, h.err = bus.Subscribe(context.Background())
	return h
}

// Serve implements suture.Service. It ends for good once the bus closes.
func (h *History) Serve(ctx context.Context) error {
	if h.err != nil {
		logging.Warn().Err(h.err).Msg("Job history disabled")
		return suture.ErrDoNotRestart
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-h.events:
			if !ok {
				return suture.ErrDoNotRestart
			}
			h.add(ev)
		}
	}
}

func (h *History) add(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.recent) == h.size {
		copy(h.recent, h.recent[1:])
		h.recent = h.recent[:h.size-1]
	}
	h.recent = append(h.recent, ev)
}

// Recent returns up to n events, newest first.
func (h *History) Recent(n int) []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n > len(h.recent) {
		n = len(h.recent)
	}
	out := make([]Event, 0, n)
	for i := len(h.recent) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.recent[i])
	}
	return out
}

// String implements fmt.Stringer for suture logging.
func (h *History) String() string { return "job-history" }
