// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package process

import "sync"

// OutputTail keeps the most recent server output lines. Its Add method is a
// Listener.
type OutputTail struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

// NewOutputTail creates a tail holding up to size lines.
func NewOutputTail(size int) *OutputTail {
	if size < 1 {
		size = 1
	}
	return &OutputTail{lines: make([]string, size)}
}

// Add records a line, evicting the oldest when full.
func (t *OutputTail) Add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines[t.next] = line
	t.next = (t.next + 1) % len(t.lines)
	if t.next == 0 {
		t.full = true
	}
}

// Lines returns up to n of the most recent lines, oldest first.
// n <= 0 returns everything held.
func (t *OutputTail) Lines(n int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := t.next
	if t.full {
		count = len(t.lines)
	}
	if n <= 0 || n > count {
		n = count
	}

	out := make([]string, 0, n)
	start := (t.next - n + len(t.lines)) % len(t.lines)
	for i := 0; i < n; i++ {
		out = append(out, t.lines[(start+i)%len(t.lines)])
	}
	return out
}
