// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewCycleID(t *testing.T) {
	t.Parallel()

	a, b := NewCycleID(), NewCycleID()
	if a == "" || a == b {
		t.Errorf("expected unique non-empty cycle ids, got %q and %q", a, b)
	}
}

func TestCycleIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := ContextWithCycleID(context.Background(), "cycle-1")
	if got := CycleIDFromContext(ctx); got != "cycle-1" {
		t.Errorf("CycleIDFromContext() = %q, want cycle-1", got)
	}
	if got := CycleIDFromContext(context.Background()); got != "" {
		t.Errorf("CycleIDFromContext(empty) = %q, want empty", got)
	}
}

func TestCtxAddsCycleID(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	t.Cleanup(func() { Init(DefaultConfig()) })

	ctx := ContextWithCycleID(context.Background(), "abc")
	Ctx(ctx).Info().Msg("in cycle")
	if !strings.Contains(buf.String(), `"cycle_id":"abc"`) {
		t.Errorf("expected cycle_id in output: %s", buf.String())
	}

	buf.Reset()
	Ctx(context.Background()).Info().Msg("no cycle")
	if strings.Contains(buf.String(), "cycle_id") {
		t.Errorf("unexpected cycle_id in output: %s", buf.String())
	}
}
