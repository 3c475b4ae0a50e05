// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const cycleIDKey contextKey = "cycle_id"

// NewCycleID returns a fresh identifier for one maintenance cycle.
func NewCycleID() string {
	return uuid.NewString()
}

// ContextWithCycleID returns a context carrying the maintenance cycle id.
func ContextWithCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleIDKey, id)
}

// CycleIDFromContext returns the cycle id stored in ctx, or "".
func CycleIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(cycleIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns the global logger enriched with the cycle id found in ctx.
//
//	logging.Ctx(ctx).Info().Str("job", name).Msg("Job finished")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	if ctx != nil {
		if id := CycleIDFromContext(ctx); id != "" {
			l = l.With().Str(string(cycleIDKey), id).Logger()
		}
	}
	return &l
}
