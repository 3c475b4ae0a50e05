// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

// Package logging provides centralized zerolog-based structured logging for ServerPilot.
//
// # Overview
//
// The package provides:
//   - A global zerolog logger configured once from main via Init
//   - Console output for operators watching the agent, JSON for log shippers
//   - An optional rotated JSON log file (lumberjack) under serverpilot/logs
//   - Cycle-aware logging: every line of one maintenance cycle carries its id
//   - An slog adapter so suture's event hook logs through zerolog
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "console",
//	    File:   logging.FileConfig{Enabled: true, Path: "serverpilot/logs/latest.log"},
//	})
//	defer logging.Close()
//
//	logging.Info().Str("job", "BackupTask").Msg("Backup created")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Plugin update failed")
//
// # Configuration
//
// The logging section of the agent configuration maps one-to-one onto Config:
//
//	logging:
//	  level: info        # trace, debug, info, warn, error
//	  format: console    # console or json
//	  caller: false
//	  file:
//	    enabled: true
//	    max_size_mb: 20
//	    max_backups: 5
//	    max_age_days: 14
//	    compress: true
//
// Always terminate log chains with .Msg() or .Send(); an unterminated chain
// emits nothing.
package logging
