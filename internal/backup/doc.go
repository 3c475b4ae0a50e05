// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

// Package backup archives the server working directory before every startup.
//
// # Overview
//
// The BackupTask job writes one tar.gz archive per cycle into
// serverpilot/backups and then applies the retention policy:
//
//	backup-{timestamp}-{id}.tar.gz
//	├── world/...             (every file of the working directory)
//	├── plugins/...
//	└── backup-metadata.json  (backup details and per-file SHA-256 checksums)
//
// The agent's own backups, downloads and state directories are never
// archived. Additional exclude patterns use doublestar syntax and are matched
// against slash-separated paths relative to the working directory:
//
//	backup:
//	  exclude: ["*.log", "cache/**", "world/region/r.-*.mca"]
//
// Patterns without a slash also match the base name of every file, so
// "*.log" excludes logs/latest.log.
//
// # Retention Policy
//
//	MaxAgeDays - Delete backups older than this (0 keeps forever)
//	MaxCount   - Keep at most this many backups (0 is unlimited)
//
// The newest backup is never deleted by retention.
//
// # Verification
//
// Verify re-reads an archive and compares every file against the checksums
// recorded in its metadata entry.
package backup
