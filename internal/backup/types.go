// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package backup

import "time"

// MetadataFileName is the last entry of every archive.
const MetadataFileName = "backup-metadata.json"

// Backup describes one archive.
type Backup struct {
	ID          string        `json:"id"`
	FileName    string        `json:"file_name"`
	FilePath    string        `json:"-"`
	SourceDir   string        `json:"source_dir"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`
	// SizeBytes is the archive size; TotalBytes the uncompressed file total.
	SizeBytes  int64 `json:"size_bytes"`
	TotalBytes int64 `json:"total_bytes"`
	FileCount  int   `json:"file_count"`

	Files []BackupFile `json:"files"`
}

// BackupFile is one archived file.
type BackupFile struct {
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
	Checksum string    `json:"checksum"`
}

// RetentionPolicy controls which backups are deleted after a new one.
type RetentionPolicy struct {
	MaxAgeDays int
	MaxCount   int
}
