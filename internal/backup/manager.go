// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package backup

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tomtom215/serverpilot/internal/config"
)

// fileTimeFormat is embedded in archive names and sorts chronologically.
const fileTimeFormat = "2006-01-02_15-04-05"

// Manager creates and prunes backups of one working directory.
type Manager struct {
	enabled    bool
	sourceDir  string
	backupsDir string
	level      int
	retention  RetentionPolicy

	// excludes are doublestar patterns relative to sourceDir.
	excludes []string

	now func() time.Time
}

// NewManager creates a manager from the agent configuration. Invalid exclude
// patterns are rejected here rather than during the backup.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		enabled:    cfg.Backup.Enabled,
		sourceDir:  cfg.Server.WorkDir,
		backupsDir: cfg.BackupsDir(),
		level:      cfg.Backup.CompressionLevel,
		retention:  RetentionPolicy{MaxAgeDays: cfg.Backup.MaxDays, MaxCount: cfg.Backup.MaxCount},
		now:        time.Now,
	}

	for _, dir := range []string{cfg.BackupsDir(), cfg.DownloadsDir(), cfg.StateDir()} {
		if rel, ok := relativeTo(m.sourceDir, dir); ok {
			m.excludes = append(m.excludes, rel, rel+"/**")
		}
	}
	for _, raw := range cfg.Backup.Exclude {
		p := filepath.ToSlash(strings.TrimPrefix(raw, "./"))
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid backup exclude pattern %q", raw)
		}
		m.excludes = append(m.excludes, p)
	}
	return m, nil
}

// BackupsDir returns the directory holding the archives.
func (m *Manager) BackupsDir() string { return m.backupsDir }

// excluded reports whether the slash-separated relative path is excluded.
func (m *Manager) excluded(rel string) bool {
	base := path.Base(rel)
	for _, p := range m.excludes {
		if matchPattern(p, rel) {
			return true
		}
		if !strings.Contains(p, "/") && matchPattern(p, base) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, key string) bool {
	matched, err := doublestar.Match(pattern, key)
	if err != nil {
		// Patterns were validated in NewManager.
		return false
	}
	return matched
}

// List returns the archives in the backups directory, newest first. The
// creation time comes from the file name, falling back to the mod time.
func (m *Manager) List() ([]*Backup, error) {
	entries, err := os.ReadDir(m.backupsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups directory: %w", err)
	}

	var backups []*Backup
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "backup-") || !strings.HasSuffix(name, ".tar.gz") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		b := &Backup{
			FileName:  name,
			FilePath:  filepath.Join(m.backupsDir, name),
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime(),
		}
		b.ID, b.CreatedAt = parseFileName(name, info.ModTime())
		backups = append(backups, b)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// fileName is backup-{timestamp}-{id}.tar.gz.
func fileName(created time.Time, id string) string {
	return fmt.Sprintf("backup-%s-%s.tar.gz", created.UTC().Format(fileTimeFormat), id)
}

func parseFileName(name string, fallback time.Time) (id string, created time.Time) {
	core := strings.TrimSuffix(strings.TrimPrefix(name, "backup-"), ".tar.gz")
	if len(core) < len(fileTimeFormat) {
		return core, fallback
	}
	t, err := time.Parse(fileTimeFormat, core[:len(fileTimeFormat)])
	if err != nil {
		return core, fallback
	}
	return strings.TrimPrefix(core[len(fileTimeFormat):], "-"), t
}

// relativeTo returns target relative to base in slash form when target is
// inside base.
func relativeTo(base, target string) (string, bool) {
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
