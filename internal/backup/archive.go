// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/serverpilot/internal/logging"
)

// archiveWriters holds the writers needed for creating backup archives
type archiveWriters struct {
	tarWriter *tar.Writer
	closers   []io.Closer
}

// Close closes all writers in reverse order, returning the first error encountered
func (aw *archiveWriters) Close() error {
	var firstErr error
	for i := len(aw.closers) - 1; i >= 0; i-- {
		if err := aw.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// setupArchiveWriters creates the file, gzip and tar writers.
//
//nolint:gosec // G304: filePath is inside the agent's backups directory
func (m *Manager) setupArchiveWriters(filePath string) (*archiveWriters, error) {
	outFile, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to create backup file: %w", err)
	}

	gzWriter, err := gzip.NewWriterLevel(outFile, m.level)
	if err != nil {
		outFile.Close() //nolint:errcheck // Best effort cleanup on error
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}

	tw := tar.NewWriter(gzWriter)
	return &archiveWriters{
		tarWriter: tw,
		closers:   []io.Closer{outFile, gzWriter, tw},
	}, nil
}

// Progress is called after every archived file.
type Progress func(done, total int)

// Create archives the working directory. A partial archive is removed on
// error or cancellation.
func (m *Manager) Create(ctx context.Context, progress Progress) (*Backup, error) {
	start := m.now()

	files, err := m.collectFiles()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(m.backupsDir, 0o750); err != nil {
		return nil, fmt.Errorf("create backups directory: %w", err)
	}

	id := uuid.NewString()[:8]
	backup := &Backup{
		ID:        id,
		FileName:  fileName(start, id),
		SourceDir: m.sourceDir,
		CreatedAt: start,
	}
	backup.FilePath = filepath.Join(m.backupsDir, backup.FileName)

	if err := m.createBackupArchive(ctx, backup, files, progress); err != nil {
		_ = os.Remove(backup.FilePath) //nolint:errcheck // best effort cleanup of the partial archive
		return nil, err
	}

	if info, err := os.Stat(backup.FilePath); err == nil {
		backup.SizeBytes = info.Size()
	}
	logging.Ctx(ctx).Info().
		Str("backup_id", backup.ID).
		Str("file", backup.FileName).
		Int("files", backup.FileCount).
		Int64("size_bytes", backup.SizeBytes).
		Dur("took", backup.Duration).
		Msg("Backup created")
	return backup, nil
}

// collectFiles walks the source directory and returns the regular files to
// archive as slash-separated relative paths.
func (m *Manager) collectFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(m.sourceDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, ok := relativeTo(m.sourceDir, p)
		if !ok {
			return nil
		}
		if m.excluded(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", m.sourceDir, err)
	}
	return files, nil
}

// createBackupArchive writes every file followed by the metadata entry.
func (m *Manager) createBackupArchive(ctx context.Context, backup *Backup, files []string, progress Progress) (err error) {
	aw, err := m.setupArchiveWriters(backup.FilePath)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := aw.Close()
		if err == nil {
			err = closeErr
		}
	}()

	for i, rel := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := addFileToArchive(aw.tarWriter, filepath.Join(m.sourceDir, filepath.FromSlash(rel)), rel, backup); err != nil {
			return err
		}
		if progress != nil {
			progress(i+1, len(files))
		}
	}

	backup.CompletedAt = m.now()
	backup.Duration = backup.CompletedAt.Sub(backup.CreatedAt)
	return addMetadataToArchive(aw.tarWriter, backup)
}

// addMetadataToArchive adds backup metadata to the archive
func addMetadataToArchive(tw *tar.Writer, backup *Backup) error {
	metadataJSON, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup metadata: %w", err)
	}

	header := &tar.Header{
		Name:    MetadataFileName,
		Size:    int64(len(metadataJSON)),
		Mode:    0o640,
		ModTime: time.Now(),
	}

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write metadata header: %w", err)
	}

	if _, err := tw.Write(metadataJSON); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// addFileToArchive adds a file to the tar archive and records its checksum.
// Files still being written by the server are archived at the size they had
// when the header was written.
//
//nolint:gosec // G304: srcPath comes from walking the working directory
func addFileToArchive(tw *tar.Writer, srcPath, destPath string, backup *Backup) error {
	file, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", srcPath, err)
	}
	defer file.Close() //nolint:errcheck // Best effort cleanup

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", srcPath, err)
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("failed to create tar header for %s: %w", srcPath, err)
	}
	header.Name = destPath

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", srcPath, err)
	}

	// Calculate checksum while copying
	hasher := sha256.New()
	multiWriter := io.MultiWriter(tw, hasher)
	if _, err := io.Copy(multiWriter, io.LimitReader(file, info.Size())); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", srcPath, err)
	}

	backup.Files = append(backup.Files, BackupFile{
		Path:     destPath,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	})
	backup.FileCount++
	backup.TotalBytes += info.Size()
	return nil
}
