// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package backup

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
)

// maxMetadataSize bounds the metadata entry read by Verify.
const maxMetadataSize = 64 << 20

// ErrNoMetadata is returned for archives without a metadata entry.
var ErrNoMetadata = errors.New("archive has no " + MetadataFileName)

// openArchiveReader opens a gzipped tar archive.
//
//nolint:gosec // G304: filePath is a backup archive chosen by the operator
func openArchiveReader(filePath string) (*tar.Reader, []io.Closer, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open backup file: %w", err)
	}

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		file.Close() //nolint:errcheck // Best effort cleanup on error
		return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}

	return tar.NewReader(gzReader), []io.Closer{gzReader, file}, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close() //nolint:errcheck // Best effort cleanup
	}
}

// Verify re-reads an archive and checks every file against the checksums in
// its metadata. All mismatches are reported together.
func Verify(filePath string) (*Backup, error) {
	tr, closers, err := openArchiveReader(filePath)
	if err != nil {
		return nil, err
	}
	defer closeAll(closers)

	sums := make(map[string]string)
	var metadata *Backup
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read archive: %w", err)
		}

		if header.Name == MetadataFileName {
			data, err := io.ReadAll(io.LimitReader(tr, maxMetadataSize))
			if err != nil {
				return nil, fmt.Errorf("failed to read metadata: %w", err)
			}
			metadata = &Backup{}
			if err := json.Unmarshal(data, metadata); err != nil {
				return nil, fmt.Errorf("failed to parse metadata: %w", err)
			}
			continue
		}

		hasher := sha256.New()
		if _, err := io.Copy(hasher, tr); err != nil { //nolint:gosec // G110: entries are hashed, not extracted
			return nil, fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		sums[header.Name] = hex.EncodeToString(hasher.Sum(nil))
	}

	if metadata == nil {
		return nil, ErrNoMetadata
	}

	var result *multierror.Error
	for _, f := range metadata.Files {
		got, ok := sums[f.Path]
		switch {
		case !ok:
			result = multierror.Append(result, fmt.Errorf("%s: missing from archive", f.Path))
		case got != f.Checksum:
			result = multierror.Append(result, fmt.Errorf("%s: checksum mismatch", f.Path))
		}
	}
	return metadata, result.ErrorOrNil()
}
