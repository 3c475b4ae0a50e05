// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package updater

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxExtractedFileSize bounds a single extracted file (1 GB).
const maxExtractedFileSize = 1 << 30

// extractArchive unpacks a .tar.gz or .zip file into dest and returns the
// top-level entry names it created.
func extractArchive(src, dest string) ([]string, error) {
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return nil, fmt.Errorf("create %s: %w", dest, err)
	}
	switch {
	case strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"):
		return extractTarGz(src, dest)
	case strings.HasSuffix(src, ".zip"):
		return extractZip(src, dest)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", filepath.Base(src))
	}
}

func extractTarGz(src, dest string) ([]string, error) {
	f, err := os.Open(src) //nolint:gosec // path is a file we downloaded ourselves
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close() //nolint:errcheck // read-only

	roots := newRootSet()
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return roots.names, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read archive: %w", err)
		}

		target, err := safeJoin(dest, header.Name)
		if err != nil {
			return nil, err
		}
		roots.add(header.Name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o750); err != nil {
				return nil, err
			}
		case tar.TypeReg:
			if err := writeFile(tr, target, header.Size, os.FileMode(header.Mode).Perm()); err != nil { //nolint:gosec // mode comes from a bounded tar header
				return nil, err
			}
		case tar.TypeSymlink:
			if _, err := safeJoin(filepath.Dir(target), header.Linkname); err != nil {
				return nil, err
			}
			_ = os.Remove(target) //nolint:errcheck // replaced below
			if err := os.Symlink(header.Linkname, target); err != nil {
				return nil, err
			}
		}
	}
}

func extractZip(src, dest string) ([]string, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return nil, err
	}
	defer zr.Close() //nolint:errcheck // read-only

	roots := newRootSet()
	for _, f := range zr.File {
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return nil, err
		}
		roots.add(f.Name)

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o750); err != nil {
				return nil, err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		err = writeFile(rc, target, int64(f.UncompressedSize64), f.Mode().Perm()) //nolint:gosec // bounded by maxExtractedFileSize
		_ = rc.Close()                                                          //nolint:errcheck // read-only
		if err != nil {
			return nil, err
		}
	}
	return roots.names, nil
}

// safeJoin joins name onto dir and rejects entries escaping dir.
func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, name)
	if target != filepath.Clean(dir) && !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid file path in archive: %s", name)
	}
	return target, nil
}

func writeFile(r io.Reader, target string, size int64, mode os.FileMode) error {
	if size > maxExtractedFileSize {
		return fmt.Errorf("file too large for extraction: %d bytes (max %d)", size, maxExtractedFileSize)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}
	if mode == 0 {
		mode = 0o640
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode) //nolint:gosec // target validated by safeJoin
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, io.LimitReader(r, maxExtractedFileSize)); err != nil {
		_ = out.Close() //nolint:errcheck // returning the copy error
		return err
	}
	return out.Close()
}

// rootSet collects the distinct first path elements of archive entries.
type rootSet struct {
	seen  map[string]bool
	names []string
}

func newRootSet() *rootSet { return &rootSet{seen: map[string]bool{}} }

func (r *rootSet) add(name string) {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	root, _, _ := strings.Cut(name, "/")
	if root == "" || r.seen[root] {
		return
	}
	r.seen[root] = true
	r.names = append(r.names, root)
}
