// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package updater

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractArchive_TarGz(t *testing.T) {
	src := filepath.Join(t.TempDir(), "jdk.tar.gz")
	if err := os.WriteFile(src, tarGz(t, map[string]string{
		"jdk-21.0.4+7/bin/java":    "#!/bin/sh",
		"jdk-21.0.4+7/release":     "JAVA_VERSION=21",
		"./jdk-21.0.4+7/lib/x.txt": "x",
	}), 0o600); err != nil {
		t.Fatal(err)
	}
	dest := t.TempDir()

	roots, err := extractArchive(src, dest)
	if err != nil {
		t.Fatalf("extractArchive: %v", err)
	}
	if len(roots) != 1 || roots[0] != "jdk-21.0.4+7" {
		t.Errorf("roots = %v", roots)
	}
	if got := readFile(t, filepath.Join(dest, "jdk-21.0.4+7", "release")); got != "JAVA_VERSION=21" {
		t.Errorf("release = %q", got)
	}
}

func TestExtractArchive_Zip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "jdk.zip")
	writeJar(t, src, map[string]string{"jdk-21/bin/java.exe": "MZ"})
	dest := t.TempDir()

	if _, err := extractArchive(src, dest); err != nil {
		t.Fatalf("extractArchive: %v", err)
	}
	if got := readFile(t, filepath.Join(dest, "jdk-21", "bin", "java.exe")); got != "MZ" {
		t.Errorf("java.exe = %q", got)
	}
}

func TestExtractArchive_RejectsTraversal(t *testing.T) {
	src := filepath.Join(t.TempDir(), "evil.tar.gz")
	if err := os.WriteFile(src, tarGz(t, map[string]string{"../../escape.txt": "x"}), 0o600); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(t.TempDir(), "a", "b")

	if _, err := extractArchive(src, dest); err == nil {
		t.Fatal("expected traversal error")
	}
	if _, err := os.Stat(filepath.Join(dest, "..", "..", "escape.txt")); !os.IsNotExist(err) {
		t.Errorf("escape.txt was written: %v", err)
	}
}

func TestExtractArchive_UnsupportedFormat(t *testing.T) {
	if _, err := extractArchive("jdk.rar", t.TempDir()); err == nil {
		t.Fatal("expected error")
	}
}
