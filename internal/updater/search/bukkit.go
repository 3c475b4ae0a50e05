// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package search

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

// SourceBukkit labels BukkitDev results.
const SourceBukkit = "bukkit"

type bukkitFile struct {
	Name        string `json:"name"`
	FileName    string `json:"fileName"`
	DownloadURL string `json:"downloadUrl"`
	ReleaseType string `json:"releaseType"`
}

// BukkitSearcher queries the BukkitDev servermods API.
type BukkitSearcher struct {
	client JSONGetter
	base   string
}

// NewBukkitSearcher creates a searcher against baseURL (https://api.curseforge.com).
func NewBukkitSearcher(client JSONGetter, baseURL string) *BukkitSearcher {
	return &BukkitSearcher{client: client, base: strings.TrimSuffix(baseURL, "/")}
}

// ByID resolves the newest file of a BukkitDev project. Files are listed
// oldest first; the version is taken from the file's display name.
func (s *BukkitSearcher) ByID(ctx context.Context, id int, currentVersion string) Result {
	start := time.Now()

	var files []bukkitFile
	if err := s.client.GetJSON(ctx, fmt.Sprintf("%s/servermods/files?projectIds=%d", s.base, id), &files); err != nil {
		if isNotFound(err) {
			return observe(SourceBukkit, start, Result{Source: SourceBukkit, Classification: NotFound, BukkitID: id})
		}
		return observe(SourceBukkit, start, apiError(SourceBukkit, err))
	}
	if len(files) == 0 {
		return observe(SourceBukkit, start, Result{Source: SourceBukkit, Classification: NotFound, BukkitID: id})
	}

	latest := files[len(files)-1]
	res := Result{
		Source:         SourceBukkit,
		Latest:         NormalizeVersion(latest.Name),
		DownloadURL:    latest.DownloadURL,
		DownloadType:   ".jar",
		FileName:       latest.FileName,
		BukkitID:       id,
		Classification: Classify(currentVersion, latest.Name),
	}
	if ext := path.Ext(latest.FileName); ext != "" {
		res.DownloadType = ext
	}
	return observe(SourceBukkit, start, res)
}
