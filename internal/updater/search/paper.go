// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SourcePaper labels PaperMC results.
const SourcePaper = "paper"

type paperProject struct {
	Versions []string `json:"versions"`
}

type paperBuilds struct {
	Builds []struct {
		Build     int `json:"build"`
		Downloads struct {
			Application struct {
				Name   string `json:"name"`
				SHA256 string `json:"sha256"`
			} `json:"application"`
		} `json:"downloads"`
	} `json:"builds"`
}

// PaperSearcher queries the PaperMC downloads API.
type PaperSearcher struct {
	client  JSONGetter
	base    string
	project string
}

// NewPaperSearcher creates a searcher for project (usually "paper").
func NewPaperSearcher(client JSONGetter, baseURL, project string) *PaperSearcher {
	if project == "" {
		project = "paper"
	}
	return &PaperSearcher{client: client, base: strings.TrimSuffix(baseURL, "/") + "/v2", project: project}
}

// Search resolves the newest build for mcVersion, or for the newest game
// version when mcVersion is empty. Builds are compared by number.
func (s *PaperSearcher) Search(ctx context.Context, mcVersion string, knownBuildID int) Result {
	start := time.Now()

	if mcVersion == "" {
		var project paperProject
		if err := s.client.GetJSON(ctx, fmt.Sprintf("%s/projects/%s", s.base, s.project), &project); err != nil {
			return observe(SourcePaper, start, apiError(SourcePaper, err))
		}
		if len(project.Versions) == 0 {
			return observe(SourcePaper, start, apiError(SourcePaper, fmt.Errorf("project %s lists no versions", s.project)))
		}
		mcVersion = project.Versions[len(project.Versions)-1]
	}

	var builds paperBuilds
	u := fmt.Sprintf("%s/projects/%s/versions/%s/builds", s.base, s.project, mcVersion)
	if err := s.client.GetJSON(ctx, u, &builds); err != nil {
		if isNotFound(err) {
			return observe(SourcePaper, start, Result{Source: SourcePaper, Classification: NotFound})
		}
		return observe(SourcePaper, start, apiError(SourcePaper, err))
	}
	if len(builds.Builds) == 0 {
		return observe(SourcePaper, start, Result{Source: SourcePaper, Classification: NotFound})
	}

	latest := builds.Builds[len(builds.Builds)-1]
	name := latest.Downloads.Application.Name
	res := Result{
		Source:         SourcePaper,
		Classification: UpToDate,
		Latest:         mcVersion + "-" + strconv.Itoa(latest.Build),
		BuildID:        latest.Build,
		FileName:       name,
		DownloadType:   ".jar",
		DownloadURL:    fmt.Sprintf("%s/projects/%s/versions/%s/builds/%d/downloads/%s", s.base, s.project, mcVersion, latest.Build, name),
	}
	if latest.Build > knownBuildID {
		res.Classification = UpdateAvailable
	}
	return observe(SourcePaper, start, res)
}
