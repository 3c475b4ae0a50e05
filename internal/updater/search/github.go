// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package search

import (
	"context"
	"fmt"
	"path"
	"runtime"
	"strings"
	"time"
)

// SourceGitHub labels GitHub release results.
const SourceGitHub = "github"

type githubRelease struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// GitHubSearcher resolves the latest release of a repository.
type GitHubSearcher struct {
	client JSONGetter
	base   string
}

// NewGitHubSearcher creates a searcher against baseURL (https://api.github.com).
func NewGitHubSearcher(client JSONGetter, baseURL string) *GitHubSearcher {
	return &GitHubSearcher{client: client, base: strings.TrimSuffix(baseURL, "/")}
}

// LatestRelease compares the latest release tag of repo ("owner/name") with
// currentVersion and picks the asset containing assetPattern. {os} and
// {arch} in the pattern are replaced with the running platform.
func (s *GitHubSearcher) LatestRelease(ctx context.Context, repo, assetPattern, currentVersion string) Result {
	start := time.Now()

	var rel githubRelease
	if err := s.client.GetJSON(ctx, fmt.Sprintf("%s/repos/%s/releases/latest", s.base, repo), &rel); err != nil {
		if isNotFound(err) {
			return observe(SourceGitHub, start, Result{Source: SourceGitHub, Classification: NotFound})
		}
		return observe(SourceGitHub, start, apiError(SourceGitHub, err))
	}

	res := Result{
		Source:         SourceGitHub,
		Classification: Classify(currentVersion, rel.TagName),
		Latest:         strings.TrimPrefix(rel.TagName, "v"),
	}

	pattern := strings.NewReplacer("{os}", runtime.GOOS, "{arch}", runtime.GOARCH).Replace(assetPattern)
	for _, a := range rel.Assets {
		if strings.Contains(a.Name, pattern) {
			res.DownloadURL = a.BrowserDownloadURL
			res.FileName = a.Name
			res.DownloadType = path.Ext(a.Name)
			return observe(SourceGitHub, start, res)
		}
	}

	res.Classification = APIError
	res.Err = fmt.Errorf("release %s has no asset containing '%s'", rel.TagName, pattern)
	return observe(SourceGitHub, start, res)
}
