// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package search

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// SourceModrinth labels Modrinth results.
const SourceModrinth = "modrinth"

type modrinthVersion struct {
	VersionNumber string `json:"version_number"`
	Files         []struct {
		URL      string `json:"url"`
		Filename string `json:"filename"`
		Primary  bool   `json:"primary"`
	} `json:"files"`
}

// ModrinthSearcher queries the Modrinth v2 API.
type ModrinthSearcher struct {
	client      JSONGetter
	base        string
	loader      string
	gameVersion string
}

// NewModrinthSearcher creates a searcher filtering versions by loader and,
// when set, game version.
func NewModrinthSearcher(client JSONGetter, baseURL, loader, gameVersion string) *ModrinthSearcher {
	return &ModrinthSearcher{
		client:      client,
		base:        strings.TrimSuffix(baseURL, "/") + "/v2",
		loader:      loader,
		gameVersion: gameVersion,
	}
}

// ByProject resolves the newest compatible version of a project id or slug.
func (s *ModrinthSearcher) ByProject(ctx context.Context, idOrSlug, currentVersion string) Result {
	start := time.Now()

	q := url.Values{}
	if s.loader != "" {
		q.Set("loaders", jsonList(s.loader))
	}
	if s.gameVersion != "" {
		q.Set("game_versions", jsonList(s.gameVersion))
	}
	u := fmt.Sprintf("%s/project/%s/version", s.base, url.PathEscape(idOrSlug))
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var versions []modrinthVersion
	if err := s.client.GetJSON(ctx, u, &versions); err != nil {
		if isNotFound(err) {
			return observe(SourceModrinth, start, Result{Source: SourceModrinth, Classification: NotFound})
		}
		return observe(SourceModrinth, start, apiError(SourceModrinth, err))
	}
	if len(versions) == 0 || len(versions[0].Files) == 0 {
		return observe(SourceModrinth, start, Result{Source: SourceModrinth, Classification: NotFound})
	}

	latest := versions[0]
	file := latest.Files[0]
	for _, f := range latest.Files {
		if f.Primary {
			file = f
			break
		}
	}

	res := Result{
		Source:         SourceModrinth,
		Classification: Classify(currentVersion, latest.VersionNumber),
		Latest:         latest.VersionNumber,
		DownloadURL:    file.URL,
		DownloadType:   ".jar",
		FileName:       file.Filename,
	}
	if ext := path.Ext(file.Filename); ext != "" {
		res.DownloadType = ext
	}
	return observe(SourceModrinth, start, res)
}

func jsonList(v string) string {
	b, _ := json.Marshal([]string{v}) //nolint:errcheck // marshaling a string slice cannot fail
	return string(b)
}
