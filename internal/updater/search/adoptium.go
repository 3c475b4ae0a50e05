// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package search

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// SourceAdoptium labels Eclipse Temurin results.
const SourceAdoptium = "adoptium"

type adoptiumAsset struct {
	Binary struct {
		Package struct {
			Link     string `json:"link"`
			Name     string `json:"name"`
			Checksum string `json:"checksum"`
		} `json:"package"`
	} `json:"binary"`
	ReleaseName string `json:"release_name"`
}

// AdoptiumSearcher queries the Adoptium API for the newest Temurin JDK.
type AdoptiumSearcher struct {
	client JSONGetter
	base   string
	os     string
	arch   string
}

// NewAdoptiumSearcher creates a searcher for the running platform.
func NewAdoptiumSearcher(client JSONGetter, baseURL string) *AdoptiumSearcher {
	return &AdoptiumSearcher{
		client: client,
		base:   strings.TrimSuffix(baseURL, "/") + "/v3",
		os:     adoptiumOS(runtime.GOOS),
		arch:   adoptiumArch(runtime.GOARCH),
	}
}

// Search resolves the newest release of featureVersion. Releases are compared
// by their release name (for example "jdk-21.0.4+7").
func (s *AdoptiumSearcher) Search(ctx context.Context, featureVersion int, installedRelease string) Result {
	start := time.Now()

	u := fmt.Sprintf("%s/assets/latest/%d/hotspot?os=%s&architecture=%s&image_type=jdk&vendor=eclipse",
		s.base, featureVersion, s.os, s.arch)
	var assets []adoptiumAsset
	if err := s.client.GetJSON(ctx, u, &assets); err != nil {
		return observe(SourceAdoptium, start, apiError(SourceAdoptium, err))
	}
	if len(assets) == 0 {
		return observe(SourceAdoptium, start, Result{Source: SourceAdoptium, Classification: NotFound})
	}

	a := assets[0]
	res := Result{
		Source:         SourceAdoptium,
		Classification: UpToDate,
		Latest:         a.ReleaseName,
		DownloadURL:    a.Binary.Package.Link,
		FileName:       a.Binary.Package.Name,
		DownloadType:   archiveExt(a.Binary.Package.Name),
	}
	if a.ReleaseName != installedRelease {
		res.Classification = UpdateAvailable
	}
	return observe(SourceAdoptium, start, res)
}

func archiveExt(name string) string {
	if strings.HasSuffix(name, ".tar.gz") {
		return ".tar.gz"
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}

func adoptiumOS(goos string) string {
	if goos == "darwin" {
		return "mac"
	}
	return goos
}

func adoptiumArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x64"
	case "arm64":
		return "aarch64"
	case "386":
		return "x32"
	default:
		return goarch
	}
}
