// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package search

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SourceJenkins labels Jenkins results.
const SourceJenkins = "jenkins"

type jenkinsProject struct {
	LastSuccessfulBuild *struct {
		Number int    `json:"number"`
		URL    string `json:"url"`
	} `json:"lastSuccessfulBuild"`
}

type jenkinsBuild struct {
	Artifacts []jenkinsArtifact `json:"artifacts"`
}

// jenkinsArtifact is one file attached to a build.
type jenkinsArtifact struct {
	FileName     string `json:"fileName"`
	RelativePath string `json:"relativePath"`
}

// JenkinsSearcher checks a Jenkins-style CI project for new successful builds.
type JenkinsSearcher struct {
	client JSONGetter
}

// NewJenkinsSearcher creates a searcher using client.
func NewJenkinsSearcher(client JSONGetter) *JenkinsSearcher {
	return &JenkinsSearcher{client: client}
}

// Search fetches the latest successful build of projectURL and picks the
// artifact whose file name contains artifactName, shortest name first.
// The build id is UpdateAvailable iff it is greater than knownBuildID.
//
// On failure the Result is APIError and still carries the build id and file
// name found so far.
func (s *JenkinsSearcher) Search(ctx context.Context, projectURL, artifactName string, knownBuildID int) Result {
	start := time.Now()
	res := Result{Source: SourceJenkins, Classification: UpToDate, DownloadType: ".jar"}

	fail := func(err error) Result {
		res.Classification = APIError
		res.Err = err
		res.DownloadURL = ""
		return observe(SourceJenkins, start, res)
	}

	base := strings.TrimSuffix(projectURL, "/")

	var project jenkinsProject
	if err := s.client.GetJSON(ctx, base+"/api/json", &project); err != nil {
		return fail(err)
	}
	if project.LastSuccessfulBuild == nil {
		return fail(fmt.Errorf("project %s has no successful build", projectURL))
	}

	res.BuildID = project.LastSuccessfulBuild.Number
	res.Latest = strconv.Itoa(res.BuildID)
	if res.BuildID > knownBuildID {
		res.Classification = UpdateAvailable
	}

	buildURL := project.LastSuccessfulBuild.URL
	if !strings.HasSuffix(buildURL, "api/json") {
		buildURL = strings.TrimSuffix(buildURL, "/") + "/api/json"
	}
	var build jenkinsBuild
	if err := s.client.GetJSON(ctx, buildURL, &build); err != nil {
		return fail(err)
	}

	artifact, ok := matchArtifact(build.Artifacts, artifactName)
	if !ok {
		return fail(fmt.Errorf("failed to find an artifact-name containing '%s' inside of '%v'",
			artifactName, artifactNames(sortArtifacts(build.Artifacts))))
	}

	res.FileName = artifact.FileName
	res.DownloadURL = base + "/" + res.Latest + "/artifact/" + artifact.RelativePath
	if ext := path.Ext(artifact.FileName); ext != "" {
		res.DownloadType = ext
	}
	return observe(SourceJenkins, start, res)
}

// sortArtifacts orders artifacts by file name length, shortest first, keeping
// the remote order for equal lengths. Shorter names are preferred so that
// "plugin.jar" wins over "plugin-sources.jar".
func sortArtifacts(artifacts []jenkinsArtifact) []jenkinsArtifact {
	sorted := append([]jenkinsArtifact(nil), artifacts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].FileName) < len(sorted[j].FileName)
	})
	return sorted
}

func matchArtifact(artifacts []jenkinsArtifact, name string) (jenkinsArtifact, bool) {
	for _, a := range sortArtifacts(artifacts) {
		if strings.Contains(a.FileName, name) {
			return a, true
		}
	}
	return jenkinsArtifact{}, false
}

func artifactNames(artifacts []jenkinsArtifact) []string {
	names := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		names = append(names, a.FileName)
	}
	return names
}
