// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SourceSpiget labels SpigotMC results resolved through the Spiget API.
const SourceSpiget = "spiget"

const (
	// maxNameCandidates bounds author lookups during a by-name search.
	maxNameCandidates = 10
	// maxAuthorCandidates bounds resource listings during a by-author search.
	maxAuthorCandidates = 5
)

type spigetResource struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Premium  bool   `json:"premium"`
	External bool   `json:"external"`
	File     struct {
		Type        string `json:"type"`
		ExternalURL string `json:"externalUrl"`
	} `json:"file"`
	Author struct {
		ID int `json:"id"`
	} `json:"author"`
}

type spigetVersion struct {
	Name string `json:"name"`
}

type spigetAuthor struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SpigetSearcher queries SpigotMC through the Spiget REST API.
type SpigetSearcher struct {
	client JSONGetter
	base   string
}

// NewSpigetSearcher creates a searcher against baseURL (https://api.spiget.org).
func NewSpigetSearcher(client JSONGetter, baseURL string) *SpigetSearcher {
	return &SpigetSearcher{client: client, base: strings.TrimSuffix(baseURL, "/") + "/v2"}
}

// ByID resolves the resource with the given SpigotMC id.
func (s *SpigetSearcher) ByID(ctx context.Context, id int, currentVersion string) Result {
	start := time.Now()
	return observe(SourceSpiget, start, s.byID(ctx, id, currentVersion))
}

func (s *SpigetSearcher) byID(ctx context.Context, id int, currentVersion string) Result {
	var resource spigetResource
	if err := s.client.GetJSON(ctx, fmt.Sprintf("%s/resources/%d", s.base, id), &resource); err != nil {
		return apiError(SourceSpiget, err)
	}

	var versions []spigetVersion
	if err := s.client.GetJSON(ctx, fmt.Sprintf("%s/resources/%d/versions?size=1&sort=-releaseDate", s.base, id), &versions); err != nil {
		return apiError(SourceSpiget, err)
	}
	if len(versions) == 0 {
		return apiError(SourceSpiget, fmt.Errorf("resource %d has no versions", id))
	}

	res := Result{
		Source:         SourceSpiget,
		Classification: Classify(currentVersion, versions[0].Name),
		Latest:         versions[0].Name,
		DownloadType:   ".jar",
		SpigotID:       id,
		Premium:        resource.Premium,
	}
	if strings.HasPrefix(resource.File.Type, ".") {
		res.DownloadType = resource.File.Type
	}

	switch {
	case resource.Premium:
		// Premium resources cannot be downloaded anonymously.
	case resource.External:
		res.DownloadURL = resource.File.ExternalURL
	default:
		res.DownloadURL = fmt.Sprintf("%s/resources/%d/download", s.base, id)
	}
	return res
}

// ByName searches resources named like the plugin and keeps the first whose
// author matches. NotFound means no resource has that name; Ambiguous means
// none of the candidates belongs to the author.
func (s *SpigetSearcher) ByName(ctx context.Context, p Plugin) Result {
	start := time.Now()

	var candidates []spigetResource
	u := fmt.Sprintf("%s/search/resources/%s?field=name&sort=-downloads&size=%d", s.base, url.PathEscape(p.Name), maxNameCandidates)
	if err := s.client.GetJSON(ctx, u, &candidates); err != nil {
		if isNotFound(err) {
			return observe(SourceSpiget, start, Result{Source: SourceSpiget, Classification: NotFound})
		}
		return observe(SourceSpiget, start, apiError(SourceSpiget, err))
	}
	if len(candidates) == 0 {
		return observe(SourceSpiget, start, Result{Source: SourceSpiget, Classification: NotFound})
	}

	author := strings.ToLower(NormalizeAuthor(p.Author))
	for _, c := range candidates {
		if author == "" {
			if strings.EqualFold(c.Name, p.Name) {
				return observe(SourceSpiget, start, s.byID(ctx, c.ID, p.Version))
			}
			continue
		}
		var a spigetAuthor
		if err := s.client.GetJSON(ctx, fmt.Sprintf("%s/authors/%d", s.base, c.Author.ID), &a); err != nil {
			continue
		}
		if authorMatches(a.Name, author) {
			return observe(SourceSpiget, start, s.byID(ctx, c.ID, p.Version))
		}
	}
	return observe(SourceSpiget, start, Result{Source: SourceSpiget, Classification: Ambiguous})
}

// ByAuthor lists the resources of authors named like the plugin's author and
// keeps the first whose name matches the plugin.
func (s *SpigetSearcher) ByAuthor(ctx context.Context, p Plugin) Result {
	start := time.Now()

	author := NormalizeAuthor(p.Author)
	if author == "" {
		return observe(SourceSpiget, start, Result{Source: SourceSpiget, Classification: NotFound})
	}

	var authors []spigetAuthor
	u := fmt.Sprintf("%s/search/authors/%s?field=name", s.base, url.PathEscape(author))
	if err := s.client.GetJSON(ctx, u, &authors); err != nil {
		if isNotFound(err) {
			return observe(SourceSpiget, start, Result{Source: SourceSpiget, Classification: NotFound})
		}
		return observe(SourceSpiget, start, apiError(SourceSpiget, err))
	}
	if len(authors) == 0 {
		return observe(SourceSpiget, start, Result{Source: SourceSpiget, Classification: NotFound})
	}
	if len(authors) > maxAuthorCandidates {
		authors = authors[:maxAuthorCandidates]
	}

	name := normalizeName(p.Name)
	for _, a := range authors {
		var resources []spigetResource
		if err := s.client.GetJSON(ctx, fmt.Sprintf("%s/authors/%d/resources?size=100", s.base, a.ID), &resources); err != nil {
			continue
		}
		for _, r := range resources {
			if n := normalizeName(r.Name); n == name || strings.HasPrefix(n, name) {
				return observe(SourceSpiget, start, s.byID(ctx, r.ID, p.Version))
			}
		}
	}
	return observe(SourceSpiget, start, Result{Source: SourceSpiget, Classification: Ambiguous})
}

func authorMatches(remote, normalized string) bool {
	r := strings.ToLower(NormalizeAuthor(remote))
	return r != "" && (r == normalized || strings.Contains(r, normalized) || strings.Contains(normalized, r))
}

// normalizeName lower-cases and drops separators: "Essentials X" -> "essentialsx".
func normalizeName(n string) string {
	return strings.ToLower(nonWordChars.ReplaceAllString(n, ""))
}

// isNotFound reports a 404 answer. Spiget answers unknown searches with 404.
func isNotFound(err error) bool {
	var sc interface{ NotFound() bool }
	return errors.As(err, &sc) && sc.NotFound()
}
