// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package search

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/serverpilot/internal/metrics"
)

// Classification is the outcome category of a remote lookup.
type Classification int

// Numeric values are stable; they appear in logs and the status API.
const (
	UpToDate        Classification = 0
	UpdateAvailable Classification = 1
	// NotFound means the source knows nothing matching the query.
	NotFound Classification = 2
	// Ambiguous means candidates exist but none could be tied to the target.
	Ambiguous Classification = 3
	APIError  Classification = 4
)

func (c Classification) String() string {
	switch c {
	case UpToDate:
		return "up-to-date"
	case UpdateAvailable:
		return "update-available"
	case NotFound:
		return "not-found"
	case Ambiguous:
		return "ambiguous"
	case APIError:
		return "api-error"
	default:
		return fmt.Sprintf("classification(%d)", int(c))
	}
}

// Result is the outcome of one remote lookup. It is a value: searchers build
// it once and the download task only reads it.
type Result struct {
	Source         string
	Classification Classification
	// Latest is the newest version the source reports.
	Latest       string
	DownloadURL  string
	DownloadType string
	Err          error

	// BuildID is the numeric build of Jenkins and Paper sources.
	BuildID  int
	FileName string

	// Marketplace ids discovered by heuristic searches.
	SpigotID int
	BukkitID int
	Premium  bool
}

// HasUpdate reports whether an update is available.
func (r Result) HasUpdate() bool { return r.Classification == UpdateAvailable }

// Failed reports whether the lookup itself failed.
func (r Result) Failed() bool { return r.Classification == APIError }

func apiError(source string, err error) Result {
	return Result{Source: source, Classification: APIError, Err: err}
}

// observe records metrics for a finished search.
func observe(source string, start time.Time, r Result) Result {
	metrics.RecordSearch(source, r.Classification.String(), time.Since(start))
	return r
}

// JSONGetter fetches and decodes JSON documents. *remote.Client implements it.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, v any) error
}
