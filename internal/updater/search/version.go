// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package search

import (
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"
)

var (
	nonVersionChars = regexp.MustCompile(`[^0-9.]`)
	nonWordChars    = regexp.MustCompile(`[^\w]`)
)

// NormalizeVersion keeps digits and dots only: "v2.1.0-SNAPSHOT" -> "2.1.0".
func NormalizeVersion(v string) string {
	return strings.Trim(nonVersionChars.ReplaceAllString(v, ""), ".")
}

// NormalizeAuthor keeps word characters only: "md_5 & co." -> "md_5co".
func NormalizeAuthor(a string) string {
	return nonWordChars.ReplaceAllString(a, "")
}

// IsNewer reports whether latest is a newer version than current. Versions
// that do not parse are compared after normalization; any difference counts
// as newer so that an unparsable installed version never blocks updates.
func IsNewer(current, latest string) bool {
	latestNorm := NormalizeVersion(latest)
	if latestNorm == "" {
		return false
	}
	currentNorm := NormalizeVersion(current)
	if currentNorm == "" {
		return true
	}

	cv, cerr := version.NewVersion(currentNorm)
	lv, lerr := version.NewVersion(latestNorm)
	if cerr != nil || lerr != nil {
		return currentNorm != latestNorm
	}
	return lv.GreaterThan(cv)
}

// Classify compares an installed and a remote version.
func Classify(current, latest string) Classification {
	if IsNewer(current, latest) {
		return UpdateAvailable
	}
	return UpToDate
}
