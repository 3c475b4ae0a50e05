// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package remote

import (
	"fmt"
	"io"
)

// maxErrorBodySize limits how much of an error response is kept for diagnostics.
const maxErrorBodySize = 64 * 1024 // 64KB

// StatusError is returned when a source answers with an unexpected status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("%s returned %s", e.URL, e.Status)
	}
	return fmt.Sprintf("%s returned %s: %s", e.URL, e.Status, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return retryableStatus(e.StatusCode)
}

// NotFound reports a 404 answer.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == 404
}

func retryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// readBodyForError reads at most 64KB of r for error reporting.
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
