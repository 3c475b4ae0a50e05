// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package download

import "fmt"

// ValidationKind names one way a download can be rejected.
type ValidationKind int

const (
	BadStatus ValidationKind = iota + 1
	NullBody
	NullContentType
	WrongContentType
	WrongSubtype
	// MissingArtifact means the search produced no download URL.
	MissingArtifact
)

func (k ValidationKind) String() string {
	switch k {
	case BadStatus:
		return "bad-status"
	case NullBody:
		return "null-body"
	case NullContentType:
		return "null-content-type"
	case WrongContentType:
		return "wrong-content-type"
	case WrongSubtype:
		return "wrong-subtype"
	case MissingArtifact:
		return "missing-artifact"
	default:
		return fmt.Sprintf("validation(%d)", int(k))
	}
}

// ValidationError rejects a download. Match it with errors.As and inspect Kind.
type ValidationError struct {
	Kind   ValidationKind
	File   string
	Detail string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case BadStatus:
		return fmt.Sprintf("download error for %s %s", e.File, e.Detail)
	case NullBody:
		return fmt.Sprintf("download of '%s' failed because of null response body", e.File)
	case NullContentType:
		return fmt.Sprintf("download of '%s' failed because of null content type", e.File)
	case WrongContentType:
		return fmt.Sprintf("download of '%s' failed because of invalid content type: %s", e.File, e.Detail)
	case WrongSubtype:
		return fmt.Sprintf("download of '%s' failed because of invalid sub-content type: %s", e.File, e.Detail)
	case MissingArtifact:
		return fmt.Sprintf("no download URL for %s", e.File)
	default:
		return fmt.Sprintf("download of '%s' rejected: %s", e.File, e.Detail)
	}
}
