// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package search

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct{ in, version, author string }{
		{"v2.1.0-SNAPSHOT", "2.1.0", "v210SNAPSHOT"},
		{"md_5 & co.", "5", "md_5co"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := NormalizeVersion(tt.in); got != tt.version {
			t.Errorf("NormalizeVersion(%q) = %q, want %q", tt.in, got, tt.version)
		}
		if got := NormalizeAuthor(tt.in); got != tt.author {
			t.Errorf("NormalizeAuthor(%q) = %q, want %q", tt.in, got, tt.author)
		}
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		current, latest string
		want            bool
	}{
		{"1.0.0", "1.0.1", true},
		{"1.10", "1.9", false},
		{"2.0", "2.0.0", false},
		{"v1.2", "1.3", true},
		{"", "1.0", true},
		{"1.0", "", false},
		{"1.0", "nightly", false},
	}
	for _, tt := range tests {
		if got := IsNewer(tt.current, tt.latest); got != tt.want {
			t.Errorf("IsNewer(%q, %q) = %v, want %v", tt.current, tt.latest, got, tt.want)
		}
	}
}

func TestClassificationString(t *testing.T) {
	if APIError.String() != "api-error" || Classification(4) != APIError {
		t.Errorf("APIError = %d %q", APIError, APIError.String())
	}
}
