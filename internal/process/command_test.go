// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package process

import (
	"reflect"
	"testing"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "java -jar server.jar", []string{"java", "-jar", "server.jar"}},
		{"extra spaces", "  java   -Xmx2G  ", []string{"java", "-Xmx2G"}},
		{"quoted path", `"/opt/my java/bin/java" -jar server.jar`, []string{"/opt/my java/bin/java", "-jar", "server.jar"}},
		{"quoted inside", `sh -c "echo a b"`, []string{"sh", "-c", "echo a b"}},
		{"empty quotes", `run ""`, []string{"run", ""}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitCommand(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitCommand(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLineSeverity(t *testing.T) {
	tests := []struct {
		line string
		want Severity
	}{
		{"[12:00:00 INFO]: Done (3.2s)!", SeverityPlain},
		{"[12:00:00 WARN]: Can't keep up!", SeverityWarn},
		{"Warning: deprecated option", SeverityWarn},
		{"[12:00:00 ERROR]: Could not load plugin", SeverityError},
		{"java.lang.NullPointerException", SeverityError},
		{"CRITICAL failure", SeverityError},
		{"[DEBUG] tick", SeverityDebug},
		{"warn and error", SeverityError},
	}

	for _, tt := range tests {
		if got := LineSeverity(tt.line); got != tt.want {
			t.Errorf("LineSeverity(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}

func TestOutputTail(t *testing.T) {
	tail := NewOutputTail(3)
	if got := tail.Lines(0); len(got) != 0 {
		t.Fatalf("empty tail = %v", got)
	}

	tail.Add("a")
	tail.Add("b")
	if got := tail.Lines(0); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Lines(0) = %v", got)
	}

	tail.Add("c")
	tail.Add("d")
	if got := tail.Lines(0); !reflect.DeepEqual(got, []string{"b", "c", "d"}) {
		t.Errorf("Lines(0) after wrap = %v", got)
	}
	if got := tail.Lines(2); !reflect.DeepEqual(got, []string{"c", "d"}) {
		t.Errorf("Lines(2) = %v", got)
	}
}
