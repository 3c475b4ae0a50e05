// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package validation

import (
	"errors"
	"strings"
	"testing"
)

type scheduleFixture struct {
	Times  []string `koanf:"times" validate:"dive,hhmm"`
	Cron   string   `koanf:"cron" validate:"omitempty,cronspec"`
	Policy string   `koanf:"policy" validate:"policy"`
	Port   int      `koanf:"port" validate:"gte=1,lte=65535"`
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	fixture := scheduleFixture{
		Times:  []string{"00:00", "04:30", "23:59"},
		Cron:   "0 */6 * * *",
		Policy: "automatic",
		Port:   8080,
	}
	if err := ValidateStruct(&fixture); err != nil {
		t.Fatalf("ValidateStruct() = %v, want nil", err)
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		fixture   scheduleFixture
		wantField string
		wantTag   string
	}{
		{
			name:      "bad time of day",
			fixture:   scheduleFixture{Times: []string{"25:00"}, Policy: "notify", Port: 1},
			wantField: "times[0]",
			wantTag:   "hhmm",
		},
		{
			name:      "bad cron",
			fixture:   scheduleFixture{Cron: "every day", Policy: "manual", Port: 1},
			wantField: "cron",
			wantTag:   "cronspec",
		},
		{
			name:      "bad policy",
			fixture:   scheduleFixture{Policy: "sometimes", Port: 1},
			wantField: "policy",
			wantTag:   "policy",
		},
		{
			name:      "port out of range",
			fixture:   scheduleFixture{Policy: "notify", Port: 70000},
			wantField: "port",
			wantTag:   "lte",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.fixture)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verrs Errors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected Errors, got %T", err)
			}
			if len(verrs) != 1 {
				t.Fatalf("expected 1 error, got %d: %v", len(verrs), verrs)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verrs[0].Field, tt.wantField)
			}
			if verrs[0].Tag != tt.wantTag {
				t.Errorf("Tag = %q, want %q", verrs[0].Tag, tt.wantTag)
			}
			if !strings.Contains(verrs[0].Message, tt.wantField) {
				t.Errorf("Message %q should name the field", verrs[0].Message)
			}
		})
	}
}

func TestIsCronSpec(t *testing.T) {
	tests := map[string]bool{
		"0 4 * * *":    true,
		"*/15 * * * *": true,
		"@daily":       true,
		"":             false,
		"0 4 * *":      false,
		"61 * * * *":   false,
	}
	for spec, want := range tests {
		if got := IsCronSpec(spec); got != want {
			t.Errorf("IsCronSpec(%q) = %v, want %v", spec, got, want)
		}
	}
}

func TestIsTimeOfDay(t *testing.T) {
	tests := map[string]bool{
		"00:00": true,
		"9:05":  true,
		"12:60": false,
		"23:59": true,
	}
	for in, want := range tests {
		if got := IsTimeOfDay(in); got != want {
			t.Errorf("IsTimeOfDay(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestErrorsMessageJoin(t *testing.T) {
	errs := Errors{
		{Field: "a", Message: "a is required"},
		{Field: "b", Message: "b is required"},
	}
	if got := errs.Error(); got != "a is required; b is required" {
		t.Errorf("Error() = %q", got)
	}
	if got := (Errors{}).Error(); got != "validation failed" {
		t.Errorf("empty Error() = %q", got)
	}
}
