package utils

import (
	"errors"
	"testing"
	"time"

	"taskboard/backend"
)

// TestParsePriorityFlag verifies case-insensitive parsing and the default
func TestParsePriorityFlag(t *testing.T) {
	tests := []struct {
		in   string
		want backend.Priority
	}{
		{"", backend.PriorityMedium},
		{"  ", backend.PriorityMedium},
		{"high", backend.PriorityHigh},
		{"Low", backend.PriorityLow},
	}
	for _, tt := range tests {
		got, err := ParsePriorityFlag(tt.in, backend.PriorityMedium)
		if err != nil {
			t.Errorf("ParsePriorityFlag(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePriorityFlag(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	_, err := ParsePriorityFlag("urgent", backend.PriorityMedium)
	var ews *ErrorWithSuggestion
	if !errors.As(err, &ews) {
		t.Errorf("invalid priority should return *ErrorWithSuggestion, got %v", err)
	}
}

// TestParseDateFlagValid verifies absolute and relative dates
func TestParseDateFlagValid(t *testing.T) {
	now := time.Date(2026, 1, 31, 18, 30, 0, 0, time.UTC)
	tests := []struct {
		input string
		want  string
	}{
		{"2026-01-15", "2026-01-15"},
		{" 2025-12-31 ", "2025-12-31"},
		{"today", "2026-01-31"},
		{"Tomorrow", "2026-02-01"},
		{"yesterday", "2026-01-30"},
		{"+7d", "2026-02-07"},
		{"-3d", "2026-01-28"},
		{"+2w", "2026-02-14"},
		{"+1m", "2026-03-03"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDateAt(tt.input, now)
			if err != nil {
				t.Fatalf("parseDateAt(%q) error = %v", tt.input, err)
			}
			if got == nil || got.String() != tt.want {
				t.Errorf("parseDateAt(%q) = %v, want %s", tt.input, got, tt.want)
			}
		})
	}
}

// TestParseDateFlagEmpty verifies empty string returns nil (no date)
func TestParseDateFlagEmpty(t *testing.T) {
	result, err := ParseDateFlag("")
	if err != nil || result != nil {
		t.Errorf("ParseDateFlag(\"\") = %v, %v; want nil, nil", result, err)
	}
}

// TestParseDateFlagInvalid verifies invalid dates return a validation error
func TestParseDateFlagInvalid(t *testing.T) {
	invalidDates := []string{
		"invalid",
		"2026/01/15",
		"01-15-2026",
		"2026-13-01",
		"2026-01-32",
		"+3y",
	}

	for _, input := range invalidDates {
		t.Run(input, func(t *testing.T) {
			_, err := ParseDateFlag(input)
			if err == nil {
				t.Fatalf("ParseDateFlag(%q) = nil error, want error", input)
			}
			if !IsValidation(err) {
				t.Errorf("ParseDateFlag(%q) error should be a validation error: %v", input, err)
			}
		})
	}
}
