package utils

import (
	"errors"
	"strings"
	"testing"

	"taskboard/backend"
)

// TestErrorWithSuggestionError verifies message and suggestion are both rendered
func TestErrorWithSuggestionError(t *testing.T) {
	err := &ErrorWithSuggestion{
		Err:        errors.New("something went wrong"),
		Suggestion: "try again",
	}

	got := err.Error()
	if !strings.Contains(got, "something went wrong") {
		t.Errorf("Error() missing message: %q", got)
	}
	if !strings.Contains(got, "Suggestion: try again") {
		t.Errorf("Error() missing suggestion: %q", got)
	}
	if err.GetSuggestion() != "try again" {
		t.Errorf("GetSuggestion() = %q", err.GetSuggestion())
	}
}

// TestWrapWithSuggestion verifies the wrapped error stays reachable
func TestWrapWithSuggestion(t *testing.T) {
	base := errors.New("base")
	err := WrapWithSuggestion(base, "hint")

	if !errors.Is(err, base) {
		t.Error("wrapped error should unwrap to base")
	}
	var ews *ErrorWithSuggestion
	if !errors.As(err, &ews) || ews.Suggestion != "hint" {
		t.Errorf("expected *ErrorWithSuggestion with hint, got %v", err)
	}
}

// TestAuthErrorsAreUnauthorized verifies session errors map onto backend.ErrUnauthorized
func TestAuthErrorsAreUnauthorized(t *testing.T) {
	for name, err := range map[string]error{
		"not logged in":   ErrNotLoggedIn(),
		"session expired": ErrSessionExpired(),
		"login rejected":  ErrAuthenticationFailed("alice"),
	} {
		if !backend.IsUnauthorized(err) {
			t.Errorf("%s: expected unauthorized, got %v", name, err)
		}
		if !strings.Contains(err.Error(), "taskboard") {
			t.Errorf("%s: suggestion should name a command, got %q", name, err.Error())
		}
	}
}

// TestValidationErrors verifies input errors are classified as validation failures
func TestValidationErrors(t *testing.T) {
	for name, err := range map[string]error{
		"title":    ErrTitleRequired(),
		"priority": ErrInvalidPriority("urgent"),
		"date":     ErrInvalidDate("soon"),
		"theme":    ErrInvalidTheme("blue"),
	} {
		if !IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}

	if IsValidation(ErrTaskNotFound(3)) {
		t.Error("a missing task is not a validation error")
	}
}

// TestErrTitleRequiredMessage verifies the alert text users see
func TestErrTitleRequiredMessage(t *testing.T) {
	if !strings.Contains(ErrTitleRequired().Error(), "Please enter a Task Title!") {
		t.Errorf("unexpected message: %q", ErrTitleRequired().Error())
	}
}

// TestErrInvalidPriorityListsOptions verifies the valid priorities are suggested
func TestErrInvalidPriorityListsOptions(t *testing.T) {
	var ews *ErrorWithSuggestion
	if !errors.As(ErrInvalidPriority("urgent"), &ews) {
		t.Fatal("expected *ErrorWithSuggestion")
	}
	if ews.Suggestion != "Valid options: LOW, MEDIUM, HIGH" {
		t.Errorf("Suggestion = %q", ews.Suggestion)
	}
}

// TestErrBackendOfflineSuggestions verifies smart suggestions per failure reason
func TestErrBackendOfflineSuggestions(t *testing.T) {
	tests := []struct {
		reason string
		want   string
	}{
		{"dial tcp: lookup api.example: no such host", "DNS"},
		{"dial tcp 127.0.0.1:3030: connect: connection refused", "server is running"},
		{"context deadline exceeded", "request_timeout"},
		{"something odd", "internet connection"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var ews *ErrorWithSuggestion
			if !errors.As(ErrBackendOffline("http://localhost:3030/api/tasks", tt.reason), &ews) {
				t.Fatal("expected *ErrorWithSuggestion")
			}
			if !strings.Contains(ews.Suggestion, tt.want) {
				t.Errorf("Suggestion = %q, want it to mention %q", ews.Suggestion, tt.want)
			}
		})
	}
}
