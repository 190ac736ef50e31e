package utils

import (
	"errors"
	"fmt"
	"strings"

	"taskboard/backend"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// ErrNotLoggedIn returns an error for commands that need a session.
func ErrNotLoggedIn() error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("%w: not logged in", backend.ErrUnauthorized),
		Suggestion: "Run 'taskboard login' to sign in",
	}
}

// ErrSessionExpired returns an error for a token the server rejected.
func ErrSessionExpired() error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("%w: session expired", backend.ErrUnauthorized),
		Suggestion: "Run 'taskboard login' to sign in again",
	}
}

// ErrTaskNotFound returns an error for when a task id is unknown.
func ErrTaskNotFound(id int64) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("task %d: %w", id, backend.ErrNotFound),
		Suggestion: "Use 'taskboard list' to see all tasks and their ids",
	}
}

// ErrTitleRequired returns an error for an empty task title.
func ErrTitleRequired() error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("%w: Please enter a Task Title!", backend.ErrValidation),
		Suggestion: "Pass the title as the first argument, e.g. taskboard add \"Buy milk\"",
	}
}

// ErrBackendOffline returns an error when the API is unreachable with smart suggestions.
func ErrBackendOffline(url, reason string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("task service at %s is unreachable: %s", url, reason),
		Suggestion: getSmartSuggestion(reason),
	}
}

// getSmartSuggestion returns a context-aware suggestion based on the error reason.
func getSmartSuggestion(reason string) string {
	lowerReason := strings.ToLower(reason)

	if strings.Contains(lowerReason, "no such host") || strings.Contains(lowerReason, "dns") {
		return "Check your DNS settings and internet connection"
	}

	if strings.Contains(lowerReason, "connection refused") {
		return "Check if the server is running and api.base_url in your config points to it"
	}

	if strings.Contains(lowerReason, "timeout") || strings.Contains(lowerReason, "deadline exceeded") {
		return "The server may be slow or unreachable. Try again later or raise api.request_timeout"
	}

	return "Check your internet connection and try again"
}

// ErrInvalidPriority returns an error for an invalid priority value.
func ErrInvalidPriority(priority string) error {
	valid := make([]string, len(backend.Priorities))
	for i, p := range backend.Priorities {
		valid[i] = string(p)
	}
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("%w: invalid priority: %s", backend.ErrValidation, priority),
		Suggestion: fmt.Sprintf("Valid options: %s", strings.Join(valid, ", ")),
	}
}

// ErrInvalidDate returns an error for an invalid date string.
func ErrInvalidDate(dateStr string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("%w: invalid date: %s", backend.ErrValidation, dateStr),
		Suggestion: "Use date format YYYY-MM-DD (e.g., 2026-01-15), or today, tomorrow, +3d, +2w",
	}
}

// ErrInvalidTheme returns an error for an unknown theme name.
func ErrInvalidTheme(theme string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("%w: unknown theme: %s", backend.ErrValidation, theme),
		Suggestion: "Valid options: light, dark",
	}
}

// ErrAuthenticationFailed returns an error when login is rejected.
func ErrAuthenticationFailed(username string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("%w: authentication failed for %s", backend.ErrUnauthorized, username),
		Suggestion: "Verify your username and password, or create an account with 'taskboard register'",
	}
}

// IsValidation reports whether err was caused by rejected user input.
func IsValidation(err error) bool {
	return errors.Is(err, backend.ErrValidation)
}
