package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"taskboard/backend"
)

// ParsePriorityFlag parses a priority given on the command line or in a form.
// An empty string yields def.
func ParsePriorityFlag(s string, def backend.Priority) (backend.Priority, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	p, err := backend.ParsePriority(s)
	if err != nil {
		return "", ErrInvalidPriority(s)
	}
	return p, nil
}

// relativePattern matches relative date formats like +7d, -3d, +2w, +1m
var relativePattern = regexp.MustCompile(`^([+-])(\d+)([dwm])$`)

// parseRelativeDate parses "today", "tomorrow", "yesterday" and +/-N{d,w,m}.
// Returns nil, nil if the string is not a relative date.
func parseRelativeDate(dateStr string, now time.Time) (*time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	lower := strings.ToLower(dateStr)

	switch lower {
	case "today":
		return &today, nil
	case "tomorrow":
		t := today.AddDate(0, 0, 1)
		return &t, nil
	case "yesterday":
		t := today.AddDate(0, 0, -1)
		return &t, nil
	}

	matches := relativePattern.FindStringSubmatch(lower)
	if matches == nil {
		return nil, nil
	}

	num, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, ErrInvalidDate(dateStr)
	}
	if matches[1] == "-" {
		num = -num
	}

	var result time.Time
	switch matches[3] {
	case "d":
		result = today.AddDate(0, 0, num)
	case "w":
		result = today.AddDate(0, 0, num*7)
	case "m":
		result = today.AddDate(0, num, 0)
	}

	return &result, nil
}

// ParseDateFlag parses a due date.
// Supported relative formats: today, tomorrow, yesterday, +Nd, -Nd, +Nw, +Nm
// Supported absolute format: YYYY-MM-DD
// Returns nil, nil for an empty string (no date).
func ParseDateFlag(dateStr string) (*backend.Date, error) {
	return parseDateAt(dateStr, time.Now())
}

func parseDateAt(dateStr string, now time.Time) (*backend.Date, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return nil, nil
	}

	t, err := parseRelativeDate(dateStr, now)
	if err != nil {
		return nil, err
	}
	if t != nil {
		d := backend.NewDate(*t)
		return &d, nil
	}

	d, err := backend.ParseDate(dateStr)
	if err != nil {
		return nil, ErrInvalidDate(dateStr)
	}
	return &d, nil
}
