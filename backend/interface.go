package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of due dates.
const DateLayout = "2006-01-02"

// Task represents a task as stored by the remote service
type Task struct {
	ID          int64    `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     *Date    `json:"dueDate"`
	Priority    Priority `json:"priority"`
	Completed   bool     `json:"completed"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

// TaskPatch is the body of an update request. Nil fields are left untouched
// by the server, so a patch may carry any subset of the mutable fields.
type TaskPatch struct {
	ID          int64     `json:"id"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	DueDate     *Date     `json:"dueDate,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Completed   *bool     `json:"completed,omitempty"`
}

// Priority is one of LOW, MEDIUM or HIGH
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Priorities lists the valid priorities from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority normalizes s to upper case and checks it against the known priorities.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown priority %q", ErrValidation, s)
	}
	return p, nil
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Next returns the following priority, wrapping from HIGH to LOW.
func (p Priority) Next() Priority {
	for i, candidate := range Priorities {
		if candidate == p {
			return Priorities[(i+1)%len(Priorities)]
		}
	}
	return PriorityMedium
}

// Prev returns the preceding priority, wrapping from LOW to HIGH.
func (p Priority) Prev() Priority {
	for i, candidate := range Priorities {
		if candidate == p {
			return Priorities[(i+len(Priorities)-1)%len(Priorities)]
		}
	}
	return PriorityMedium
}

// Date is a calendar date without time of day
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return Date{t}, nil
}

// NewDate truncates t to its calendar date.
func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD" and full timestamps (only the date part is kept).
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid dueDate %q: %w", s, err)
	}
	d.Time = parsed
	return nil
}

// Sentinel errors shared by all TaskManager implementations.
var (
	// ErrUnauthorized is returned for 401/403 responses. The session must be discarded.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation marks input rejected before any request is made.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned for an unknown task id.
	ErrNotFound = errors.New("not found")
)

// StatusError is returned when the server answers with a non-2xx status
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: status %d", e.Op, e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap maps 401 and 403 onto ErrUnauthorized and 404 onto ErrNotFound.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// IsUnauthorized reports whether err means the session token was rejected.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// Filter restricts a task listing. The zero value lists everything.
type Filter struct {
	Completed *bool
	Priority  Priority
}

// IsZero reports whether the filter selects all tasks.
func (f Filter) IsZero() bool {
	return f.Completed == nil && f.Priority == ""
}

// TaskManager defines the operations against the remote task collection
type TaskManager interface {
	ListTasks(ctx context.Context, filter Filter) ([]Task, error)
	CreateTask(ctx context.Context, task Task) error
	UpdateTask(ctx context.Context, patch TaskPatch) error
	DeleteTask(ctx context.Context, id int64) error
	Summary(ctx context.Context) (string, error)

	// Connection management
	Close() error
}

// Authenticator exchanges credentials for a session token
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, password string) error
}

// FindTask returns the task with the given id, or nil.
func FindTask(tasks []Task, id int64) *Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}
	return nil
}

// GenerateID generates a unique identifier using UUID v4.
// Used to correlate requests in the logs.
func GenerateID() string {
	return uuid.New().String()
}
