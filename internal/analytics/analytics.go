// Package analytics provides local SQLite-based analytics for tracking
// operation outcomes and latency against the task service.
package analytics

import "database/sql"

// Event represents a single analytics event
type Event struct {
	ID         int64          `db:"id"`
	Timestamp  int64          `db:"timestamp"`
	Operation  string         `db:"operation"`
	Source     string         `db:"source"`
	Success    bool           `db:"success"`
	DurationMs int64          `db:"duration_ms"`
	ErrorType  sql.NullString `db:"error_type"`
	StatusCode sql.NullInt64  `db:"status_code"`
	CreatedAt  int64          `db:"created_at"`
}

// OperationStats aggregates the events of one operation
type OperationStats struct {
	Operation     string  `db:"operation" json:"operation"`
	Total         int64   `db:"total" json:"total"`
	Successes     int64   `db:"successes" json:"successes"`
	AvgDurationMs float64 `db:"avg_duration_ms" json:"avg_duration_ms"`
	AuthFailures  int64   `db:"auth_failures" json:"auth_failures"`
}

// SuccessRate returns the fraction of successful events (0 when there are none)
func (s OperationStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Total)
}
