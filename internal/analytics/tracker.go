package analytics

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"taskboard/backend"
	"taskboard/internal/utils"
)

// Tracker handles analytics event recording
type Tracker struct {
	db      *sqlx.DB
	enabled bool
	source  string
	mu      sync.Mutex
	pending sync.WaitGroup
	now     func() time.Time
}

// NewTracker creates a new analytics tracker.
// source tags every event (e.g. "cli" or "tui").
// If enabled is false, tracking is disabled but the database is still created.
func NewTracker(dbPath, source string, enabled bool) (*Tracker, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	return &Tracker{
		db:      db,
		enabled: enabled,
		source:  source,
		now:     time.Now,
	}, nil
}

// Enabled reports whether events are being recorded
func (t *Tracker) Enabled() bool {
	return t != nil && t.enabled
}

// Close waits for pending writes and closes the database connection
func (t *Tracker) Close() error {
	if t == nil || t.db == nil {
		return nil
	}
	t.pending.Wait()
	return t.db.Close()
}

// Flush waits until every event recorded so far is written
func (t *Tracker) Flush() {
	if t != nil {
		t.pending.Wait()
	}
}

// Track records the outcome of one operation. Writes happen in the
// background so the caller is never slowed down. A nil Tracker is a no-op.
func (t *Tracker) Track(operation string, duration time.Duration, err error) {
	if !t.Enabled() {
		return
	}

	event := Event{
		Timestamp:  t.now().Unix(),
		Operation:  operation,
		Source:     t.source,
		Success:    err == nil,
		DurationMs: duration.Milliseconds(),
	}
	if err != nil {
		event.ErrorType.String, event.ErrorType.Valid = categorizeError(err), true
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) {
			event.StatusCode.Int64, event.StatusCode.Valid = int64(statusErr.Code), true
		}
	}

	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		t.logEvent(event)
	}()
}

// TrackCommand wraps command execution with analytics tracking.
// The provided function is always executed.
func (t *Tracker) TrackCommand(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	t.Track(operation, time.Since(start), err)
	return err
}

// logEvent records an event to the database
func (t *Tracker) logEvent(event Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := t.db.NamedExec(`
		INSERT INTO events (timestamp, operation, source, success, duration_ms, error_type, status_code)
		VALUES (:timestamp, :operation, :source, :success, :duration_ms, :error_type, :status_code)
	`, event)
	if err != nil {
		utils.GetLogger().Debug("failed to record analytics event", zap.String("operation", event.Operation), zap.Error(err))
	}
}

// Events returns the most recent events, newest first
func (t *Tracker) Events(ctx context.Context, limit int) ([]Event, error) {
	t.pending.Wait()
	var events []Event
	err := t.db.SelectContext(ctx, &events,
		`SELECT id, timestamp, operation, source, success, duration_ms, error_type, status_code, created_at
		 FROM events ORDER BY id DESC LIMIT ?`, limit)
	return events, err
}

// Stats aggregates events per operation
func (t *Tracker) Stats(ctx context.Context) ([]OperationStats, error) {
	t.pending.Wait()
	var stats []OperationStats
	err := t.db.SelectContext(ctx, &stats, `
		SELECT operation,
		       COUNT(*) AS total,
		       COALESCE(SUM(success), 0) AS successes,
		       COALESCE(AVG(duration_ms), 0) AS avg_duration_ms,
		       COALESCE(SUM(CASE WHEN error_type = 'auth' THEN 1 ELSE 0 END), 0) AS auth_failures
		FROM events
		GROUP BY operation
		ORDER BY operation`)
	return stats, err
}

// Cleanup removes events older than the specified retention period.
// Returns the number of deleted events.
func (t *Tracker) Cleanup(retentionDays int) (int64, error) {
	cutoff := t.now().Unix() - int64(retentionDays*86400)

	t.mu.Lock()
	defer t.mu.Unlock()

	result, err := t.db.Exec("DELETE FROM events WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		_, _ = t.db.Exec("VACUUM")
	}

	return deleted, nil
}

// categorizeError categorizes an error into a general type
func categorizeError(err error) string {
	if err == nil {
		return ""
	}

	var netErr net.Error
	var statusErr *backend.StatusError
	switch {
	case backend.IsUnauthorized(err):
		return "auth"
	case errors.Is(err, backend.ErrValidation):
		return "validation"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return "timeout"
		}
		return "network"
	case errors.As(err, &statusErr):
		if statusErr.Code == 404 {
			return "not_found"
		}
		if statusErr.Code >= 500 {
			return "server"
		}
		return "client"
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"):
		return "timeout"
	case strings.Contains(errStr, "connection"):
		return "network"
	case strings.Contains(errStr, "not found"):
		return "not_found"
	default:
		return "unknown"
	}
}
