package taskstore

import (
	"context"
	"time"

	"go.uber.org/zap"

	"taskboard/backend"
	"taskboard/internal/utils"
)

// SessionStore persists the local session
type SessionStore interface {
	SaveLogin(username, token string) error
	SaveTheme(theme string) error
	Clear() error
}

// Tracker records operation outcomes
type Tracker interface {
	Track(operation string, duration time.Duration, err error)
}

// Runner executes effects against the remote service and the local session.
// It never touches State; every outcome comes back as a Result.
type Runner struct {
	Tasks   backend.TaskManager
	Auth    backend.Authenticator
	Session SessionStore
	Tracker Tracker
}

// Run executes eff and returns the result message, or nil for unknown effects
func (r *Runner) Run(ctx context.Context, eff Effect) Msg {
	switch e := eff.(type) {
	case FetchTasks:
		var tasks []backend.Task
		err := r.track(ctx, "list", func(ctx context.Context) (err error) {
			tasks, err = r.Tasks.ListTasks(ctx, e.Filter)
			return err
		})
		return TasksLoaded{Tasks: tasks, Err: err, Navigate: e.Navigate, Settle: e.Settle}

	case CreateTask:
		err := r.track(ctx, "create", func(ctx context.Context) error {
			return r.Tasks.CreateTask(ctx, e.Task)
		})
		return TaskCreated{Err: err}

	case UpdateTask:
		op := "update"
		if e.Kind == UpdateToggle {
			op = "toggle"
		}
		err := r.track(ctx, op, func(ctx context.Context) error {
			return r.Tasks.UpdateTask(ctx, e.Patch)
		})
		return TaskUpdated{ID: e.Patch.ID, Kind: e.Kind, Err: err}

	case DeleteTask:
		err := r.track(ctx, "delete", func(ctx context.Context) error {
			return r.Tasks.DeleteTask(ctx, e.ID)
		})
		return TaskDeleted{ID: e.ID, Err: err}

	case FetchSummary:
		var text string
		err := r.track(ctx, "summary", func(ctx context.Context) (err error) {
			text, err = r.Tasks.Summary(ctx)
			return err
		})
		return SummaryLoaded{Text: text, Err: err}

	case Login:
		err := r.track(ctx, "login", func(ctx context.Context) error {
			token, err := r.Auth.Login(ctx, e.Username, e.Password)
			if err != nil {
				return err
			}
			return r.Session.SaveLogin(e.Username, token)
		})
		return LoggedIn{Username: e.Username, Err: err}

	case ClearSession:
		err := r.track(ctx, "logout", func(context.Context) error {
			return r.Session.Clear()
		})
		return SessionCleared{Err: err}

	case SaveTheme:
		err := r.Session.SaveTheme(string(e.Theme))
		if err != nil {
			utils.GetLogger().Warn("failed to save theme", zap.String("theme", string(e.Theme)), zap.Error(err))
		}
		return ThemeSaved{Err: err}
	}

	utils.GetLogger().Error("unknown effect", zap.Any("effect", eff))
	return nil
}

// track times fn, logs failures and records the outcome
func (r *Runner) track(ctx context.Context, op string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	log := utils.GetLogger()
	switch {
	case err == nil:
		log.Debug("operation finished", zap.String("op", op), zap.Duration("elapsed", elapsed))
	case backend.IsUnauthorized(err):
		log.Warn("session rejected", zap.String("op", op), zap.Error(err))
	default:
		log.Error("operation failed", zap.String("op", op), zap.Duration("elapsed", elapsed), zap.Error(err))
	}

	if r.Tracker != nil {
		r.Tracker.Track(op, elapsed, err)
	}
	return err
}
