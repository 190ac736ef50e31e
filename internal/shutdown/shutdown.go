// Package shutdown releases the resources of a command (analytics database,
// HTTP connections, log file) once, in reverse order of acquisition, whether
// the command returns normally or is interrupted by a signal.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"go.uber.org/zap"

	"taskboard/internal/utils"
)

// CleanupFunc releases one resource. ctx is cancelled when the shutdown
// deadline passes.
type CleanupFunc func(ctx context.Context) error

type cleanupEntry struct {
	name string
	fn   CleanupFunc
}

// Manager coordinates cleanup and cancellation for one command run.
type Manager struct {
	mu       sync.Mutex
	cleanups []cleanupEntry
	ran      bool

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewManager creates a manager whose Context is derived from parent
func NewManager(parent context.Context) *Manager {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Manager{ctx: ctx, cancel: cancel}
}

// RegisterCleanup adds fn. Cleanups run last registered, first called.
func (m *Manager) RegisterCleanup(name string, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, cleanupEntry{name: name, fn: fn})
}

// Shutdown cancels Context. Safe to call more than once.
func (m *Manager) Shutdown() {
	m.once.Do(m.cancel)
}

// HandleSignals calls Shutdown when one of sigs arrives (os.Interrupt when
// none are given). The returned function stops listening.
func (m *Manager) HandleSignals(sigs ...os.Signal) (stop func()) {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			utils.GetLogger().Info("shutting down", zap.Stringer("signal", sig))
			m.Shutdown()
		case <-done:
		}
	}()

	var stopOnce sync.Once
	return func() {
		stopOnce.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}

// Wait shuts down and runs the cleanups once. Every cleanup runs even when
// an earlier one fails; the failures are joined. A ctx that expires first
// returns ctx.Err() while the remaining cleanups finish in the background.
func (m *Manager) Wait(ctx context.Context) error {
	m.Shutdown()

	m.mu.Lock()
	if m.ran {
		m.mu.Unlock()
		return nil
	}
	m.ran = true
	cleanups := make([]cleanupEntry, len(m.cleanups))
	copy(cleanups, m.cleanups)
	m.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			c := cleanups[i]
			if err := c.fn(ctx); err != nil {
				utils.GetLogger().Warn("cleanup failed", zap.String("resource", c.name), zap.Error(err))
				errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			}
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Context is cancelled by Shutdown or by the parent context
func (m *Manager) Context() context.Context {
	return m.ctx
}
