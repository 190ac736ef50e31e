package taskstore

import (
	"context"
	"sync"
)

// Store runs Update and its effects synchronously until no effects remain.
// It serves the command line and tests; the TUI drives Update through
// bubbletea commands instead.
type Store struct {
	mu     sync.Mutex
	state  State
	runner *Runner
}

// NewStore creates a store starting from initial
func NewStore(initial State, runner *Runner) *Store {
	return &Store{state: initial, runner: runner}
}

// Dispatch applies msg and every follow-up result, then returns the final state
func (s *Store) Dispatch(ctx context.Context, msg Msg) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := []Msg{msg}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		var effects []Effect
		s.state, effects = Update(s.state, next)
		for _, eff := range effects {
			if res := s.runner.Run(ctx, eff); res != nil {
				queue = append(queue, res)
			}
		}
	}
	return s.state
}

// State returns the current state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
