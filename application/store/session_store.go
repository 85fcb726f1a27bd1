// Package store owns the single shared mutable resource of the system: the
// in-memory session. Every mutation is expressed as a transformation over
// the current state at apply time, never as a precomputed replacement value,
// so interleaved async completions cannot clobber each other's fields.
package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"conceptmap-backend/application/ports"
	"conceptmap-backend/domain/core/aggregates"
)

// SessionStore serializes all session access behind one mutex and persists
// the whole session after every committed change. Mutations run under the
// lock against the current state; asynchronous enrichment completions
// re-locate their target by key inside their transformation, which is what
// makes completion-order application safe.
type SessionStore struct {
	mu      sync.RWMutex
	session *aggregates.Session
	repo    ports.SessionRepository
	logger  *zap.Logger
}

// NewSessionStore loads the persisted session and wraps it
func NewSessionStore(ctx context.Context, repo ports.SessionRepository, logger *zap.Logger) *SessionStore {
	session := repo.Load(ctx)
	logger.Info("session loaded",
		zap.Int("version", session.Version),
		zap.Int("projects", len(session.Projects)),
		zap.String("activeProjectId", session.ActiveProjectID),
	)

	return &SessionStore{
		session: session,
		repo:    repo,
		logger:  logger,
	}
}

// Update applies a transformation to the current session and persists the
// result. When fn returns an error the session is left as fn left it only if
// fn made no changes; by convention transformations validate before
// mutating, so an error means no state change.
func (s *SessionStore) Update(ctx context.Context, fn func(*aggregates.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.session); err != nil {
		return err
	}

	if err := s.repo.Save(ctx, s.session); err != nil {
		// The in-memory state is ahead of storage; keep serving it and let
		// the next successful save catch up.
		s.logger.Error("session save failed", zap.Error(err))
		return err
	}
	return nil
}

// Read runs fn against the current session under a read lock. fn must not
// retain references past its return.
func (s *SessionStore) Read(fn func(*aggregates.Session)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.session)
}
