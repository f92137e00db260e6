// Package memstore provides in-memory implementations of the casefile and
// session document stores. Unlike the registries, stores are shared across
// concurrent invocation chains, so they lock internally.
// NOTE: not persistent; data is lost on restart.
package memstore

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/casebridge/casebridge/internal/domain"
	"github.com/casebridge/casebridge/internal/usecase"
)

// CasefileStore is an in-memory casefile document store.
type CasefileStore struct {
	mu        sync.RWMutex
	casefiles map[string]domain.Casefile
	logger    *slog.Logger
}

// NewCasefileStore creates an empty in-memory casefile store.
func NewCasefileStore(logger *slog.Logger) *CasefileStore {
	return &CasefileStore{
		casefiles: make(map[string]domain.Casefile),
		logger:    logger.With("component", "casefile_store"),
	}
}

// Save stores or replaces a casefile by ID.
func (s *CasefileStore) Save(ctx context.Context, cf domain.Casefile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.casefiles[cf.ID] = cf
	s.logger.Debug("Saved casefile", slog.String("casefile_id", cf.ID), slog.Int("total", len(s.casefiles)))
	return nil
}

// Get retrieves a casefile by ID.
func (s *CasefileStore) Get(ctx context.Context, id string) (domain.Casefile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cf, ok := s.casefiles[id]
	if !ok {
		s.logger.Warn("Casefile not found", slog.String("casefile_id", id))
		return domain.Casefile{}, usecase.ErrCasefileNotFound
	}
	return cf, nil
}

// List returns all stored casefiles sorted by ID.
func (s *CasefileStore) List(ctx context.Context) ([]domain.Casefile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Casefile, 0, len(s.casefiles))
	for _, cf := range s.casefiles {
		out = append(out, cf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SessionStore is an in-memory session store.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	logger   *slog.Logger
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore(logger *slog.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
		logger:   logger.With("component", "session_store"),
	}
}

// Save stores or replaces a session by ID.
func (s *SessionStore) Save(ctx context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	s.logger.Debug("Saved session", slog.String("session_id", sess.ID))
	return nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(ctx context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		s.logger.Warn("Session not found", slog.String("session_id", id))
		return domain.Session{}, usecase.ErrSessionNotFound
	}
	return sess, nil
}
