// Package identity supplies the user and session identifiers execution
// contexts are built from. This implementation serves a single configured
// user and lazily opens one session in the session store.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/casebridge/casebridge/internal/adapter/outbound/memstore"
	"github.com/casebridge/casebridge/internal/mapper"
)

// Provider implements usecase.IdentityProvider for a single local user.
type Provider struct {
	userID   string
	sessions *memstore.SessionStore
	mapper   *mapper.SessionMapper
	logger   *slog.Logger

	once      sync.Once
	sessionID string
	initErr   error
}

// NewProvider creates a provider for the given user.
func NewProvider(userID string, sessions *memstore.SessionStore, logger *slog.Logger) *Provider {
	return &Provider{
		userID:   userID,
		sessions: sessions,
		mapper:   mapper.NewSessionMapper(),
		logger:   logger.With("component", "identity_provider"),
	}
}

// Identity returns the configured user and the provider's session, opening
// the session on first use.
func (p *Provider) Identity(ctx context.Context) (string, string, error) {
	if p.userID == "" {
		return "", "", fmt.Errorf("no user configured for identity provider")
	}
	p.once.Do(func() {
		session, err := p.mapper.ToDomain(mapper.SessionPayload{UserID: p.userID})
		if err != nil {
			p.initErr = fmt.Errorf("failed to open session: %w", err)
			return
		}
		if err := p.sessions.Save(ctx, session); err != nil {
			p.initErr = fmt.Errorf("failed to store session: %w", err)
			return
		}
		p.sessionID = session.ID
		p.logger.Info("Opened session", slog.String("session_id", session.ID), slog.String("user_id", p.userID))
	})
	if p.initErr != nil {
		return "", "", p.initErr
	}
	return p.userID, p.sessionID, nil
}
