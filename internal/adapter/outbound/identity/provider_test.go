package identity_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebridge/casebridge/internal/adapter/outbound/identity"
	"github.com/casebridge/casebridge/internal/adapter/outbound/memstore"
)

func TestProvider_Identity(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("opens one session and reuses it", func(t *testing.T) {
		sessions := memstore.NewSessionStore(logger)
		p := identity.NewProvider("user-1", sessions, logger)

		userID, sessionID, err := p.Identity(ctx)
		require.NoError(t, err)
		assert.Equal(t, "user-1", userID)
		assert.Regexp(t, `^sn_\d{6}_[a-z0-9]{3}$`, sessionID)

		// The session is persisted.
		stored, err := sessions.Get(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "user-1", stored.UserID)

		// Subsequent calls return the same session.
		_, again, err := p.Identity(ctx)
		require.NoError(t, err)
		assert.Equal(t, sessionID, again)
	})

	t.Run("no user configured", func(t *testing.T) {
		p := identity.NewProvider("", memstore.NewSessionStore(logger), logger)
		_, _, err := p.Identity(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no user configured")
	})
}
