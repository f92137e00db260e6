package mapper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebridge/casebridge/internal/domain"
	"github.com/casebridge/casebridge/internal/mapper"
)

func TestSessionMapper_ToDomain(t *testing.T) {
	m := mapper.NewSessionMapperAt(fixedClock)

	t.Run("synthesizes ID and timestamps", func(t *testing.T) {
		s, err := m.ToDomain(mapper.SessionPayload{
			UserID:     "user-1",
			Attributes: map[string]string{"client": "cli"},
		})
		require.NoError(t, err)

		assert.Regexp(t, `^sn_250830_[a-z0-9]{3}$`, s.ID)
		assert.Equal(t, "user-1", s.UserID)
		assert.Equal(t, fixedNow, s.StartedAt)
		assert.Equal(t, fixedNow, s.LastActiveAt)
		assert.Equal(t, map[string]string{"client": "cli"}, s.Attributes)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := m.ToDomain(mapper.SessionPayload{})
		var incomplete *mapper.IncompleteDomainError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, "user_id", incomplete.Field)
	})

	t.Run("attributes are copied not aliased", func(t *testing.T) {
		attrs := map[string]string{"client": "cli"}
		s, err := m.ToDomain(mapper.SessionPayload{UserID: "user-1", Attributes: attrs})
		require.NoError(t, err)

		attrs["client"] = "mutated"
		assert.Equal(t, "cli", s.Attributes["client"])
	})
}

func TestSessionMapper_ToDto(t *testing.T) {
	m := mapper.NewSessionMapperAt(fixedClock)

	payload, err := m.ToDto(domain.Session{
		ID:           "sn_250830_abc",
		UserID:       "user-1",
		StartedAt:    fixedNow,
		LastActiveAt: fixedNow,
		Attributes:   map[string]string{"client": "cli"},
	})
	require.NoError(t, err)

	assert.Equal(t, mapper.SessionPayload{
		ID:         "sn_250830_abc",
		UserID:     "user-1",
		Attributes: map[string]string{"client": "cli"},
	}, payload)
}
