package mapper

import (
	"time"

	"github.com/casebridge/casebridge/internal/domain"
)

// SessionPayload is the external-facing session shape.
type SessionPayload struct {
	ID         string            `json:"id,omitempty"`
	UserID     string            `json:"user_id"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// SessionMapper transforms between SessionPayload and domain.Session.
//
// ToDomain synthesizes: ID in the "sn_<yymmdd>_<suffix>" format when the
// payload carries none, and StartedAt/LastActiveAt set to the mapping time in
// UTC. UserID must come from the payload.
type SessionMapper struct {
	now func() time.Time
}

// NewSessionMapper creates a mapper using the wall clock.
func NewSessionMapper() *SessionMapper {
	return &SessionMapper{now: time.Now}
}

// NewSessionMapperAt creates a mapper with an injected clock, for tests.
func NewSessionMapperAt(now func() time.Time) *SessionMapper {
	return &SessionMapper{now: now}
}

// ToDomain builds a fully populated session entity from the payload.
func (m *SessionMapper) ToDomain(payload SessionPayload) (domain.Session, error) {
	if payload.UserID == "" {
		return domain.Session{}, &IncompleteDomainError{Field: "user_id"}
	}
	now := m.now().UTC()
	s := domain.Session{
		ID:           payload.ID,
		UserID:       payload.UserID,
		StartedAt:    now,
		LastActiveAt: now,
	}
	if s.ID == "" {
		s.ID = NewID("sn", now)
	}
	if len(payload.Attributes) > 0 {
		s.Attributes = make(map[string]string, len(payload.Attributes))
		for k, v := range payload.Attributes {
			s.Attributes[k] = v
		}
	}
	return s, nil
}

// ToDto projects the entity's externally visible fields, synthesizing nothing.
func (m *SessionMapper) ToDto(s domain.Session) (SessionPayload, error) {
	p := SessionPayload{
		ID:     s.ID,
		UserID: s.UserID,
	}
	if len(s.Attributes) > 0 {
		p.Attributes = make(map[string]string, len(s.Attributes))
		for k, v := range s.Attributes {
			p.Attributes[k] = v
		}
	}
	return p, nil
}
