package mapper

import (
	"time"

	"github.com/casebridge/casebridge/internal/domain"
)

// CasefilePayload is the external-facing casefile shape. Notes are internal
// to the domain entity and have no slot here.
type CasefilePayload struct {
	ID      string   `json:"id,omitempty"`
	Title   string   `json:"title"`
	Status  string   `json:"status,omitempty"`
	OwnerID string   `json:"owner_id,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// CasefileMapper transforms between CasefilePayload and domain.Casefile.
//
// ToDomain synthesizes: ID in the "cf_<yymmdd>_<suffix>" format when the
// payload carries none, Status defaulting to open, and CreatedAt/UpdatedAt
// set to the mapping time in UTC. Title and OwnerID cannot be synthesized
// and must come from the payload.
type CasefileMapper struct {
	now func() time.Time
}

// NewCasefileMapper creates a mapper using the wall clock.
func NewCasefileMapper() *CasefileMapper {
	return &CasefileMapper{now: time.Now}
}

// NewCasefileMapperAt creates a mapper with an injected clock, for tests.
func NewCasefileMapperAt(now func() time.Time) *CasefileMapper {
	return &CasefileMapper{now: now}
}

// ToDomain builds a fully populated casefile entity from the payload.
func (m *CasefileMapper) ToDomain(payload CasefilePayload) (domain.Casefile, error) {
	if payload.Title == "" {
		return domain.Casefile{}, &IncompleteDomainError{Field: "title"}
	}
	if payload.OwnerID == "" {
		return domain.Casefile{}, &IncompleteDomainError{Field: "owner_id"}
	}

	now := m.now().UTC()
	cf := domain.Casefile{
		ID:        payload.ID,
		Title:     payload.Title,
		Status:    domain.CasefileOpen,
		OwnerID:   payload.OwnerID,
		Tags:      append([]string(nil), payload.Tags...),
		Notes:     []domain.Note{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if cf.ID == "" {
		cf.ID = NewID("cf", now)
	}
	if payload.Status != "" {
		status, valid := casefileStatus(payload.Status)
		if !valid {
			return domain.Casefile{}, &IncompleteDomainError{Field: "status"}
		}
		cf.Status = status
	}
	return cf, nil
}

// ToDto projects the entity's externally visible fields. It synthesizes
// nothing; an entity whose status has no payload representation yields a
// ProjectionError.
func (m *CasefileMapper) ToDto(cf domain.Casefile) (CasefilePayload, error) {
	if _, valid := casefileStatus(string(cf.Status)); !valid {
		return CasefilePayload{}, &ProjectionError{Field: "status"}
	}
	return CasefilePayload{
		ID:      cf.ID,
		Title:   cf.Title,
		Status:  string(cf.Status),
		OwnerID: cf.OwnerID,
		Tags:    append([]string(nil), cf.Tags...),
	}, nil
}

func casefileStatus(s string) (domain.CasefileStatus, bool) {
	switch domain.CasefileStatus(s) {
	case domain.CasefileOpen, domain.CasefileActive, domain.CasefileArchived:
		return domain.CasefileStatus(s), true
	}
	return "", false
}
