package domain

import "time"

// CasefileStatus tracks a casefile through its lifecycle.
type CasefileStatus string

const (
	CasefileOpen     CasefileStatus = "open"
	CasefileActive   CasefileStatus = "active"
	CasefileArchived CasefileStatus = "archived"
)

// Casefile is the unit of work the casefile service manages. IDs follow the
// documented format "cf_<yymmdd>_<suffix>" (see the mapper package, which
// synthesizes them).
type Casefile struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Status    CasefileStatus `json:"status"`
	OwnerID   string         `json:"owner_id"`
	Tags      []string       `json:"tags,omitempty"`
	Notes     []Note         `json:"notes,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Note is a timestamped annotation attached to a casefile.
type Note struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Session represents one user session as seen by the session collaborator.
// The core treats its identifiers as opaque strings.
type Session struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	StartedAt    time.Time         `json:"started_at"`
	LastActiveAt time.Time         `json:"last_active_at"`
	Attributes   map[string]string `json:"attributes,omitempty"`
}
