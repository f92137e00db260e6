// Package execctx carries identity, session and casefile correlation through
// one invocation chain, together with an append-only event trail.
//
// A Context is owned by exactly one invocation chain and is expected to be
// used sequentially within it; RecordEvent is not safe for concurrent appends.
// Callers that fan out into concurrent sub-operations must serialize their
// RecordEvent calls themselves.
package execctx

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MissingIdentityError is returned by New when a mandatory identity field is
// absent. Construction is the only operation on a Context that can fail.
type MissingIdentityError struct {
	Field string
}

func (e *MissingIdentityError) Error() string {
	return fmt.Sprintf("execution context requires %s", e.Field)
}

// Event is one entry in the context's append-only trail.
type Event struct {
	ID      string         `json:"id"`
	Kind    string         `json:"kind"`
	Details map[string]any `json:"details,omitempty"`
	At      time.Time      `json:"at"`
}

// Context correlates every mapper and service call made on behalf of one
// invocation. It is created once per chain, passed by reference, and
// discarded when the chain completes.
type Context struct {
	userID     string
	sessionID  string
	casefileID string
	createdAt  time.Time
	events     []Event
}

// Option customizes a Context at construction time.
type Option func(*Context)

// WithCasefile attaches an optional casefile correlation ID.
func WithCasefile(id string) Option {
	return func(c *Context) { c.casefileID = id }
}

// New builds a Context. UserID and sessionID are mandatory; a missing one
// yields a MissingIdentityError.
func New(userID, sessionID string, opts ...Option) (*Context, error) {
	if userID == "" {
		return nil, &MissingIdentityError{Field: "user ID"}
	}
	if sessionID == "" {
		return nil, &MissingIdentityError{Field: "session ID"}
	}
	c := &Context{
		userID:    userID,
		sessionID: sessionID,
		createdAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// UserID returns the acting user's identifier.
func (c *Context) UserID() string { return c.userID }

// SessionID returns the session identifier.
func (c *Context) SessionID() string { return c.sessionID }

// CasefileID returns the optional casefile correlation ID, empty if unset.
func (c *Context) CasefileID() string { return c.casefileID }

// CreatedAt returns the construction time of the context.
func (c *Context) CreatedAt() time.Time { return c.createdAt }

// RecordEvent appends one event to the trail. It never removes or reorders
// prior events and never fails.
func (c *Context) RecordEvent(kind string, details map[string]any) {
	c.events = append(c.events, Event{
		ID:      uuid.NewString(),
		Kind:    kind,
		Details: details,
		At:      time.Now().UTC(),
	})
}

// Snapshot returns a copy of the event trail in append order. Events and
// their detail maps are copied; mutating the returned slice does not affect
// the context.
func (c *Context) Snapshot() []Event {
	out := make([]Event, len(c.events))
	for i, e := range c.events {
		if e.Details != nil {
			details := make(map[string]any, len(e.Details))
			for k, v := range e.Details {
				details[k] = v
			}
			e.Details = details
		}
		out[i] = e
	}
	return out
}
