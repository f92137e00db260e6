// Package registry holds the canonical method inventory and the externally
// declared tool inventory.
//
// Both registries follow the same lifecycle: a load phase populates them
// before any concurrent use, after which they are read-only. They provide no
// internal locking; mutation (Register, LoadFromDeclarative) must be
// serialized by the caller. Hot reload is supported by building a fresh
// registry and atomically swapping the reference, never by mutating one that
// readers can observe.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/casebridge/casebridge/internal/domain"
)

// Standard lookup errors, returned as values so callers can branch on them.
var (
	ErrMethodNotFound = errors.New("method not found")
	ErrToolNotFound   = errors.New("tool not found")
	ErrToolUnbound    = errors.New("tool has no bound method")
)

// DuplicateNameError reports a conflicting re-registration: a definition with
// the same name but a different schema already exists. Re-registering an
// identical definition is a no-op, which keeps loading from two declarative
// sources safe without allowing silent schema drift.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("definition %q already registered with a different schema", e.Name)
}

// ParseError wraps a single malformed declarative record. Loading continues
// past it; the error is reported in the LoadResult.
type ParseError struct {
	Entry string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Entry, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LoadResult summarizes one declarative load: how many definitions were
// registered and the per-entry errors that did not abort the load.
type LoadResult struct {
	Count  int
	Errors []error
}

// MethodSource yields method definitions parsed from one declarative
// document. Records that fail to parse are returned as errors alongside the
// definitions that did parse; one bad record must not hide the others.
type MethodSource interface {
	Methods(ctx context.Context) ([]domain.MethodDefinition, []error)
}

// ToolSource is the tool-side counterpart of MethodSource.
type ToolSource interface {
	Tools(ctx context.Context) ([]domain.ToolDefinition, []error)
}
