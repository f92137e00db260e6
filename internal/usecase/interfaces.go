package usecase

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/casebridge/casebridge/internal/domain"
	"github.com/casebridge/casebridge/internal/execctx"
	"github.com/casebridge/casebridge/internal/registry"
)

// Standard errors returned by use cases and adapters.
var (
	// ErrExecutionBlocked means the tool has error-severity compatibility
	// findings and must not be invoked.
	ErrExecutionBlocked = errors.New("tool blocked by compatibility errors")

	ErrNotLoaded        = errors.New("registries not loaded")
	ErrCasefileNotFound = errors.New("casefile not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrUnknownService   = errors.New("no invoker for owning service")
)

// ServiceInvoker performs the actual business operation behind a resolved
// method. The core never inspects what the invoker does; it only threads the
// execution context and the validated argument values through.
type ServiceInvoker interface {
	Invoke(ctx context.Context, method domain.MethodDefinition, ec *execctx.Context, args map[string]any) (map[string]any, error)
}

// IdentityProvider supplies the identity values used to construct an
// execution context. The core treats both as opaque strings.
type IdentityProvider interface {
	Identity(ctx context.Context) (userID, sessionID string, err error)
}

// Snapshot bundles one loaded pair of registries with the validation report
// from their checking pass. A snapshot is immutable once published.
type Snapshot struct {
	Methods *registry.MethodRegistry
	Tools   *registry.ToolRegistry
	Report  domain.ValidationReport
}

// SnapshotHolder is the hot-reload mechanism: loading builds a fresh snapshot
// and swaps it in atomically, so no reader ever observes a registry
// mid-rebuild.
type SnapshotHolder struct {
	current atomic.Pointer[Snapshot]
}

// Publish atomically replaces the current snapshot.
func (h *SnapshotHolder) Publish(s *Snapshot) { h.current.Store(s) }

// Current returns the latest published snapshot, or nil before the first
// load completes.
func (h *SnapshotHolder) Current() *Snapshot { return h.current.Load() }
