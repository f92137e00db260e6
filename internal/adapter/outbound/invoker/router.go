// Package invoker routes a resolved method invocation to the collaborator
// that owns it.
package invoker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/casebridge/casebridge/internal/domain"
	"github.com/casebridge/casebridge/internal/execctx"
	"github.com/casebridge/casebridge/internal/usecase"
)

// Router implements usecase.ServiceInvoker by dispatching on the method's
// owning service: local implementations first, then the HTTP fallback when
// one is configured.
type Router struct {
	local    map[string]usecase.ServiceInvoker
	fallback usecase.ServiceInvoker
	logger   *slog.Logger
}

// NewRouter creates a router. fallback may be nil when every owning service
// has a local implementation.
func NewRouter(local map[string]usecase.ServiceInvoker, fallback usecase.ServiceInvoker, logger *slog.Logger) *Router {
	return &Router{
		local:    local,
		fallback: fallback,
		logger:   logger.With("component", "invoker_router"),
	}
}

// Invoke routes the invocation by method.OwningService.
func (r *Router) Invoke(ctx context.Context, method domain.MethodDefinition, ec *execctx.Context, args map[string]any) (map[string]any, error) {
	log := r.logger.With(slog.String("service", method.OwningService), slog.String("method", method.Name))

	if inv, ok := r.local[method.OwningService]; ok {
		log.Debug("Routing to local service")
		return inv.Invoke(ctx, method, ec, args)
	}
	if r.fallback != nil {
		log.Debug("Routing to HTTP fallback")
		return r.fallback.Invoke(ctx, method, ec, args)
	}
	log.Error("No invoker for owning service")
	return nil, fmt.Errorf("%w: %s", usecase.ErrUnknownService, method.OwningService)
}
