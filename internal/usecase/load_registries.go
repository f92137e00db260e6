package usecase

import (
	"context"
	"log/slog"

	"github.com/casebridge/casebridge/internal/registry"
)

// LoadRegistriesUseCase builds fresh method and tool registries from the
// configured declarative sources. Every load constructs new registry
// instances, never mutating ones already published, which is what makes
// reloading safe for concurrent readers.
type LoadRegistriesUseCase struct {
	methodSources []registry.MethodSource
	toolSources   []registry.ToolSource
	logger        *slog.Logger
}

// NewLoadRegistriesUseCase creates the use case over the given sources.
func NewLoadRegistriesUseCase(
	methodSources []registry.MethodSource,
	toolSources []registry.ToolSource,
	logger *slog.Logger,
) *LoadRegistriesUseCase {
	return &LoadRegistriesUseCase{
		methodSources: methodSources,
		toolSources:   toolSources,
		logger:        logger.With("usecase", "LoadRegistries"),
	}
}

// Execute loads every source into a fresh registry pair. Per-entry errors are
// collected and returned alongside the registries; they never abort the load,
// so one malformed declaration cannot empty the registries.
func (uc *LoadRegistriesUseCase) Execute(ctx context.Context) (*registry.MethodRegistry, *registry.ToolRegistry, []error) {
	methods := registry.NewMethodRegistry(uc.logger)
	tools := registry.NewToolRegistry(uc.logger)

	var errs []error
	for _, src := range uc.methodSources {
		result := methods.LoadFromDeclarative(ctx, src)
		errs = append(errs, result.Errors...)
	}
	for _, src := range uc.toolSources {
		result := tools.LoadFromDeclarative(ctx, src)
		errs = append(errs, result.Errors...)
	}

	uc.logger.Info("Registries loaded",
		slog.Int("methods", methods.Len()),
		slog.Int("tools", tools.Len()),
		slog.Int("errors", len(errs)))
	for _, err := range errs {
		uc.logger.Warn("Declarative load error", slog.Any("error", err))
	}
	return methods, tools, errs
}
