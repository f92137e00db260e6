package registry

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/casebridge/casebridge/internal/domain"
)

// MethodRegistry is the canonical store of method definitions, keyed by name.
// See the package comment for the single-writer/many-reader contract.
type MethodRegistry struct {
	byName map[string]domain.MethodDefinition
	logger *slog.Logger
}

// NewMethodRegistry creates an empty method registry.
func NewMethodRegistry(logger *slog.Logger) *MethodRegistry {
	return &MethodRegistry{
		byName: make(map[string]domain.MethodDefinition),
		logger: logger.With("component", "method_registry"),
	}
}

// Register adds a definition. Re-registering an identical definition is a
// no-op; re-registering the same name with a different schema returns a
// DuplicateNameError. An invalid definition is rejected without touching
// registry state.
func (r *MethodRegistry) Register(def domain.MethodDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid method definition: %w", err)
	}
	if existing, ok := r.byName[def.Name]; ok {
		if reflect.DeepEqual(existing, def) {
			r.logger.Debug("Identical method re-registered, ignoring", slog.String("method", def.Name))
			return nil
		}
		return &DuplicateNameError{Name: def.Name}
	}
	r.byName[def.Name] = def.Clone()
	r.logger.Debug("Registered method", slog.String("method", def.Name), slog.String("service", def.OwningService))
	return nil
}

// Lookup returns the named definition or ErrMethodNotFound. The returned
// definition is a deep copy.
func (r *MethodRegistry) Lookup(name string) (domain.MethodDefinition, error) {
	def, ok := r.byName[name]
	if !ok {
		return domain.MethodDefinition{}, fmt.Errorf("method %q: %w", name, ErrMethodNotFound)
	}
	return def.Clone(), nil
}

// All returns a snapshot of every definition, sorted by name. The snapshot is
// a deep copy; callers cannot mutate registry state through it, not even
// through nested parameter slices.
func (r *MethodRegistry) All() []domain.MethodDefinition {
	out := make([]domain.MethodDefinition, 0, len(r.byName))
	for _, def := range r.byName {
		out = append(out, def.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered methods.
func (r *MethodRegistry) Len() int { return len(r.byName) }

// LoadFromDeclarative registers every definition the source yields,
// accumulating per-entry errors instead of aborting. Partial success is
// normal and reported in the result.
func (r *MethodRegistry) LoadFromDeclarative(ctx context.Context, src MethodSource) LoadResult {
	defs, errs := src.Methods(ctx)
	result := LoadResult{Errors: errs}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("method %q: %w", def.Name, err))
			continue
		}
		result.Count++
	}
	r.logger.Info("Loaded method definitions",
		slog.Int("count", result.Count),
		slog.Int("errors", len(result.Errors)),
		slog.Int("total", len(r.byName)))
	return result
}
