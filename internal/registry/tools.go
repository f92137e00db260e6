package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/casebridge/casebridge/internal/domain"
)

// ToolRegistry stores externally declared tool definitions, keyed by name.
// Same contract shape and lifecycle as MethodRegistry.
type ToolRegistry struct {
	byName map[string]domain.ToolDefinition
	logger *slog.Logger
}

// NewToolRegistry creates an empty tool registry.
func NewToolRegistry(logger *slog.Logger) *ToolRegistry {
	return &ToolRegistry{
		byName: make(map[string]domain.ToolDefinition),
		logger: logger.With("component", "tool_registry"),
	}
}

// Register adds a definition, with the same idempotency and drift rules as
// MethodRegistry.Register.
func (r *ToolRegistry) Register(def domain.ToolDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}
	if existing, ok := r.byName[def.Name]; ok {
		if reflect.DeepEqual(existing, def) {
			r.logger.Debug("Identical tool re-registered, ignoring", slog.String("tool", def.Name))
			return nil
		}
		return &DuplicateNameError{Name: def.Name}
	}
	r.byName[def.Name] = def.Clone()
	r.logger.Debug("Registered tool",
		slog.String("tool", def.Name),
		slog.String("bound_method", def.BoundMethod))
	return nil
}

// Lookup returns the named definition or ErrToolNotFound. The returned
// definition is a deep copy.
func (r *ToolRegistry) Lookup(name string) (domain.ToolDefinition, error) {
	def, ok := r.byName[name]
	if !ok {
		return domain.ToolDefinition{}, fmt.Errorf("tool %q: %w", name, ErrToolNotFound)
	}
	return def.Clone(), nil
}

// All returns a snapshot of every definition, sorted by name. The snapshot is
// a deep copy; callers cannot mutate registry state through it.
func (r *ToolRegistry) All() []domain.ToolDefinition {
	out := make([]domain.ToolDefinition, 0, len(r.byName))
	for _, def := range r.byName {
		out = append(out, def.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered tools.
func (r *ToolRegistry) Len() int { return len(r.byName) }

// ResolveBoundMethod resolves the named tool's method reference against the
// given method registry. It returns ErrToolNotFound when the tool itself is
// unknown, ErrToolUnbound when the tool declares no method reference, and
// ErrMethodNotFound when the reference names an unregistered method. The
// latter two are ordinary outcomes, not load failures: unbound tools are
// valid, and a dangling reference is surfaced by the compatibility checker.
func (r *ToolRegistry) ResolveBoundMethod(name string, methods *MethodRegistry) (domain.MethodDefinition, error) {
	tool, err := r.Lookup(name)
	if err != nil {
		return domain.MethodDefinition{}, err
	}
	if tool.BoundMethod == "" {
		return domain.MethodDefinition{}, fmt.Errorf("tool %q: %w", name, ErrToolUnbound)
	}
	def, err := methods.Lookup(tool.BoundMethod)
	if err != nil {
		if errors.Is(err, ErrMethodNotFound) {
			return domain.MethodDefinition{}, fmt.Errorf("tool %q bound method: %w", name, err)
		}
		return domain.MethodDefinition{}, err
	}
	return def, nil
}

// LoadFromDeclarative registers every definition the source yields, with the
// same partial-success behavior as the method registry.
func (r *ToolRegistry) LoadFromDeclarative(ctx context.Context, src ToolSource) LoadResult {
	defs, errs := src.Tools(ctx)
	result := LoadResult{Errors: errs}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("tool %q: %w", def.Name, err))
			continue
		}
		result.Count++
	}
	r.logger.Info("Loaded tool definitions",
		slog.Int("count", result.Count),
		slog.Int("errors", len(result.Errors)),
		slog.Int("total", len(r.byName)))
	return result
}
