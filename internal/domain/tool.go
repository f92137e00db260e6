package domain

import "fmt"

// ExecutionPolicy states how a tool expects to be run.
type ExecutionPolicy string

const (
	PolicyDirect               ExecutionPolicy = "direct"
	PolicyDryRunCapable        ExecutionPolicy = "dry_run_capable"
	PolicyRequiresConfirmation ExecutionPolicy = "requires_confirmation"
)

// ToolDefinition is an externally declared invocable unit. A tool MAY bind to
// a method by name (BoundMethod empty means the tool is self-contained). The
// binding is resolved lazily: the method may be registered after the tool.
//
// Tools and methods are authored independently, so the declared parameters
// here are the tool author's claim about the method's inputs. The checker is
// what verifies that claim.
type ToolDefinition struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	BoundMethod string            `json:"bound_method,omitempty" yaml:"bound_method,omitempty"`
	Parameters  []ParameterSchema `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Policy      ExecutionPolicy   `json:"policy,omitempty" yaml:"policy,omitempty"`
}

// Validate checks the definition's structural invariants.
func (t ToolDefinition) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("tool has no name")
	}
	seen := make(map[string]struct{}, len(t.Parameters))
	for _, p := range t.Parameters {
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("tool %q declares parameter %q twice", t.Name, p.Name)
		}
		seen[p.Name] = struct{}{}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("tool %q: %w", t.Name, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the definition.
func (t ToolDefinition) Clone() ToolDefinition {
	out := t
	if t.Parameters != nil {
		out.Parameters = make([]ParameterSchema, len(t.Parameters))
		for i, p := range t.Parameters {
			out.Parameters[i] = p.Clone()
		}
	}
	return out
}

// Parameter returns the named declared parameter, if present.
func (t ToolDefinition) Parameter(name string) (ParameterSchema, bool) {
	for _, p := range t.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSchema{}, false
}
