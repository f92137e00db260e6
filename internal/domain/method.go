package domain

import "fmt"

// SideEffects classifies what a method does to backend state. The invocation
// layer uses it to decide whether a tool's execution policy is strict enough.
type SideEffects string

const (
	SideEffectsReadOnly     SideEffects = "read_only"
	SideEffectsMutating     SideEffects = "mutating"
	SideEffectsBulkMutating SideEffects = "bulk_mutating"
)

// MethodDefinition is a canonical backend operation: the single source of
// truth a tool's declared parameters are checked against. Definitions are
// created at registry-load time and immutable afterwards.
type MethodDefinition struct {
	Name          string            `json:"name" yaml:"name"`
	Description   string            `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters    []ParameterSchema `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	ReturnKind    ValueSpec         `json:"return_kind" yaml:"return_kind"`
	SideEffects   SideEffects       `json:"side_effects" yaml:"side_effects"`
	OwningService string            `json:"owning_service" yaml:"owning_service"`
}

// Validate checks the definition's structural invariants: a non-empty name
// and uniquely named, individually valid parameters.
func (m MethodDefinition) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("method has no name")
	}
	seen := make(map[string]struct{}, len(m.Parameters))
	for _, p := range m.Parameters {
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("method %q declares parameter %q twice", m.Name, p.Name)
		}
		seen[p.Name] = struct{}{}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("method %q: %w", m.Name, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the definition.
func (m MethodDefinition) Clone() MethodDefinition {
	out := m
	if m.Parameters != nil {
		out.Parameters = make([]ParameterSchema, len(m.Parameters))
		for i, p := range m.Parameters {
			out.Parameters[i] = p.Clone()
		}
	}
	out.ReturnKind = m.ReturnKind.Clone()
	return out
}

// Parameter returns the named parameter, if declared.
func (m MethodDefinition) Parameter(name string) (ParameterSchema, bool) {
	for _, p := range m.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSchema{}, false
}
