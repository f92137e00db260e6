package domain

import "fmt"

// Kind is the shared value-kind vocabulary used by method and tool parameter
// schemas. Both registries speak this vocabulary; the compatibility checker
// compares values of this type, never implementation types.
type Kind string

const (
	KindString     Kind = "string"
	KindInteger    Kind = "integer"
	KindFloat      Kind = "float"
	KindBoolean    Kind = "boolean"
	KindTimestamp  Kind = "timestamp"
	KindIdentifier Kind = "identifier" // string carrying an entity reference (e.g. "cf_250830_k3x")
	KindEnum       Kind = "enum"       // string restricted to AllowedValues
	KindList       Kind = "list"       // homogeneous list, element shape in Elem
	KindRecord     Kind = "record"     // nested record, field shapes in Fields when known
	KindAny        Kind = "any"        // no static guarantee
)

// ValueSpec describes the shape of a single value. Elem is set only for
// KindList. Fields may be set for KindRecord when the record's shape is
// declared; a KindRecord with nil Fields is an opaque record.
type ValueSpec struct {
	Kind   Kind              `json:"kind" yaml:"kind"`
	Elem   *ValueSpec        `json:"elem,omitempty" yaml:"elem,omitempty"`
	Fields []ParameterSchema `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// ListOf returns a list ValueSpec with the given element shape.
func ListOf(elem ValueSpec) ValueSpec {
	return ValueSpec{Kind: KindList, Elem: &elem}
}

// Validate reports whether the spec is structurally well formed. It recurses
// into list elements and record fields, so a malformed fragment is caught no
// matter how deeply it is nested.
func (v ValueSpec) Validate() error {
	switch v.Kind {
	case KindString, KindInteger, KindFloat, KindBoolean, KindTimestamp,
		KindIdentifier, KindEnum, KindAny:
		return nil
	case KindList:
		if v.Elem == nil {
			return fmt.Errorf("list value spec has no element spec")
		}
		return v.Elem.Validate()
	case KindRecord:
		for _, f := range v.Fields {
			if err := f.Validate(); err != nil {
				return fmt.Errorf("record field: %w", err)
			}
		}
		return nil
	case "":
		return fmt.Errorf("value spec has no kind")
	default:
		return fmt.Errorf("unknown value kind %q", v.Kind)
	}
}

// Clone returns a deep copy of the spec.
func (v ValueSpec) Clone() ValueSpec {
	out := v
	if v.Elem != nil {
		elem := v.Elem.Clone()
		out.Elem = &elem
	}
	if v.Fields != nil {
		out.Fields = make([]ParameterSchema, len(v.Fields))
		for i, f := range v.Fields {
			out.Fields[i] = f.Clone()
		}
	}
	return out
}

// ParameterSchema is one method or tool parameter as authored in its owning
// declaration. Name is unique within the owning definition.
type ParameterSchema struct {
	Name           string    `json:"name" yaml:"name"`
	Value          ValueSpec `json:"value" yaml:"value"`
	Required       bool      `json:"required" yaml:"required"`
	DefaultPresent bool      `json:"default_present" yaml:"default_present"`
	AllowedValues  []string  `json:"allowed_values,omitempty" yaml:"allowed_values,omitempty"`
	Description    string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// Validate checks the parameter's own invariants: a parameter cannot be both
// required and defaulted, and its value spec must be well formed.
func (p ParameterSchema) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("parameter has no name")
	}
	if p.Required && p.DefaultPresent {
		return fmt.Errorf("parameter %q is both required and defaulted", p.Name)
	}
	if err := p.Value.Validate(); err != nil {
		return fmt.Errorf("parameter %q: %w", p.Name, err)
	}
	return nil
}

// Clone returns a deep copy of the parameter. Nilness of AllowedValues is
// preserved so clones stay DeepEqual to their originals.
func (p ParameterSchema) Clone() ParameterSchema {
	out := p
	out.Value = p.Value.Clone()
	if p.AllowedValues != nil {
		out.AllowedValues = append([]string{}, p.AllowedValues...)
	}
	return out
}
