// Package declarative loads method and tool definitions from YAML declaration
// documents. A document may carry a "methods" section, a "tools" section, or
// both; each entry maps to one definition. Malformed entries become
// per-record parse errors and never abort a load.
package declarative

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/casebridge/casebridge/internal/domain"
	"github.com/casebridge/casebridge/internal/registry"
)

// Source reads one YAML declaration document. It implements both
// registry.MethodSource and registry.ToolSource since one document may
// declare both kinds of definitions.
type Source struct {
	path   string
	logger *slog.Logger
}

// NewSource creates a source for the document at path.
func NewSource(path string, logger *slog.Logger) *Source {
	return &Source{
		path:   path,
		logger: logger.With("component", "declarative_source", "path", path),
	}
}

type document struct {
	Methods []yaml.Node `yaml:"methods"`
	Tools   []yaml.Node `yaml:"tools"`
}

// Methods parses the document's methods section. A document-level read or
// parse failure is returned as a single error; entry-level failures are
// accumulated per record.
func (s *Source) Methods(ctx context.Context) ([]domain.MethodDefinition, []error) {
	doc, err := s.read()
	if err != nil {
		return nil, []error{err}
	}
	var defs []domain.MethodDefinition
	var errs []error
	for i, node := range doc.Methods {
		def, err := decodeMethod(&node)
		if err != nil {
			errs = append(errs, &registry.ParseError{Entry: fmt.Sprintf("methods[%d]", i), Err: err})
			continue
		}
		defs = append(defs, def)
	}
	s.logger.Debug("Parsed method declarations", slog.Int("count", len(defs)), slog.Int("errors", len(errs)))
	return defs, errs
}

// Tools parses the document's tools section, with the same error behavior as
// Methods.
func (s *Source) Tools(ctx context.Context) ([]domain.ToolDefinition, []error) {
	doc, err := s.read()
	if err != nil {
		return nil, []error{err}
	}
	var defs []domain.ToolDefinition
	var errs []error
	for i, node := range doc.Tools {
		def, err := decodeTool(&node)
		if err != nil {
			errs = append(errs, &registry.ParseError{Entry: fmt.Sprintf("tools[%d]", i), Err: err})
			continue
		}
		defs = append(defs, def)
	}
	s.logger.Debug("Parsed tool declarations", slog.Int("count", len(defs)), slog.Int("errors", len(errs)))
	return defs, errs
}

func (s *Source) read() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read declaration document %s: %w", s.path, err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal declaration document %s: %w", s.path, err)
	}
	return &doc, nil
}

// rawValue is a value shape as authored: either a bare kind string
// ("string", "integer") or a map with kind plus elem/fields for lists and
// records.
type rawValue struct {
	Kind   string     `yaml:"kind"`
	Elem   *rawValue  `yaml:"elem"`
	Fields []rawParam `yaml:"fields"`
}

func (v *rawValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&v.Kind)
	}
	type plain rawValue
	return node.Decode((*plain)(v))
}

type rawParam struct {
	Name        string     `yaml:"name"`
	Kind        string     `yaml:"kind"`
	Elem        *rawValue  `yaml:"elem"`
	Fields      []rawParam `yaml:"fields"`
	Required    *bool      `yaml:"required"`
	Default     yaml.Node  `yaml:"default"`
	Enum        []string   `yaml:"enum"`
	Description string     `yaml:"description"`
}

type rawMethod struct {
	Name          string     `yaml:"name"`
	Description   string     `yaml:"description"`
	OwningService string     `yaml:"owning_service"`
	SideEffects   string     `yaml:"side_effects"`
	ReturnKind    *rawValue  `yaml:"return_kind"`
	Parameters    []rawParam `yaml:"parameters"`
}

type rawTool struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Method      string     `yaml:"method"`
	Policy      string     `yaml:"policy"`
	Parameters  []rawParam `yaml:"parameters"`
}

// requiredSentinel is the authoring convention inherited from the upstream
// declaration format: a parameter whose default is the literal "..." is fully
// required and has no default. The loader normalizes it into the required
// flag right here; nothing downstream ever sees the sentinel.
const requiredSentinel = "..."

func decodeMethod(node *yaml.Node) (domain.MethodDefinition, error) {
	var raw rawMethod
	if err := node.Decode(&raw); err != nil {
		return domain.MethodDefinition{}, err
	}
	def := domain.MethodDefinition{
		Name:          raw.Name,
		Description:   raw.Description,
		OwningService: raw.OwningService,
	}
	var err error
	if def.SideEffects, err = parseSideEffects(raw.SideEffects); err != nil {
		return domain.MethodDefinition{}, err
	}
	if raw.ReturnKind != nil {
		if def.ReturnKind, err = parseValue(*raw.ReturnKind); err != nil {
			return domain.MethodDefinition{}, fmt.Errorf("return kind: %w", err)
		}
	} else {
		def.ReturnKind = domain.ValueSpec{Kind: domain.KindAny}
	}
	if def.Parameters, err = parseParams(raw.Parameters); err != nil {
		return domain.MethodDefinition{}, err
	}
	if err := def.Validate(); err != nil {
		return domain.MethodDefinition{}, err
	}
	return def, nil
}

func decodeTool(node *yaml.Node) (domain.ToolDefinition, error) {
	var raw rawTool
	if err := node.Decode(&raw); err != nil {
		return domain.ToolDefinition{}, err
	}
	def := domain.ToolDefinition{
		Name:        raw.Name,
		Description: raw.Description,
		BoundMethod: raw.Method,
	}
	var err error
	if def.Policy, err = parsePolicy(raw.Policy); err != nil {
		return domain.ToolDefinition{}, err
	}
	if def.Parameters, err = parseParams(raw.Parameters); err != nil {
		return domain.ToolDefinition{}, err
	}
	if err := def.Validate(); err != nil {
		return domain.ToolDefinition{}, err
	}
	return def, nil
}

func parseParams(raws []rawParam) ([]domain.ParameterSchema, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	params := make([]domain.ParameterSchema, 0, len(raws))
	for _, raw := range raws {
		p, err := parseParam(raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", raw.Name, err)
		}
		params = append(params, p)
	}
	return params, nil
}

func parseParam(raw rawParam) (domain.ParameterSchema, error) {
	value, err := parseValue(rawValue{Kind: raw.Kind, Elem: raw.Elem, Fields: raw.Fields})
	if err != nil {
		return domain.ParameterSchema{}, err
	}
	p := domain.ParameterSchema{
		Name:          raw.Name,
		Value:         value,
		AllowedValues: raw.Enum,
		Description:   raw.Description,
	}

	// Normalize the default declaration. The "..." sentinel means required
	// with no default; any other present default means optional.
	sentinel := false
	hasDefault := !raw.Default.IsZero()
	if hasDefault {
		var s string
		if err := raw.Default.Decode(&s); err == nil && s == requiredSentinel {
			sentinel = true
			hasDefault = false
		}
	}
	switch {
	case raw.Required != nil:
		p.Required = *raw.Required
	case sentinel:
		p.Required = true
	default:
		p.Required = false
	}
	p.DefaultPresent = hasDefault
	if p.Required && p.DefaultPresent {
		return domain.ParameterSchema{}, fmt.Errorf("declared both required and defaulted")
	}
	return p, nil
}

func parseValue(raw rawValue) (domain.ValueSpec, error) {
	kind, err := parseKind(raw.Kind)
	if err != nil {
		return domain.ValueSpec{}, err
	}
	spec := domain.ValueSpec{Kind: kind}
	if kind == domain.KindList {
		if raw.Elem == nil {
			return domain.ValueSpec{}, fmt.Errorf("list parameter declares no element kind")
		}
		elem, err := parseValue(*raw.Elem)
		if err != nil {
			return domain.ValueSpec{}, err
		}
		spec.Elem = &elem
	}
	if kind == domain.KindRecord && len(raw.Fields) > 0 {
		fields, err := parseParams(raw.Fields)
		if err != nil {
			return domain.ValueSpec{}, err
		}
		spec.Fields = fields
	}
	return spec, nil
}

func parseKind(s string) (domain.Kind, error) {
	switch normalize(s) {
	case "string", "str":
		return domain.KindString, nil
	case "integer", "int":
		return domain.KindInteger, nil
	case "float", "number":
		return domain.KindFloat, nil
	case "boolean", "bool":
		return domain.KindBoolean, nil
	case "timestamp", "datetime":
		return domain.KindTimestamp, nil
	case "identifier", "id":
		return domain.KindIdentifier, nil
	case "enum":
		return domain.KindEnum, nil
	case "list", "array":
		return domain.KindList, nil
	case "record", "object":
		return domain.KindRecord, nil
	case "any":
		return domain.KindAny, nil
	case "":
		return "", fmt.Errorf("declares no value kind")
	default:
		return "", fmt.Errorf("unknown value kind %q", s)
	}
}

func parseSideEffects(s string) (domain.SideEffects, error) {
	switch normalize(s) {
	case "read_only", "readonly", "":
		return domain.SideEffectsReadOnly, nil
	case "mutating":
		return domain.SideEffectsMutating, nil
	case "bulk_mutating":
		return domain.SideEffectsBulkMutating, nil
	default:
		return "", fmt.Errorf("unknown side effects classification %q", s)
	}
}

func parsePolicy(s string) (domain.ExecutionPolicy, error) {
	switch normalize(s) {
	case "direct", "":
		return domain.PolicyDirect, nil
	case "dry_run_capable", "dry_run":
		return domain.PolicyDryRunCapable, nil
	case "requires_confirmation", "confirm":
		return domain.PolicyRequiresConfirmation, nil
	default:
		return "", fmt.Errorf("unknown execution policy %q", s)
	}
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}
