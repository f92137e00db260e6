// Package openapi derives method definitions from an OpenAPI document. Each
// operation becomes one MethodDefinition: query and path parameters plus the
// JSON request body's top-level properties make up the parameter schema. This
// lets a backend that already publishes an OpenAPI contract act as a
// declarative method source without hand-written declarations.
package openapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/casebridge/casebridge/internal/domain"
	"github.com/casebridge/casebridge/internal/registry"
)

// Source loads one OpenAPI document from a URL or a local file path and
// implements registry.MethodSource.
type Source struct {
	src        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSource creates a source for the OpenAPI document at src.
func NewSource(src string, client *http.Client, logger *slog.Logger) *Source {
	if client == nil {
		client = http.DefaultClient
	}
	return &Source{
		src:        src,
		httpClient: client,
		logger:     logger.With("component", "openapi_source", "source", src),
	}
}

// Methods fetches and parses the document, yielding one definition per
// operation. A document-level failure is returned as a single error;
// per-operation conversion failures are accumulated without aborting.
func (s *Source) Methods(ctx context.Context) ([]domain.MethodDefinition, []error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, []error{err}
	}

	service := sanitizeName(doc.Info.Title)
	if service == "" {
		service = "openapi"
	}

	var defs []domain.MethodDefinition
	var errs []error

	paths := doc.Paths.Map()
	pathKeys := make([]string, 0, len(paths))
	for p := range paths {
		pathKeys = append(pathKeys, p)
	}
	sort.Strings(pathKeys)

	for _, path := range pathKeys {
		item := paths[path]
		if item == nil {
			continue
		}
		for httpMethod, op := range item.Operations() {
			if op == nil {
				continue
			}
			name := methodName(service, path, httpMethod, op)
			def, err := s.convertOperation(name, service, httpMethod, op)
			if err != nil {
				errs = append(errs, &registry.ParseError{Entry: name, Err: err})
				continue
			}
			defs = append(defs, def)
		}
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	s.logger.Info("Derived method definitions from OpenAPI document",
		slog.Int("count", len(defs)), slog.Int("errors", len(errs)))
	return defs, errs
}

func (s *Source) load(ctx context.Context) (*openapi3.T, error) {
	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: true}

	var data []byte
	u, parseErr := url.ParseRequestURI(s.src)
	if parseErr == nil && (u.Scheme == "http" || u.Scheme == "https") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.src, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request for %s: %w", s.src, err)
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch OpenAPI document from %s: %w", s.src, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch OpenAPI document from %s: status %s", s.src, resp.Status)
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body from %s: %w", s.src, err)
		}
	} else {
		var err error
		data, err = os.ReadFile(s.src)
		if err != nil {
			return nil, fmt.Errorf("failed to read OpenAPI document %s: %w", s.src, err)
		}
	}

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document %s: %w", s.src, err)
	}
	if err := doc.Validate(ctx); err != nil {
		s.logger.Warn("OpenAPI document validation failed", slog.Any("error", err))
	}
	return doc, nil
}

func (s *Source) convertOperation(name, service, httpMethod string, op *openapi3.Operation) (domain.MethodDefinition, error) {
	def := domain.MethodDefinition{
		Name:          name,
		Description:   op.Description,
		OwningService: service,
		SideEffects:   sideEffects(httpMethod),
		ReturnKind:    returnKind(op),
	}
	if def.Description == "" {
		def.Description = op.Summary
	}

	seen := make(map[string]struct{})
	for _, ref := range op.Parameters {
		if ref == nil || ref.Value == nil || ref.Value.Schema == nil || ref.Value.Schema.Value == nil {
			continue
		}
		param := ref.Value
		if param.In != openapi3.ParameterInQuery && param.In != openapi3.ParameterInPath {
			continue
		}
		value, allowed, err := convertSchema(param.Schema.Value)
		if err != nil {
			return domain.MethodDefinition{}, fmt.Errorf("parameter %s: %w", param.Name, err)
		}
		seen[param.Name] = struct{}{}
		def.Parameters = append(def.Parameters, domain.ParameterSchema{
			Name:           param.Name,
			Value:          value,
			Required:       param.Required,
			DefaultPresent: !param.Required && param.Schema.Value.Default != nil,
			AllowedValues:  allowed,
			Description:    param.Description,
		})
	}

	if body := jsonBodySchema(op.RequestBody); body != nil {
		required := make(map[string]struct{}, len(body.Required))
		for _, r := range body.Required {
			required[r] = struct{}{}
		}
		propNames := make([]string, 0, len(body.Properties))
		for n := range body.Properties {
			propNames = append(propNames, n)
		}
		sort.Strings(propNames)
		for _, propName := range propNames {
			ref := body.Properties[propName]
			if ref == nil || ref.Value == nil {
				continue
			}
			if _, collision := seen[propName]; collision {
				s.logger.Warn("Body property collides with parameter name, skipping",
					slog.String("method", name), slog.String("field", propName))
				continue
			}
			value, allowed, err := convertSchema(ref.Value)
			if err != nil {
				return domain.MethodDefinition{}, fmt.Errorf("body field %s: %w", propName, err)
			}
			_, isRequired := required[propName]
			def.Parameters = append(def.Parameters, domain.ParameterSchema{
				Name:           propName,
				Value:          value,
				Required:       isRequired,
				DefaultPresent: !isRequired && ref.Value.Default != nil,
				AllowedValues:  allowed,
				Description:    ref.Value.Description,
			})
		}
	}

	if err := def.Validate(); err != nil {
		return domain.MethodDefinition{}, err
	}
	return def, nil
}

// convertSchema maps a JSON schema to the shared value-kind vocabulary.
// Enumerated strings become the enum kind with their allowed values; the
// date-time format becomes the timestamp kind.
func convertSchema(schema *openapi3.Schema) (domain.ValueSpec, []string, error) {
	if schema.Type == nil {
		return domain.ValueSpec{Kind: domain.KindAny}, nil, nil
	}
	switch {
	case schema.Type.Is(openapi3.TypeString):
		if len(schema.Enum) > 0 {
			return domain.ValueSpec{Kind: domain.KindEnum}, enumValues(schema.Enum), nil
		}
		if schema.Format == "date-time" || schema.Format == "date" {
			return domain.ValueSpec{Kind: domain.KindTimestamp}, nil, nil
		}
		if schema.Format == "uuid" {
			return domain.ValueSpec{Kind: domain.KindIdentifier}, nil, nil
		}
		return domain.ValueSpec{Kind: domain.KindString}, nil, nil
	case schema.Type.Is(openapi3.TypeInteger):
		return domain.ValueSpec{Kind: domain.KindInteger}, nil, nil
	case schema.Type.Is(openapi3.TypeNumber):
		return domain.ValueSpec{Kind: domain.KindFloat}, nil, nil
	case schema.Type.Is(openapi3.TypeBoolean):
		return domain.ValueSpec{Kind: domain.KindBoolean}, nil, nil
	case schema.Type.Is(openapi3.TypeArray):
		if schema.Items == nil || schema.Items.Value == nil {
			return domain.ValueSpec{}, nil, fmt.Errorf("array schema has no items")
		}
		elem, _, err := convertSchema(schema.Items.Value)
		if err != nil {
			return domain.ValueSpec{}, nil, err
		}
		return domain.ListOf(elem), nil, nil
	case schema.Type.Is(openapi3.TypeObject):
		spec := domain.ValueSpec{Kind: domain.KindRecord}
		required := make(map[string]struct{}, len(schema.Required))
		for _, r := range schema.Required {
			required[r] = struct{}{}
		}
		names := make([]string, 0, len(schema.Properties))
		for n := range schema.Properties {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, fieldName := range names {
			ref := schema.Properties[fieldName]
			if ref == nil || ref.Value == nil {
				continue
			}
			value, allowed, err := convertSchema(ref.Value)
			if err != nil {
				return domain.ValueSpec{}, nil, fmt.Errorf("field %s: %w", fieldName, err)
			}
			_, isRequired := required[fieldName]
			spec.Fields = append(spec.Fields, domain.ParameterSchema{
				Name:          fieldName,
				Value:         value,
				Required:      isRequired,
				AllowedValues: allowed,
			})
		}
		return spec, nil, nil
	default:
		return domain.ValueSpec{}, nil, fmt.Errorf("unsupported schema type %v", schema.Type.Slice())
	}
}

func enumValues(enum []any) []string {
	out := make([]string, 0, len(enum))
	for _, v := range enum {
		out = append(out, fmt.Sprintf("%v", v))
	}
	sort.Strings(out)
	return out
}

func jsonBodySchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil || body.Value.Content == nil {
		return nil
	}
	content := body.Value.Content.Get("application/json")
	if content == nil || content.Schema == nil || content.Schema.Value == nil {
		return nil
	}
	schema := content.Schema.Value
	if schema.Type == nil || !schema.Type.Is(openapi3.TypeObject) {
		return nil
	}
	return schema
}

func returnKind(op *openapi3.Operation) domain.ValueSpec {
	if op.Responses != nil {
		if resp := op.Responses.Status(200); resp != nil && resp.Value != nil && resp.Value.Content != nil {
			content := resp.Value.Content.Get("application/json")
			if content != nil && content.Schema != nil && content.Schema.Value != nil {
				if spec, _, err := convertSchema(content.Schema.Value); err == nil {
					return spec
				}
			}
		}
	}
	return domain.ValueSpec{Kind: domain.KindAny}
}

func sideEffects(httpMethod string) domain.SideEffects {
	switch strings.ToUpper(httpMethod) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return domain.SideEffectsReadOnly
	default:
		return domain.SideEffectsMutating
	}
}

// methodName derives a stable method name: the operation ID when present,
// otherwise service + verb + path segments.
func methodName(service, path, httpMethod string, op *openapi3.Operation) string {
	if op.OperationID != "" {
		return fmt.Sprintf("%s_%s", service, sanitizeName(op.OperationID))
	}
	parts := []string{service, strings.ToLower(httpMethod)}
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" || strings.HasPrefix(part, "{") {
			continue
		}
		parts = append(parts, sanitizeName(part))
	}
	return strings.Join(parts, "_")
}

func sanitizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
