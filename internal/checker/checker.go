// Package checker verifies, definition by definition, that every tool's
// declared parameters are structurally and semantically compatible with the
// method the tool binds to. It is a pure computation over two registry
// snapshots: it never mutates its inputs, never performs I/O, and never
// raises on malformed declarations, so it may run repeatedly and concurrently
// with itself.
package checker

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/casebridge/casebridge/internal/domain"
	"github.com/casebridge/casebridge/internal/registry"
)

// Options controls one checking pass.
type Options struct {
	// SkipToolsWithoutMethod excludes unbound tools and tools with a dangling
	// method reference from the ToolsChecked count. When false such tools are
	// counted and flagged instead (info for unbound, warning for dangling).
	SkipToolsWithoutMethod bool
}

// DefaultOptions returns the options used when callers have no opinion.
func DefaultOptions() Options {
	return Options{SkipToolsWithoutMethod: true}
}

// Check runs one compatibility pass over the two registries and returns the
// aggregated report. Findings are produced in a stable order (tools by name,
// parameters within a tool by name) so that two passes over unchanged
// registries yield byte-identical reports.
func Check(methods *registry.MethodRegistry, tools *registry.ToolRegistry, opts Options) domain.ValidationReport {
	report := domain.ValidationReport{TotalTools: tools.Len()}
	flagged := make(map[string]struct{})

	for _, tool := range tools.All() {
		method, err := tools.ResolveBoundMethod(tool.Name, methods)
		if err != nil {
			report.ToolsWithoutMethods = append(report.ToolsWithoutMethods, tool.Name)
			if opts.SkipToolsWithoutMethod {
				continue
			}
			report.ToolsChecked++
			finding := domain.Mismatch{
				Tool:      tool.Name,
				Parameter: domain.SchemaParameter,
			}
			if errors.Is(err, registry.ErrToolUnbound) {
				finding.Severity = domain.SeverityInfo
				finding.Message = "tool declares no bound method"
			} else {
				finding.Method = tool.BoundMethod
				finding.Severity = domain.SeverityWarning
				finding.Message = fmt.Sprintf("bound method %q is not registered", tool.BoundMethod)
			}
			report.Mismatches = append(report.Mismatches, finding)
			flagged[tool.Name] = struct{}{}
			continue
		}

		report.ToolsChecked++
		findings := checkTool(tool, method)
		if len(findings) > 0 {
			flagged[tool.Name] = struct{}{}
		}
		report.Mismatches = append(report.Mismatches, findings...)
	}

	sort.Strings(report.ToolsWithoutMethods)
	report.ToolsWithMismatches = len(flagged)
	for _, m := range report.Mismatches {
		switch m.Severity {
		case domain.SeverityError:
			report.ErrorCount++
		case domain.SeverityWarning:
			report.WarningCount++
		}
	}
	return report
}

// checkTool produces the findings for one tool against its resolved method.
// Malformed parameters on either side become "<schema>" error findings and
// are excluded from the name-wise comparison, so one bad fragment never
// hides findings about the rest of the declaration.
func checkTool(tool domain.ToolDefinition, method domain.MethodDefinition) []domain.Mismatch {
	var findings []domain.Mismatch
	emit := func(param string, sev domain.Severity, msg string, tv, mv *domain.ParameterSchema) {
		findings = append(findings, domain.Mismatch{
			Tool:        tool.Name,
			Method:      method.Name,
			Parameter:   param,
			Severity:    sev,
			Message:     msg,
			ToolValue:   tv,
			MethodValue: mv,
		})
	}

	methodParams := make(map[string]domain.ParameterSchema, len(method.Parameters))
	for _, p := range method.Parameters {
		if err := p.Validate(); err != nil {
			emit(domain.SchemaParameter, domain.SeverityError,
				fmt.Sprintf("method schema fragment unparseable: %v", err), nil, nil)
			continue
		}
		methodParams[p.Name] = p
	}
	toolParams := make(map[string]domain.ParameterSchema, len(tool.Parameters))
	for _, p := range tool.Parameters {
		if err := p.Validate(); err != nil {
			emit(domain.SchemaParameter, domain.SeverityError,
				fmt.Sprintf("tool schema fragment unparseable: %v", err), nil, nil)
			continue
		}
		toolParams[p.Name] = p
	}

	for _, name := range sortedKeys(methodParams) {
		mp := methodParams[name]
		tp, exposed := toolParams[name]
		if !exposed {
			if mp.Required && !mp.DefaultPresent {
				emit(name, domain.SeverityError, "missing required parameter", nil, &mp)
			} else {
				emit(name, domain.SeverityInfo, "optional parameter not exposed by tool", nil, &mp)
			}
			continue
		}

		if v := compareValues(tp.Value, mp.Value); v.severity != "" {
			emit(name, v.severity, v.message, &tp, &mp)
		}

		if mp.Required && !tp.Required {
			emit(name, domain.SeverityError, "tool marks required parameter as optional", &tp, &mp)
		} else if !mp.Required && tp.Required {
			emit(name, domain.SeverityWarning, "tool marks optional parameter as required", &tp, &mp)
		}

		if mp.Value.Kind == domain.KindEnum && tp.Value.Kind == domain.KindEnum {
			if f := compareEnums(tp, mp); f.severity != "" {
				emit(name, f.severity, f.message, &tp, &mp)
			}
		}
	}

	for _, name := range sortedKeys(toolParams) {
		if _, known := methodParams[name]; !known {
			tp := toolParams[name]
			emit(name, domain.SeverityWarning, "tool declares parameter unknown to method", &tp, nil)
		}
	}

	return findings
}

// compareEnums checks the tool's enumeration against the method's. The tool
// may restrict the method's set but never extend it.
func compareEnums(tool, method domain.ParameterSchema) verdict {
	if len(tool.AllowedValues) == 0 {
		if len(method.AllowedValues) > 0 {
			return warn("tool declares no enumeration for enumerated method parameter")
		}
		return ok()
	}
	if len(method.AllowedValues) == 0 {
		return ok()
	}
	allowed := make(map[string]struct{}, len(method.AllowedValues))
	for _, v := range method.AllowedValues {
		allowed[v] = struct{}{}
	}
	var offending []string
	for _, v := range tool.AllowedValues {
		if _, found := allowed[v]; !found {
			offending = append(offending, v)
		}
	}
	if len(offending) == 0 {
		return ok()
	}
	sort.Strings(offending)
	return fail("tool allows values not accepted by method: %s", strings.Join(offending, ", "))
}

func sortedKeys(params map[string]domain.ParameterSchema) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
