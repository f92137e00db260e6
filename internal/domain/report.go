package domain

// Severity ranks a compatibility finding. Errors block execution, warnings
// are advisory, info findings are purely informational.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// SchemaParameter is the pseudo parameter name used for findings about a
// declaration whose schema fragment could not be interpreted at all.
const SchemaParameter = "<schema>"

// Mismatch is one diagnostic finding comparing a tool's declared parameter to
// its bound method's parameter. Mismatches are data, never raised as errors;
// they are produced by the checker and consumed into a ValidationReport.
type Mismatch struct {
	Tool        string           `json:"tool"`
	Method      string           `json:"method,omitempty"`
	Parameter   string           `json:"parameter"`
	Severity    Severity         `json:"severity"`
	Message     string           `json:"message"`
	ToolValue   *ParameterSchema `json:"tool_value,omitempty"`
	MethodValue *ParameterSchema `json:"method_value,omitempty"`
}

// ValidationReport aggregates one checking pass over the two registries.
// It is built fresh on every pass and never mutated afterwards.
type ValidationReport struct {
	TotalTools          int        `json:"total_tools"`
	ToolsChecked        int        `json:"tools_checked"`
	ToolsWithMismatches int        `json:"tools_with_mismatches"`
	ToolsWithoutMethods []string   `json:"tools_without_methods,omitempty"`
	Mismatches          []Mismatch `json:"mismatches,omitempty"`
	ErrorCount          int        `json:"error_count"`
	WarningCount        int        `json:"warning_count"`
}

// HasErrors reports whether any finding carries error severity. Callers are
// expected to refuse execution of the affected tools when this is true.
func (r ValidationReport) HasErrors() bool { return r.ErrorCount > 0 }

// ToolMismatches returns the findings for one tool, in report order.
func (r ValidationReport) ToolMismatches(tool string) []Mismatch {
	var out []Mismatch
	for _, m := range r.Mismatches {
		if m.Tool == tool {
			out = append(out, m)
		}
	}
	return out
}

// ToolHasErrors reports whether the named tool has any error-severity finding.
func (r ValidationReport) ToolHasErrors(tool string) bool {
	for _, m := range r.Mismatches {
		if m.Tool == tool && m.Severity == SeverityError {
			return true
		}
	}
	return false
}
