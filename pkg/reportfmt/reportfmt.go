// Package reportfmt renders a validation report for humans. Rendering is a
// presentation concern; the report value itself is the core's only artifact.
package reportfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/casebridge/casebridge/internal/domain"
)

// Write renders the report as indented text. Findings keep their report
// order, so the output is byte-identical across runs on unchanged input.
func Write(w io.Writer, report domain.ValidationReport) {
	fmt.Fprintln(w, "Compatibility report")
	fmt.Fprintf(w, "  tools: %d total, %d checked, %d with findings\n",
		report.TotalTools, report.ToolsChecked, report.ToolsWithMismatches)
	fmt.Fprintf(w, "  findings: %d errors, %d warnings\n", report.ErrorCount, report.WarningCount)
	if len(report.ToolsWithoutMethods) > 0 {
		fmt.Fprintf(w, "  tools without methods: %s\n", strings.Join(report.ToolsWithoutMethods, ", "))
	}

	currentTool := ""
	for _, m := range report.Mismatches {
		if m.Tool != currentTool {
			currentTool = m.Tool
			if m.Method != "" {
				fmt.Fprintf(w, "\n  %s -> %s\n", m.Tool, m.Method)
			} else {
				fmt.Fprintf(w, "\n  %s\n", m.Tool)
			}
		}
		fmt.Fprintf(w, "    [%-7s] %s: %s\n", m.Severity, m.Parameter, m.Message)
	}
}
