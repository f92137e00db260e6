package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/casebridge/casebridge/internal/checker"
	"github.com/casebridge/casebridge/internal/domain"
	"github.com/casebridge/casebridge/internal/registry"
)

// CheckToolsUseCase runs one compatibility pass over a registry pair and
// publishes the resulting snapshot.
type CheckToolsUseCase struct {
	opts   checker.Options
	holder *SnapshotHolder
	logger *slog.Logger
}

// NewCheckToolsUseCase creates the use case. The holder receives the checked
// snapshot on every Execute call.
func NewCheckToolsUseCase(opts checker.Options, holder *SnapshotHolder, logger *slog.Logger) *CheckToolsUseCase {
	return &CheckToolsUseCase{
		opts:   opts,
		holder: holder,
		logger: logger.With("usecase", "CheckTools"),
	}
}

// Execute checks the given registries, publishes the snapshot, and returns
// the report. Findings are data, not errors; callers inspect the report to
// decide whether to block execution.
func (uc *CheckToolsUseCase) Execute(ctx context.Context, methods *registry.MethodRegistry, tools *registry.ToolRegistry) domain.ValidationReport {
	_, span := otel.Tracer("casebridge/usecase").Start(ctx, "CheckTools")
	defer span.End()

	report := checker.Check(methods, tools, uc.opts)
	span.SetAttributes(
		attribute.Int("check.tools_checked", report.ToolsChecked),
		attribute.Int("check.errors", report.ErrorCount),
		attribute.Int("check.warnings", report.WarningCount),
	)

	uc.holder.Publish(&Snapshot{Methods: methods, Tools: tools, Report: report})

	log := uc.logger.With(
		slog.Int("total_tools", report.TotalTools),
		slog.Int("tools_checked", report.ToolsChecked),
		slog.Int("errors", report.ErrorCount),
		slog.Int("warnings", report.WarningCount))
	if report.HasErrors() {
		log.Warn("Compatibility check found errors; affected tools will not execute")
	} else {
		log.Info("Compatibility check passed")
	}
	return report
}
