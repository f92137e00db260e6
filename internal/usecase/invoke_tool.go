package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/casebridge/casebridge/internal/execctx"
	"github.com/casebridge/casebridge/internal/registry"
)

// InvokeToolUseCase resolves a tool against the current snapshot, refuses to
// proceed when the tool carries error-severity compatibility findings, and
// otherwise builds an execution context and delegates to the service invoker.
type InvokeToolUseCase struct {
	holder   *SnapshotHolder
	invoker  ServiceInvoker
	identity IdentityProvider
	logger   *slog.Logger
}

// NewInvokeToolUseCase creates the use case.
func NewInvokeToolUseCase(holder *SnapshotHolder, invoker ServiceInvoker, identity IdentityProvider, logger *slog.Logger) *InvokeToolUseCase {
	return &InvokeToolUseCase{
		holder:   holder,
		invoker:  invoker,
		identity: identity,
		logger:   logger.With("usecase", "InvokeTool"),
	}
}

// Execute runs one tool invocation chain. It returns the service result and
// the execution context's event trail for audit by the caller.
func (uc *InvokeToolUseCase) Execute(ctx context.Context, toolName string, args map[string]any) (map[string]any, []execctx.Event, error) {
	ctx, span := otel.Tracer("casebridge/usecase").Start(ctx, "InvokeTool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", toolName))

	log := uc.logger.With(slog.String("tool", toolName))

	snap := uc.holder.Current()
	if snap == nil {
		return nil, nil, ErrNotLoaded
	}

	tool, err := snap.Tools.Lookup(toolName)
	if err != nil {
		log.Warn("Tool not found", slog.Any("error", err))
		return nil, nil, err
	}

	method, err := snap.Tools.ResolveBoundMethod(toolName, snap.Methods)
	if err != nil {
		if errors.Is(err, registry.ErrToolUnbound) {
			log.Warn("Tool is self-contained, nothing to invoke")
		} else {
			log.Error("Bound method cannot be resolved", slog.Any("error", err))
		}
		return nil, nil, err
	}

	// The gate: error-severity findings block execution and are surfaced
	// verbatim. Warnings and info findings are advisory.
	if snap.Report.ToolHasErrors(toolName) {
		var lines []string
		for _, m := range snap.Report.ToolMismatches(toolName) {
			lines = append(lines, fmt.Sprintf("[%s] %s: %s", m.Severity, m.Parameter, m.Message))
		}
		log.Error("Refusing to invoke tool with compatibility errors", slog.Int("findings", len(lines)))
		return nil, nil, fmt.Errorf("%w: %s", ErrExecutionBlocked, strings.Join(lines, "; "))
	}

	userID, sessionID, err := uc.identity.Identity(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve identity: %w", err)
	}
	var opts []execctx.Option
	if casefileID, ok := args["casefile_id"].(string); ok && casefileID != "" {
		opts = append(opts, execctx.WithCasefile(casefileID))
	}
	ec, err := execctx.New(userID, sessionID, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build execution context: %w", err)
	}

	ec.RecordEvent("tool_invoked", map[string]any{
		"tool":   tool.Name,
		"method": method.Name,
		"policy": string(tool.Policy),
	})

	log.Info("Invoking service method",
		slog.String("method", method.Name),
		slog.String("service", method.OwningService))
	result, err := uc.invoker.Invoke(ctx, method, ec, args)
	if err != nil {
		ec.RecordEvent("tool_failed", map[string]any{"error": err.Error()})
		log.Error("Service invocation failed", slog.Any("error", err))
		return nil, ec.Snapshot(), fmt.Errorf("failed to invoke tool %s: %w", toolName, err)
	}
	ec.RecordEvent("tool_completed", map[string]any{"method": method.Name})

	log.Info("Tool invocation successful")
	return result, ec.Snapshot(), nil
}
