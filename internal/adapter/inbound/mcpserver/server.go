// Package mcpserver exposes checked tools over the Model Context Protocol
// using mark3labs/mcp-go. Only tools that resolved a bound method and carry
// no error-severity findings are registered; everything else stays invisible
// to MCP clients.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"

	"github.com/casebridge/casebridge/internal/domain"
	"github.com/casebridge/casebridge/internal/usecase"
)

// Adapter registers tool definitions on an MCP server and bridges incoming
// tool calls to the invoke use case.
type Adapter struct {
	server     *mcpGoServer.MCPServer
	invoke     *usecase.InvokeToolUseCase
	logger     *slog.Logger
	registered map[string]struct{}
}

// New creates the adapter around an existing MCP server instance.
func New(server *mcpGoServer.MCPServer, invoke *usecase.InvokeToolUseCase, logger *slog.Logger) *Adapter {
	return &Adapter{
		server:     server,
		invoke:     invoke,
		logger:     logger.With("component", "mcp_server"),
		registered: make(map[string]struct{}),
	}
}

// RegisterTools walks the snapshot and registers every executable tool. Tools
// registered by a previous pass that are no longer executable are removed, so
// a reload that flags or drops a tool hides it from MCP clients too. It
// returns the number of tools registered.
func (a *Adapter) RegisterTools(snap *usecase.Snapshot) int {
	desired := make(map[string]struct{})
	registered := 0
	for _, tool := range snap.Tools.All() {
		log := a.logger.With(slog.String("tool", tool.Name))
		if tool.BoundMethod == "" {
			log.Debug("Skipping self-contained tool")
			continue
		}
		if _, err := snap.Methods.Lookup(tool.BoundMethod); err != nil {
			log.Warn("Skipping tool with unresolved bound method", slog.String("method", tool.BoundMethod))
			continue
		}
		if snap.Report.ToolHasErrors(tool.Name) {
			log.Warn("Skipping tool with compatibility errors")
			continue
		}
		a.server.AddTool(toMCPTool(tool), a.handler(tool.Name))
		desired[tool.Name] = struct{}{}
		registered++
		log.Debug("Registered tool on MCP server")
	}

	var stale []string
	for name := range a.registered {
		if _, keep := desired[name]; !keep {
			stale = append(stale, name)
		}
	}
	if len(stale) > 0 {
		a.server.DeleteTools(stale...)
		a.logger.Info("Removed stale tools from MCP server", slog.Int("count", len(stale)))
	}
	a.registered = desired

	a.logger.Info("Registered tools on MCP server", slog.Int("count", registered))
	return registered
}

func (a *Adapter) handler(toolName string) mcpGoServer.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, _, err := a.invoke.Execute(ctx, toolName, request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		payload, err := json.Marshal(result)
		if err != nil {
			return mcp.NewToolResultError("failed to encode result: " + err.Error()), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}

// toMCPTool converts a tool definition's declared parameters to the JSON
// schema shape MCP clients expect.
func toMCPTool(tool domain.ToolDefinition) mcp.Tool {
	properties := make(map[string]any, len(tool.Parameters))
	var required []string
	for _, p := range tool.Parameters {
		properties[p.Name] = toJSONSchema(p)
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return mcp.Tool{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}

func toJSONSchema(p domain.ParameterSchema) map[string]any {
	schema := valueToJSONSchema(p.Value, p.AllowedValues)
	if p.Description != "" {
		schema["description"] = p.Description
	}
	return schema
}

func valueToJSONSchema(v domain.ValueSpec, allowed []string) map[string]any {
	switch v.Kind {
	case domain.KindString, domain.KindIdentifier:
		return map[string]any{"type": "string"}
	case domain.KindEnum:
		schema := map[string]any{"type": "string"}
		if len(allowed) > 0 {
			values := make([]any, 0, len(allowed))
			for _, s := range allowed {
				values = append(values, s)
			}
			schema["enum"] = values
		}
		return schema
	case domain.KindTimestamp:
		return map[string]any{"type": "string", "format": "date-time"}
	case domain.KindInteger:
		return map[string]any{"type": "integer"}
	case domain.KindFloat:
		return map[string]any{"type": "number"}
	case domain.KindBoolean:
		return map[string]any{"type": "boolean"}
	case domain.KindList:
		schema := map[string]any{"type": "array"}
		if v.Elem != nil {
			schema["items"] = valueToJSONSchema(*v.Elem, nil)
		}
		return schema
	case domain.KindRecord:
		schema := map[string]any{"type": "object"}
		if len(v.Fields) > 0 {
			props := make(map[string]any, len(v.Fields))
			var required []string
			for _, f := range v.Fields {
				props[f.Name] = toJSONSchema(f)
				if f.Required {
					required = append(required, f.Name)
				}
			}
			schema["properties"] = props
			if len(required) > 0 {
				schema["required"] = required
			}
		}
		return schema
	default:
		return map[string]any{}
	}
}
