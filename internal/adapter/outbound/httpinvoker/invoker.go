// Package httpinvoker executes method invocations against a remote service
// over HTTP. It is the fallback collaborator for methods whose owning service
// has no local implementation.
package httpinvoker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/casebridge/casebridge/internal/domain"
	"github.com/casebridge/casebridge/internal/execctx"
)

// Invoker implements usecase.ServiceInvoker using standard net/http. Each
// method is invoked as POST {base}/invoke/{method} with the argument map as
// the JSON body; the execution context rides along as correlation headers.
type Invoker struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// New creates an HTTP invoker for the remote service at baseURL.
func New(baseURL string, client *http.Client, logger *slog.Logger) *Invoker {
	if client == nil {
		client = http.DefaultClient
	}
	return &Invoker{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		logger:  logger.With("component", "http_invoker"),
	}
}

// Invoke executes the upstream HTTP call for the resolved method.
func (i *Invoker) Invoke(ctx context.Context, method domain.MethodDefinition, ec *execctx.Context, args map[string]any) (map[string]any, error) {
	log := i.logger.With(
		slog.String("method", method.Name),
		slog.String("service", method.OwningService),
	)

	endpoint, err := url.JoinPath(i.baseURL, "invoke", method.Name)
	if err != nil {
		return nil, fmt.Errorf("invalid invoke URL for method %s: %w", method.Name, err)
	}

	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal arguments for %s: %w", method.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", ec.UserID())
	req.Header.Set("X-Session-Id", ec.SessionID())
	if ec.CasefileID() != "" {
		req.Header.Set("X-Casefile-Id", ec.CasefileID())
	}

	log.Debug("Executing HTTP invocation", slog.String("url", endpoint))
	resp, err := i.client.Do(req)
	if err != nil {
		log.Error("HTTP request failed", slog.Any("error", err))
		return nil, fmt.Errorf("request execution failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	log = log.With(slog.Int("status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn("Received non-success status code", slog.String("response_body", string(respBody)))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if len(respBody) == 0 {
		return map[string]any{}, nil
	}
	var result map[string]any
	if err := json.Unmarshal(respBody, &result); err != nil {
		log.Warn("Failed to unmarshal JSON response, wrapping raw body", slog.Any("error", err))
		return map[string]any{"raw": string(respBody)}, nil
	}
	return result, nil
}
