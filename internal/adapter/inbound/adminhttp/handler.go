// Package adminhttp exposes the management endpoints: reloading the
// registries and fetching the latest validation report.
package adminhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/casebridge/casebridge/internal/usecase"
	"github.com/casebridge/casebridge/pkg/reportfmt"
)

// Handlers holds dependencies for the admin HTTP handlers.
type Handlers struct {
	holder *usecase.SnapshotHolder
	reload func(ctx context.Context) error
	logger *slog.Logger
}

// New creates the admin handlers. reload rebuilds and republishes the
// registries snapshot; it is invoked by POST /admin/reload.
func New(holder *usecase.SnapshotHolder, reload func(ctx context.Context) error, logger *slog.Logger) *Handlers {
	return &Handlers{
		holder: holder,
		reload: reload,
		logger: logger.With("component", "adminhttp_handler"),
	}
}

// RegisterRoutes sets up the admin routes on the mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /admin/reload", h.handleReload)
	mux.HandleFunc("GET /admin/report", h.handleReport)
}

func (h *Handlers) handleReload(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Received reload request")
	if err := h.reload(r.Context()); err != nil {
		h.logger.Error("Reload failed", slog.Any("error", err))
		http.Error(w, fmt.Sprintf("Reload failed: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintln(w, "Reload complete")
}

func (h *Handlers) handleReport(w http.ResponseWriter, r *http.Request) {
	snap := h.holder.Current()
	if snap == nil {
		http.Error(w, "Registries not loaded yet", http.StatusServiceUnavailable)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		reportfmt.Write(w, snap.Report)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap.Report); err != nil {
		h.logger.Error("Failed to encode report", slog.Any("error", err))
	}
}
