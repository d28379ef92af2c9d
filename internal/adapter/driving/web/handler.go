// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/codeflow/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/codeflow/internal/adapter/driving/web/templates/components"
	"github.com/ericfisherdev/codeflow/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/codeflow/internal/domain/model"
)

// SnapshotReader exposes the most recently published snapshot.
type SnapshotReader interface {
	Latest() (model.Snapshot, bool)
}

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	snapshots SnapshotReader
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(snapshots SnapshotReader, logger *slog.Logger) *Handler {
	return &Handler{
		snapshots: snapshots,
		logger:    logger,
		now:       time.Now,
	}
}

// Dashboard renders the main dashboard page with the full HTML layout.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	EnsureCSRFToken(w, r)

	snapshot, ok := h.snapshots.Latest()
	component := pages.Dashboard(toDashboardViewModel(snapshot, ok, h.now()))
	layout := templates.Layout("CodeFlow", component)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := layout.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render dashboard", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Sections renders only the section lists, for in-place refresh.
func (h *Handler) Sections(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshots.Latest()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := components.Sections(toDashboardViewModel(snapshot, ok, h.now())).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render sections", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
