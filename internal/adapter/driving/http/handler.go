package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/codeflow/internal/adapter/driving/web"
	"github.com/ericfisherdev/codeflow/internal/application"
	"github.com/ericfisherdev/codeflow/internal/domain/model"
	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

// Poller is the subset of the poll service the API drives.
type Poller interface {
	Refresh(ctx context.Context) error
	ResetNotifications(ctx context.Context) error
	Latest() (model.Snapshot, bool)
	// Attach registers a surface and sends it the latest snapshot in order
	// with the poll cycles that publish to it.
	Attach(ctx context.Context, surface driven.Surface) error
}

// Dispatcher executes commands sent by a surface.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd model.SurfaceCommand) error
}

// NotificationStateReader exposes the notifier's bookkeeping state.
type NotificationStateReader interface {
	State() model.NotificationState
}

// Handler is the HTTP driving adapter that serves the REST API and the
// server-sent events surface endpoints.
type Handler struct {
	poller        Poller
	dispatcher    Dispatcher
	authenticator application.Authenticator
	notifications NotificationStateReader
	surfaces      *application.SurfaceRegistry
	logger        *slog.Logger

	keepAlive time.Duration
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	poller Poller,
	dispatcher Dispatcher,
	authenticator application.Authenticator,
	notifications NotificationStateReader,
	surfaces *application.SurfaceRegistry,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		poller:        poller,
		dispatcher:    dispatcher,
		authenticator: authenticator,
		notifications: notifications,
		surfaces:      surfaces,
		logger:        logger,
		keepAlive:     15 * time.Second,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging, CSRF and recovery middleware. webHandler may be nil to serve
// the API only.
func NewServeMux(h *Handler, webHandler *web.Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/dashboard", h.GetDashboard)
	mux.HandleFunc("POST /api/v1/refresh", h.Refresh)
	mux.HandleFunc("POST /api/v1/auth", h.Authenticate)
	mux.HandleFunc("GET /api/v1/notifications", h.GetNotifications)
	mux.HandleFunc("POST /api/v1/notifications/reset", h.ResetNotifications)
	mux.HandleFunc("GET /api/v1/surfaces/events", h.SurfaceEvents)
	mux.HandleFunc("POST /api/v1/surfaces/{id}/messages", h.SurfaceMessage)
	mux.HandleFunc("POST /api/v1/surfaces/{id}/visibility", h.SurfaceVisibility)

	if webHandler != nil {
		web.RegisterRoutes(mux, webHandler)
	}

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = web.CSRFProtect(wrapped)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	_, ok := h.poller.Latest()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Time:     time.Now().UTC().Format(time.RFC3339),
		HasData:  ok,
		Surfaces: h.surfaces.Len(),
	})
}

// GetDashboard returns the most recently published snapshot.
func (h *Handler) GetDashboard(w http.ResponseWriter, _ *http.Request) {
	snapshot, ok := h.poller.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no dashboard data yet")
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// Refresh runs a poll cycle and waits for it to finish.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.poller.Refresh(r.Context()); err != nil {
		h.writeServiceError(w, "refresh failed", err, http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Authenticate validates and stores a GitHub token, then starts an
// asynchronous refresh with the new credentials.
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username, err := h.authenticator.Authenticate(r.Context(), req.Token)
	if err != nil {
		h.writeServiceError(w, "authentication failed", err, http.StatusInternalServerError)
		return
	}

	// The request context ends with the response, so the refresh gets its own.
	go func() {
		if err := h.poller.Refresh(context.Background()); err != nil {
			h.logger.Error("refresh after authentication failed", "error", err)
		}
	}()

	writeJSON(w, http.StatusOK, AuthResponse{Username: username})
}

// GetNotifications returns when each pull request was last alerted on.
func (h *Handler) GetNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toNotificationsResponse(h.notifications.State()))
}

// ResetNotifications clears the notification state; the next poll raises no
// alerts.
func (h *Handler) ResetNotifications(w http.ResponseWriter, r *http.Request) {
	if err := h.poller.ResetNotifications(r.Context()); err != nil {
		h.writeServiceError(w, "reset notifications failed", err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SurfaceMessage decodes a command sent by a connected surface and dispatches it.
func (h *Handler) SurfaceMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.surfaces.Get(id); err != nil {
		h.writeServiceError(w, "surface lookup failed", err, http.StatusInternalServerError)
		return
	}

	var msg SurfaceMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cmd, err := msg.toCommand()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), cmd); err != nil {
		h.logger.Warn("surface command failed", "surface", id, "command", msg.Command, "error", err)
		h.writeServiceError(w, "command failed", err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SurfaceVisibility records whether a surface is visible. A surface that
// becomes visible gets a fresh poll, which replaces any data it missed while
// hidden.
func (h *Handler) SurfaceVisibility(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	surface, err := h.surfaces.Get(id)
	if err != nil {
		h.writeServiceError(w, "surface lookup failed", err, http.StatusInternalServerError)
		return
	}

	toggler, ok := surface.(visibilityToggler)
	if !ok {
		writeError(w, http.StatusBadRequest, "surface does not accept visibility updates")
		return
	}

	var req VisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wasVisible := toggler.SetVisible(req.Visible)
	if req.Visible && !wasVisible {
		go func() {
			if err := h.poller.Refresh(context.Background()); err != nil {
				h.logger.Debug("refresh on visibility change failed", "surface", id, "error", err)
			}
		}()
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps domain and application errors to HTTP statuses.
// Errors with no specific mapping use fallback.
func (h *Handler) writeServiceError(w http.ResponseWriter, msg string, err error, fallback int) {
	switch {
	case errors.Is(err, application.ErrTokenRequired),
		errors.Is(err, application.ErrInvalidToken),
		errors.Is(err, application.ErrEmptyURL):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, driven.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, driven.ErrSurfaceNotFound):
		writeError(w, http.StatusNotFound, "surface not found")
	case errors.Is(err, application.ErrSchedulerStopped):
		writeError(w, http.StatusServiceUnavailable, "service is shutting down")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		h.logger.Error(msg, "error", err)
		writeError(w, fallback, msg)
	}
}
