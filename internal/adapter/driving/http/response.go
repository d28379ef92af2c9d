package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Time     string `json:"time"`
	HasData  bool   `json:"has_data"`
	Surfaces int    `json:"surfaces"`
}

// AuthRequest is the JSON body for the authenticate endpoint.
type AuthRequest struct {
	Token string `json:"token"`
}

// AuthResponse reports the GitHub login the token belongs to.
type AuthResponse struct {
	Username string `json:"username"`
}

// NotificationResponse is one entry of the notification state.
type NotificationResponse struct {
	PRID         string `json:"pr_id"`
	LastNotified string `json:"last_notified"`
}

// NotificationsResponse is the JSON representation of the notification state,
// most recent first.
type NotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
}

// VisibilityRequest is the JSON body of the surface visibility endpoint.
type VisibilityRequest struct {
	Visible bool `json:"visible"`
}

// Surface message commands, in both directions.
const (
	commandRefresh      = "refresh"
	commandAuthenticate = "authenticate"
	commandOpenPR       = "openPR"

	commandHello      = "hello"
	commandUpdateData = "updateData"
	commandError      = "error"
)

// SurfaceMessageRequest is an inbound message from a surface. Only the fields
// of the named command are read.
type SurfaceMessageRequest struct {
	Command string `json:"command"`
	Token   string `json:"token,omitempty"`
	URL     string `json:"url,omitempty"`
}

// toCommand decodes the message into one of the closed set of surface commands.
func (m SurfaceMessageRequest) toCommand() (model.SurfaceCommand, error) {
	switch m.Command {
	case commandRefresh:
		return model.RefreshCommand{}, nil
	case commandAuthenticate:
		return model.AuthenticateCommand{Token: m.Token}, nil
	case commandOpenPR:
		return model.OpenPRCommand{URL: m.URL}, nil
	case "":
		return nil, errors.New("command is required")
	default:
		return nil, fmt.Errorf("unknown command %q", m.Command)
	}
}

type helloMessage struct {
	Command   string `json:"command"`
	SurfaceID string `json:"surfaceId"`
}

type updateDataMessage struct {
	Command string         `json:"command"`
	Data    model.Snapshot `json:"data"`
}

type errorMessage struct {
	Command      string `json:"command"`
	Message      string `json:"message"`
	RequiresAuth bool   `json:"requiresAuth"`
}

func toNotificationsResponse(state model.NotificationState) NotificationsResponse {
	resp := NotificationsResponse{Notifications: make([]NotificationResponse, 0, len(state.LastNotified))}
	for id, at := range state.LastNotified {
		resp.Notifications = append(resp.Notifications, NotificationResponse{
			PRID:         id,
			LastNotified: at.UTC().Format(time.RFC3339),
		})
	}

	sort.Slice(resp.Notifications, func(i, j int) bool {
		a, b := resp.Notifications[i], resp.Notifications[j]
		if a.LastNotified != b.LastNotified {
			return a.LastNotified > b.LastNotified
		}
		return a.PRID < b.PRID
	})

	return resp
}
