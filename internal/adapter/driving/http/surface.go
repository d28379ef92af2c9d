package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

// surfaceBacklog bounds how many undelivered events a slow client may queue.
const surfaceBacklog = 8

var (
	errSurfaceClosed  = errors.New("surface closed")
	errSurfaceBacklog = errors.New("surface backlog full")
)

// visibilityToggler is implemented by surfaces whose visibility is reported
// by the client.
type visibilityToggler interface {
	// SetVisible stores the new visibility and returns the previous one.
	SetVisible(visible bool) bool
}

// sseSurface is a browser connection registered as a presentation surface.
// Outbound messages are queued and written by the request goroutine that owns
// the stream.
type sseSurface struct {
	id      string
	visible atomic.Bool
	events  chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

var (
	_ driven.Surface    = (*sseSurface)(nil)
	_ visibilityToggler = (*sseSurface)(nil)
)

func newSSESurface(id string) *sseSurface {
	s := &sseSurface{
		id:     id,
		events: make(chan []byte, surfaceBacklog),
		done:   make(chan struct{}),
	}
	s.visible.Store(true)
	return s
}

func (s *sseSurface) ID() string { return s.id }

func (s *sseSurface) Visible() bool { return s.visible.Load() }

func (s *sseSurface) SetVisible(visible bool) bool {
	return s.visible.Swap(visible)
}

func (s *sseSurface) OnUpdate(snapshot model.Snapshot) error {
	return s.enqueue(updateDataMessage{Command: commandUpdateData, Data: snapshot})
}

func (s *sseSurface) OnError(message string, requiresReauthentication bool) error {
	return s.enqueue(errorMessage{Command: commandError, Message: message, RequiresAuth: requiresReauthentication})
}

func (s *sseSurface) enqueue(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal surface message: %w", err)
	}

	select {
	case <-s.done:
		return errSurfaceClosed
	default:
	}

	select {
	case s.events <- data:
		return nil
	case <-s.done:
		return errSurfaceClosed
	default:
		return errSurfaceBacklog
	}
}

func (s *sseSurface) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// SurfaceEvents registers the connection as a surface and streams its
// messages as server-sent events until the client disconnects.
func (h *Handler) SurfaceEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	surface := newSSESurface(uuid.NewString())
	defer func() {
		surface.close()
		h.surfaces.Unregister(surface.id)
		h.logger.Debug("surface disconnected", "surface", surface.id)
	}()

	// The stream outlives any server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	hello, _ := json.Marshal(helloMessage{Command: commandHello, SurfaceID: surface.id})
	if err := writeEvent(w, rc, hello); err != nil {
		return
	}
	if err := h.poller.Attach(r.Context(), surface); err != nil {
		h.logger.Warn("surface not attached", "surface", surface.id, "error", err)
		return
	}
	h.logger.Debug("surface connected", "surface", surface.id)

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-surface.events:
			if err := writeEvent(w, rc, data); err != nil {
				h.logger.Debug("surface write failed", "surface", surface.id, "error", err)
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, data []byte) error {
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return rc.Flush()
}
