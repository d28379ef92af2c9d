// Package tui implements the terminal sidebar: a bubbletea program that is
// both a presentation surface and the alerter for change notifications.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

// SurfaceID identifies the terminal sidebar in the surface registry.
const SurfaceID = "tui"

// DefaultAlertTTL is how long an unanswered alert stays on screen.
const DefaultAlertTTL = 2 * time.Minute

const messageBacklog = 16

var (
	errNotRunning = errors.New("terminal ui is not running")
	errBacklog    = errors.New("terminal ui backlog full")
)

// Dispatcher executes commands issued from the sidebar.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd model.SurfaceCommand) error
}

// DispatcherFunc adapts a function to Dispatcher. It lets the sidebar be built
// before the services it drives, which themselves need the sidebar as alerter.
type DispatcherFunc func(ctx context.Context, cmd model.SurfaceCommand) error

// Dispatch calls f(ctx, cmd).
func (f DispatcherFunc) Dispatch(ctx context.Context, cmd model.SurfaceCommand) error {
	return f(ctx, cmd)
}

// Sidebar owns the bubbletea program. Messages from other goroutines are
// queued and forwarded to the program by a single pump goroutine.
type Sidebar struct {
	dispatcher Dispatcher
	alertTTL   time.Duration
	logger     *slog.Logger

	msgs chan tea.Msg
	done chan struct{}

	mu      sync.Mutex
	ctx     context.Context
	pending map[string]chan model.AlertAction
}

var (
	_ driven.Surface = (*Sidebar)(nil)
	_ driven.Alerter = (*Sidebar)(nil)
)

// New creates a Sidebar. A non-positive alertTTL falls back to DefaultAlertTTL.
func New(dispatcher Dispatcher, alertTTL time.Duration, logger *slog.Logger) *Sidebar {
	if alertTTL <= 0 {
		alertTTL = DefaultAlertTTL
	}

	return &Sidebar{
		dispatcher: dispatcher,
		alertTTL:   alertTTL,
		logger:     logger,
		msgs:       make(chan tea.Msg, messageBacklog),
		done:       make(chan struct{}),
		ctx:        context.Background(),
		pending:    make(map[string]chan model.AlertAction),
	}
}

// Run starts the program on the terminal and blocks until the user quits or
// ctx is canceled. Canceling ctx is not reported as an error.
func (s *Sidebar) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	p := tea.NewProgram(
		newModel(s.dispatch, s.resolve, s.alertTTL),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	go s.pump(p)
	defer close(s.done)

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	s.logger.Info("terminal ui exited")
	return nil
}

// pump forwards queued messages to the program in order.
func (s *Sidebar) pump(p *tea.Program) {
	for {
		select {
		case msg := <-s.msgs:
			p.Send(msg)
		case <-s.done:
			return
		}
	}
}

func (s *Sidebar) ID() string { return SurfaceID }

// Visible is true until the program exits. Updates sent before Run starts are
// queued and shown once the program is up.
func (s *Sidebar) Visible() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func (s *Sidebar) OnUpdate(snapshot model.Snapshot) error {
	return s.send(snapshotMsg{snapshot: snapshot})
}

func (s *Sidebar) OnError(message string, requiresReauthentication bool) error {
	return s.send(fetchErrorMsg{message: message, requiresAuth: requiresReauthentication})
}

// Present shows the alert as a banner and waits for the user's choice. An
// alert that is not answered within the TTL resolves to AlertActionNone.
func (s *Sidebar) Present(ctx context.Context, alert model.Alert) (model.AlertAction, error) {
	reply := make(chan model.AlertAction, 1)

	s.mu.Lock()
	s.pending[alert.ID] = reply
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, alert.ID)
		s.mu.Unlock()
	}()

	if err := s.send(alertMsg{alert: alert}); err != nil {
		return model.AlertActionNone, err
	}

	timer := time.NewTimer(s.alertTTL)
	defer timer.Stop()

	select {
	case action := <-reply:
		return action, nil
	case <-timer.C:
		return model.AlertActionNone, nil
	case <-s.done:
		return model.AlertActionNone, nil
	case <-ctx.Done():
		return model.AlertActionNone, ctx.Err()
	}
}

// send queues msg for the program without blocking.
func (s *Sidebar) send(msg tea.Msg) error {
	select {
	case <-s.done:
		return errNotRunning
	default:
	}

	select {
	case s.msgs <- msg:
		return nil
	default:
		return errBacklog
	}
}

// resolve delivers the user's choice to the waiting Present call, if any.
func (s *Sidebar) resolve(id string, action model.AlertAction) {
	s.mu.Lock()
	reply, ok := s.pending[id]
	s.mu.Unlock()

	if !ok {
		return
	}
	select {
	case reply <- action:
	default:
	}
}

func (s *Sidebar) dispatch(cmd model.SurfaceCommand) error {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if err := s.dispatcher.Dispatch(ctx, cmd); err != nil {
		s.logger.Warn("sidebar command failed", "command", commandName(cmd), "error", err)
		return err
	}
	return nil
}

func commandName(cmd model.SurfaceCommand) string {
	switch cmd.(type) {
	case model.RefreshCommand:
		return "refresh"
	case model.AuthenticateCommand:
		return "authenticate"
	case model.OpenPRCommand:
		return "openPR"
	default:
		return "unknown"
	}
}
