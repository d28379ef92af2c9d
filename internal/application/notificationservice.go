package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

// Notifier consumes change events produced by Diff.
type Notifier interface {
	Notify(ctx context.Context, events []model.ChangeEvent)
	Reset(ctx context.Context)
}

// Compile-time interface satisfaction check.
var _ Notifier = (*NotificationService)(nil)

// NotificationService turns change events into user-facing alerts and keeps
// the record of what was alerted on.
//
// LastNotified is written but never consulted before alerting: duplicate
// suppression comes from Diff only reporting new transitions. Time-based
// suppression would be a product decision, not something to add here.
type NotificationService struct {
	store     driven.NotificationStateStore
	alerter   driven.Alerter
	navigator driven.Navigator
	dashboard driven.DashboardOpener
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	state model.NotificationState

	inflight sync.WaitGroup
}

// NewNotificationService creates a NotificationService and loads the persisted
// state. A load failure is logged and the service starts with empty state.
func NewNotificationService(
	ctx context.Context,
	store driven.NotificationStateStore,
	alerter driven.Alerter,
	navigator driven.Navigator,
	dashboard driven.DashboardOpener,
	logger *slog.Logger,
) *NotificationService {
	state, err := store.Load(ctx)
	if err != nil {
		logger.Error("load notification state failed", "error", err)
		state = model.NewNotificationState()
	}
	if state.LastNotified == nil {
		state.LastNotified = make(map[string]time.Time)
	}

	return &NotificationService{
		store:     store,
		alerter:   alerter,
		navigator: navigator,
		dashboard: dashboard,
		logger:    logger,
		now:       time.Now,
		state:     state,
	}
}

// Notify presents one alert per event and then persists the notification
// state. Presentation is fire-and-forget: each alert runs on its own goroutine
// and a failing alerter never blocks the remaining events.
func (s *NotificationService) Notify(ctx context.Context, events []model.ChangeEvent) {
	for _, event := range events {
		alert := buildAlert(event)
		s.present(ctx, alert)

		s.mu.Lock()
		s.state.LastNotified[event.Item.ID] = s.now().UTC()
		s.mu.Unlock()
	}

	if len(events) > 0 {
		s.logger.Info("alerts dispatched", "count", len(events))
	}

	s.persist(ctx)
}

// Reset clears the accumulated notification state and persists the empty state.
func (s *NotificationService) Reset(ctx context.Context) {
	s.mu.Lock()
	s.state = model.NewNotificationState()
	s.mu.Unlock()

	s.persist(ctx)
	s.logger.Info("notification state reset")
}

// State returns a copy of the current notification state.
func (s *NotificationService) State() model.NotificationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Copy()
}

// Wait blocks until every alert presented so far has been answered, dismissed
// or has failed.
func (s *NotificationService) Wait() {
	s.inflight.Wait()
}

// present hands the alert to the alerter on a separate goroutine and acts on
// the user's choice.
func (s *NotificationService) present(ctx context.Context, alert model.Alert) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if v := recover(); v != nil {
				s.logger.Error("alert presentation panicked", "panic", v, "pr_id", alert.Item.ID)
			}
		}()

		action, err := s.alerter.Present(ctx, alert)
		if err != nil {
			s.logger.Error("present alert failed", "kind", alert.Kind, "pr_id", alert.Item.ID, "error", err)
			return
		}
		s.handleAction(alert, action)
	}()
}

// handleAction delegates the chosen alert action to the navigation capabilities.
func (s *NotificationService) handleAction(alert model.Alert, action model.AlertAction) {
	var err error
	switch action {
	case model.AlertActionOpenExternal:
		err = s.navigator.Open(alert.Item.URL)
	case model.AlertActionOpenDashboard:
		err = s.dashboard.OpenDashboard()
	case model.AlertActionNone:
		return
	default:
		s.logger.Warn("unknown alert action", "action", action, "pr_id", alert.Item.ID)
		return
	}

	if err != nil {
		s.logger.Error("alert action failed", "action", action, "pr_id", alert.Item.ID, "error", err)
	}
}

// persist saves a copy of the state. Failures are logged; they must not abort
// the poll cycle.
func (s *NotificationService) persist(ctx context.Context) {
	state := s.State()
	if err := s.store.Save(ctx, state); err != nil {
		s.logger.Error("save notification state failed", "error", err)
	}
}

// buildAlert maps a change event to the alert shown to the user.
func buildAlert(event model.ChangeEvent) model.Alert {
	alert := model.Alert{
		ID:       uuid.NewString(),
		Kind:     event.Kind,
		Severity: model.AlertSeverityInfo,
		Item:     event.Item,
		Actions:  []model.AlertAction{model.AlertActionOpenExternal, model.AlertActionOpenDashboard},
	}

	switch event.Kind {
	case model.ChangeReviewRequested:
		alert.Message = "Review requested: " + event.Item.Title
	case model.ChangeChangesRequested:
		alert.Severity = model.AlertSeverityWarning
		alert.Message = "Changes requested on: " + event.Item.Title
	case model.ChangeApproved:
		alert.Message = "PR approved: " + event.Item.Title
	default:
		alert.Message = event.Item.Title
	}

	return alert
}
