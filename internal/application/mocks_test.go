package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
)

// --- Mock implementations ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockSource struct {
	mu    sync.Mutex
	fetch func(ctx context.Context) (model.Snapshot, error)
	calls int
}

func (m *mockSource) FetchDashboard(ctx context.Context) (model.Snapshot, error) {
	m.mu.Lock()
	m.calls++
	fn := m.fetch
	m.mu.Unlock()
	return fn(ctx)
}

func (m *mockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// sequenceSource returns the given results in order, repeating the last one.
func sequenceSource(results ...fetchResult) *mockSource {
	var mu sync.Mutex
	i := 0
	return &mockSource{fetch: func(_ context.Context) (model.Snapshot, error) {
		mu.Lock()
		defer mu.Unlock()
		r := results[min(i, len(results)-1)]
		i++
		return r.snapshot, r.err
	}}
}

type fetchResult struct {
	snapshot model.Snapshot
	err      error
}

type mockNotifier struct {
	mu      sync.Mutex
	batches [][]model.ChangeEvent
	resets  int
}

func (m *mockNotifier) Notify(_ context.Context, events []model.ChangeEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, events)
}

func (m *mockNotifier) Reset(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
}

func (m *mockNotifier) Batches() [][]model.ChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]model.ChangeEvent(nil), m.batches...)
}

type errorCall struct {
	Message      string
	RequiresAuth bool
}

type mockSurface struct {
	id      string
	visible bool

	mu        sync.Mutex
	updates   []model.Snapshot
	errors    []errorCall
	updateErr error
	panics    bool
}

func (m *mockSurface) ID() string { return m.id }

func (m *mockSurface) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

func (m *mockSurface) SetVisible(visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = visible
}

func (m *mockSurface) OnUpdate(snapshot model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panics {
		panic("surface exploded")
	}
	m.updates = append(m.updates, snapshot)
	return m.updateErr
}

func (m *mockSurface) OnError(message string, requiresReauthentication bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, errorCall{Message: message, RequiresAuth: requiresReauthentication})
	return nil
}

func (m *mockSurface) Updates() []model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Snapshot(nil), m.updates...)
}

func (m *mockSurface) Errors() []errorCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]errorCall(nil), m.errors...)
}

type mockStateStore struct {
	mu      sync.Mutex
	loaded  model.NotificationState
	loadErr error
	saveErr error
	saved   []model.NotificationState
}

func (m *mockStateStore) Load(_ context.Context) (model.NotificationState, error) {
	if m.loadErr != nil {
		return model.NotificationState{}, m.loadErr
	}
	if m.loaded.LastNotified == nil {
		return model.NewNotificationState(), nil
	}
	return m.loaded.Copy(), nil
}

func (m *mockStateStore) Save(_ context.Context, state model.NotificationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, state.Copy())
	return m.saveErr
}

func (m *mockStateStore) Saved() []model.NotificationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.NotificationState(nil), m.saved...)
}

type mockAlerter struct {
	mu        sync.Mutex
	presented []model.Alert
	action    model.AlertAction
	failOn    string
}

func (m *mockAlerter) Present(_ context.Context, alert model.Alert) (model.AlertAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presented = append(m.presented, alert)
	if m.failOn != "" && alert.Item.ID == m.failOn {
		return model.AlertActionNone, errors.New("alerter unavailable")
	}
	return m.action, nil
}

func (m *mockAlerter) Presented() []model.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Alert(nil), m.presented...)
}

type mockNavigator struct {
	mu     sync.Mutex
	opened []string
	err    error
}

func (m *mockNavigator) Open(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = append(m.opened, url)
	return m.err
}

func (m *mockNavigator) Opened() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.opened...)
}

type mockDashboardOpener struct {
	mu    sync.Mutex
	count int
}

func (m *mockDashboardOpener) OpenDashboard() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	return nil
}

func (m *mockDashboardOpener) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// --- Fixtures ---

func pr(id string, decision model.ReviewDecision) model.PullRequestItem {
	return model.PullRequestItem{
		ID:             id,
		Number:         1,
		Title:          "PR " + id,
		Author:         model.Actor{Login: "octocat"},
		Repository:     model.RepoRef{Owner: "org", Name: "repo"},
		State:          model.PRStateOpen,
		URL:            "https://github.com/org/repo/pull/" + id,
		ReviewDecision: decision,
	}
}
