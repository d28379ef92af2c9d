package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/codeflow/internal/application"
	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

type mockValidator struct {
	username string
	err      error
	tokens   []string
}

func (m *mockValidator) ValidateToken(_ context.Context, token string) (string, error) {
	m.tokens = append(m.tokens, token)
	return m.username, m.err
}

type mockCredentialStore struct {
	values map[string]string
	setErr error
}

func (m *mockCredentialStore) Set(_ context.Context, service, plaintext string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[service] = plaintext
	return nil
}

func (m *mockCredentialStore) Get(_ context.Context, service string) (string, error) {
	return m.values[service], nil
}

func (m *mockCredentialStore) Delete(_ context.Context, service string) error {
	delete(m.values, service)
	return nil
}

type mockListener struct {
	count  int
	resets int
}

func (m *mockListener) CredentialsAvailable() { m.count++ }

func (m *mockListener) ResetNotifications(_ context.Context) error {
	m.resets++
	return nil
}

type authFixture struct {
	svc       *application.AuthService
	validator *mockValidator
	store     *mockCredentialStore
	provider  *application.DashboardSourceProvider
	listener  *mockListener
	built     []string
}

func newAuthFixture(validator *mockValidator, store *mockCredentialStore) *authFixture {
	f := &authFixture{
		validator: validator,
		store:     store,
		provider:  application.NewDashboardSourceProvider(nil, ""),
		listener:  &mockListener{},
	}
	factory := func(token string) driven.DashboardSource {
		f.built = append(f.built, token)
		return &mockSource{}
	}
	f.svc = application.NewAuthService(validator, store, f.provider, factory, f.listener, discardLogger())
	return f
}

func TestAuthService_Authenticate(t *testing.T) {
	f := newAuthFixture(&mockValidator{username: "octocat"}, &mockCredentialStore{})

	username, err := f.svc.Authenticate(context.Background(), "  ghp_abc123  ")

	require.NoError(t, err)
	assert.Equal(t, "octocat", username)
	assert.Equal(t, []string{"ghp_abc123"}, f.validator.tokens)
	assert.Equal(t, "ghp_abc123", f.store.values[application.CredentialServiceGitHub])
	assert.Equal(t, []string{"ghp_abc123"}, f.built)
	assert.True(t, f.provider.HasSource())
	assert.Equal(t, "octocat", f.provider.Username())
	assert.Equal(t, 1, f.listener.count)
	assert.Equal(t, 0, f.listener.resets, "first sign-in is already a cold start")
}

func TestAuthService_AccountChangeResetsNotifications(t *testing.T) {
	tests := []struct {
		name       string
		previous   string
		username   string
		wantResets int
	}{
		{name: "same account", previous: "octocat", username: "octocat", wantResets: 0},
		{name: "same account different case", previous: "OctoCat", username: "octocat", wantResets: 0},
		{name: "different account", previous: "octocat", username: "hubot", wantResets: 1},
		{name: "unverified startup token", previous: "", username: "hubot", wantResets: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(&mockValidator{username: tt.username}, &mockCredentialStore{})
			f.provider.Replace(&mockSource{}, tt.previous)

			_, err := f.svc.Authenticate(context.Background(), "ghp_next")

			require.NoError(t, err)
			assert.Equal(t, tt.wantResets, f.listener.resets)
			assert.Equal(t, 1, f.listener.count)
			assert.Equal(t, tt.username, f.provider.Username())
		})
	}
}

func TestAuthService_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "empty", token: "", wantErr: application.ErrTokenRequired},
		{name: "whitespace", token: "   ", wantErr: application.ErrTokenRequired},
		{name: "wrong prefix", token: "gho_oauthtoken", wantErr: application.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(&mockValidator{username: "octocat"}, &mockCredentialStore{})

			_, err := f.svc.Authenticate(context.Background(), tt.token)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.validator.tokens)
			assert.False(t, f.provider.HasSource())
		})
	}
}

func TestAuthService_AcceptsFineGrainedToken(t *testing.T) {
	f := newAuthFixture(&mockValidator{username: "octocat"}, &mockCredentialStore{})

	_, err := f.svc.Authenticate(context.Background(), "github_pat_11ABC")

	require.NoError(t, err)
}

func TestAuthService_ValidationFailureKeepsOldSource(t *testing.T) {
	f := newAuthFixture(&mockValidator{err: driven.ErrNotAuthenticated}, &mockCredentialStore{})
	existing := &mockSource{}
	f.provider.Replace(existing, "previous")

	_, err := f.svc.Authenticate(context.Background(), "ghp_revoked")

	require.ErrorIs(t, err, driven.ErrNotAuthenticated)
	assert.Same(t, existing, f.provider.Get())
	assert.Empty(t, f.store.values)
	assert.Equal(t, 0, f.listener.count)
}

func TestAuthService_StoreFailureStillInstallsSource(t *testing.T) {
	for _, storeErr := range []error{driven.ErrEncryptionKeyNotSet, errors.New("database is locked")} {
		f := newAuthFixture(&mockValidator{username: "octocat"}, &mockCredentialStore{setErr: storeErr})

		_, err := f.svc.Authenticate(context.Background(), "ghp_abc")

		require.NoError(t, err)
		assert.True(t, f.provider.HasSource())
	}
}
