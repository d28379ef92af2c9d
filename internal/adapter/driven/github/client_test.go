package github_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/ericfisherdev/codeflow/internal/adapter/driven/github"
	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler, token string) *ghAdapter.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(server.Client(), server.URL+"/", token)
	require.NoError(t, err)

	return client
}

// userHandler serves GET /user, returning 401 unless the expected token is sent.
func userHandler(t *testing.T, wantToken, login string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+wantToken {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Bad credentials"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"login": login, "id": 1})
	}
}

func TestValidateToken_Success(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user", userHandler(t, "ghp_good", "octocat"))

	client := newTestClient(t, mux, "")

	login, err := client.ValidateToken(context.Background(), "ghp_good")
	require.NoError(t, err)
	assert.Equal(t, "octocat", login)
}

func TestValidateToken_Unauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user", userHandler(t, "ghp_good", "octocat"))

	client := newTestClient(t, mux, "")

	_, err := client.ValidateToken(context.Background(), "ghp_revoked")
	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrNotAuthenticated)
}

func TestFetchDashboard_NoToken(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler(), "")

	_, err := client.FetchDashboard(context.Background())
	assert.ErrorIs(t, err, driven.ErrNotAuthenticated)
}

func TestFetchDashboard_ViewerUnauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user", userHandler(t, "ghp_other", "octocat"))

	client := newTestClient(t, mux, "ghp_expired")

	_, err := client.FetchDashboard(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrNotAuthenticated)
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := ghAdapter.NewClient("ghp_x", "not a url")
	assert.Error(t, err)

	client, err := ghAdapter.NewClient("", "")
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestFactory_BuildsSource(t *testing.T) {
	factory := ghAdapter.Factory(ghAdapter.DefaultAPIURL)

	source := factory("ghp_x")
	assert.NotNil(t, source)
}
