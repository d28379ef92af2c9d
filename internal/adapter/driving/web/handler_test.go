package web

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
)

type stubSnapshots struct {
	snapshot model.Snapshot
	ok       bool
}

func (s stubSnapshots) Latest() (model.Snapshot, bool) { return s.snapshot, s.ok }

func newTestMux(snapshots SnapshotReader) *http.ServeMux {
	h := NewHandler(snapshots, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

	mux := http.NewServeMux()
	RegisterRoutes(mux, h)
	return mux
}

func fixtureSnapshot() model.Snapshot {
	item := model.PullRequestItem{
		ID:             "PR_1",
		Number:         42,
		Title:          "Bump `x/net` <script>alert(1)</script>",
		Author:         model.Actor{Login: "alice", AvatarURL: "https://avatars.example.com/alice"},
		Repository:     model.RepoRef{Owner: "org", Name: "repo"},
		URL:            "https://github.com/org/repo/pull/42",
		ReviewDecision: model.ReviewDecisionApproved,
		Reviewers:      []model.Actor{{Login: "bob"}},
		UpdatedAt:      time.Date(2026, 5, 1, 11, 30, 0, 0, time.UTC),
	}
	return model.Snapshot{
		NeedsReview: []model.PullRequestItem{item},
		MyPRs:       []model.PullRequestItem{},
		LastUpdated: time.Date(2026, 5, 1, 11, 58, 0, 0, time.UTC),
	}
}

func TestDashboard_RendersSnapshot(t *testing.T) {
	mux := newTestMux(stubSnapshots{snapshot: fixtureSnapshot(), ok: true})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>CodeFlow</title>")
	assert.Contains(t, body, "<code>x/net</code>")
	assert.NotContains(t, body, "<script>alert")
	assert.Contains(t, body, `href="https://github.com/org/repo/pull/42"`)
	assert.Contains(t, body, "org/repo#42 by alice</span>")
	assert.Contains(t, body, `<span class="age">updated 30m ago</span>`)
	assert.Contains(t, body, `<span class="badge badge-approved">Approved</span>`)
	assert.Contains(t, body, "Approved")
	assert.Contains(t, body, "updated <time")
	assert.Contains(t, body, "You have no open pull requests.")

	var csrf *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName {
			csrf = c
		}
	}
	require.NotNil(t, csrf)
	assert.Len(t, csrf.Value, csrfTokenBytes*2)
}

func TestDashboard_BeforeFirstPoll(t *testing.T) {
	mux := newTestMux(stubSnapshots{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Waiting for the first refresh.")
}

func TestSections_Partial(t *testing.T) {
	mux := newTestMux(stubSnapshots{snapshot: fixtureSnapshot(), ok: true})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/sections", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<html")
	assert.Contains(t, body, `id="needs-review"`)
	assert.Contains(t, body, `data-id="PR_1"`)
}

func TestStaticAssetsServed(t *testing.T) {
	mux := newTestMux(stubSnapshots{})

	for _, path := range []string{"/static/app.js", "/static/app.css"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestCard_UnsafeURLIsNeutralized(t *testing.T) {
	snap := fixtureSnapshot()
	snap.NeedsReview[0].URL = "javascript:alert(1)"
	mux := newTestMux(stubSnapshots{snapshot: snap, ok: true})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/sections", nil))

	assert.NotContains(t, rec.Body.String(), "javascript:alert")
}
