package alert_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/codeflow/internal/adapter/driven/alert"
	"github.com/ericfisherdev/codeflow/internal/domain/model"
)

func TestLogAlerter_Present(t *testing.T) {
	var buf bytes.Buffer
	a := alert.NewLogAlerter(slog.New(slog.NewJSONHandler(&buf, nil)))

	action, err := a.Present(context.Background(), model.Alert{
		ID:       "a-1",
		Kind:     model.ChangeChangesRequested,
		Severity: model.AlertSeverityWarning,
		Message:  "Changes requested on: Fix it",
		Item: model.PullRequestItem{
			Number:     12,
			URL:        "https://github.com/org/repo/pull/12",
			Repository: model.RepoRef{Owner: "org", Name: "repo"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.AlertActionNone, action)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "Changes requested on: Fix it", record["msg"])
	assert.Equal(t, "org/repo", record["repo"])
	assert.Equal(t, "changes_requested", record["kind"])
}
