package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every CODEFLOW_ env var that Load() reads.
var allConfigKeys = []string{
	"CODEFLOW_GITHUB_TOKEN",
	"CODEFLOW_GITHUB_API_URL",
	"CODEFLOW_POLL_INTERVAL",
	"CODEFLOW_FETCH_TIMEOUT",
	"CODEFLOW_ALERT_TTL",
	"CODEFLOW_LISTEN_ADDR",
	"CODEFLOW_DB_PATH",
	"CODEFLOW_SECRET_KEY",
	"CODEFLOW_LOG_LEVEL",
	"CODEFLOW_LOG_FORMAT",
	"CODEFLOW_LOG_FILE",
}

// isolateConfigEnv saves and unsets all CODEFLOW_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

// noDotenv returns a path that does not exist.
func noDotenv(t *testing.T) string {
	return filepath.Join(t.TempDir(), ".env")
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("CODEFLOW_GITHUB_TOKEN", "ghp_test123")
	t.Setenv("CODEFLOW_POLL_INTERVAL", "10m")
	t.Setenv("CODEFLOW_FETCH_TIMEOUT", "5s")
	t.Setenv("CODEFLOW_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("CODEFLOW_DB_PATH", "/tmp/test.db")
	t.Setenv("CODEFLOW_LOG_FORMAT", "json")

	cfg, err := load(noDotenv(t))

	require.NoError(t, err)
	assert.Equal(t, "ghp_test123", cfg.GitHubToken)
	assert.True(t, cfg.HasGitHubToken())
	assert.Equal(t, 10*time.Minute, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := load(noDotenv(t))

	require.NoError(t, err)
	assert.False(t, cfg.HasGitHubToken())
	assert.Equal(t, "https://api.github.com/", cfg.GitHubAPIURL)
	assert.Equal(t, 60*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 2*time.Minute, cfg.AlertTTL)
	assert.Equal(t, "127.0.0.1:8787", cfg.ListenAddr)
	assert.Equal(t, "codeflow.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.LogFile)
}

func TestLoad_InvalidDuration(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("CODEFLOW_POLL_INTERVAL", "not-a-duration")

	_, err := load(noDotenv(t))
	assert.Error(t, err)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "interval too short", key: "CODEFLOW_POLL_INTERVAL", value: "100ms"},
		{name: "unknown log level", key: "CODEFLOW_LOG_LEVEL", value: "verbose"},
		{name: "unknown log format", key: "CODEFLOW_LOG_FORMAT", value: "xml"},
		{name: "short secret key", key: "CODEFLOW_SECRET_KEY", value: "abcd"},
		{name: "non-hex secret key", key: "CODEFLOW_SECRET_KEY", value: strings.Repeat("z", 64)},
		{name: "bad api url", key: "CODEFLOW_GITHUB_API_URL", value: "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := load(noDotenv(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestLoad_AcceptsSecretKey(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("CODEFLOW_SECRET_KEY", strings.Repeat("0f", 32))

	cfg, err := load(noDotenv(t))

	require.NoError(t, err)
	assert.Len(t, cfg.SecretKey, 64)
}

func TestLoad_ReadsDotenv(t *testing.T) {
	isolateConfigEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CODEFLOW_DB_PATH=/var/lib/codeflow.db\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CODEFLOW_DB_PATH") })

	cfg, err := load(path)

	require.NoError(t, err)
	assert.Equal(t, "/var/lib/codeflow.db", cfg.DBPath)
}
