package httphandler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
)

func TestSSESurface_Backlog(t *testing.T) {
	s := newSSESurface("s1")

	for range surfaceBacklog {
		require.NoError(t, s.OnUpdate(model.Snapshot{}))
	}
	assert.ErrorIs(t, s.OnError("late", false), errSurfaceBacklog)
}

func TestSSESurface_Closed(t *testing.T) {
	s := newSSESurface("s1")
	s.close()
	s.close()

	assert.ErrorIs(t, s.OnUpdate(model.Snapshot{}), errSurfaceClosed)
}

func TestSSESurface_Visibility(t *testing.T) {
	s := newSSESurface("s1")

	assert.True(t, s.Visible())
	assert.True(t, s.SetVisible(false))
	assert.False(t, s.Visible())
	assert.False(t, s.SetVisible(true))
}

func TestSSESurface_ErrorMessageShape(t *testing.T) {
	s := newSSESurface("s1")
	require.NoError(t, s.OnError("bad credentials", true))

	var msg map[string]any
	require.NoError(t, json.Unmarshal(<-s.events, &msg))
	assert.Equal(t, map[string]any{
		"command":      "error",
		"message":      "bad credentials",
		"requiresAuth": true,
	}, msg)
}
