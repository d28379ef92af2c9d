package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "", relativeTime(time.Time{}, now))
	assert.Equal(t, "just now", relativeTime(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", relativeTime(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", relativeTime(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", relativeTime(now.Add(-49*time.Hour), now))
}

func TestToDashboardViewModel(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	view := toDashboardViewModel(fixtureSnapshot(), true, now)

	require.Len(t, view.Sections, 4)
	assert.True(t, view.HasData)
	assert.Equal(t, 1, view.Total)
	assert.Equal(t, "2m ago", view.UpdatedAgo)

	needs := view.Sections[0]
	require.Len(t, needs.Items, 1)
	card := needs.Items[0]
	assert.Equal(t, "org/repo", card.Repository)
	assert.Equal(t, "Approved", card.DecisionLabel)
	assert.Equal(t, "badge-approved", card.DecisionClass)
	assert.Equal(t, []string{"bob"}, card.Reviewers)
}

func TestToDashboardViewModel_NoData(t *testing.T) {
	view := toDashboardViewModel(fixtureSnapshot(), false, time.Now())

	assert.False(t, view.HasData)
	require.Len(t, view.Sections, 4)
	for _, s := range view.Sections {
		assert.Empty(t, s.Items)
	}
}
