package application_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/codeflow/internal/application"
)

func TestDashboardSourceProvider_GetReturnsInitialSource(t *testing.T) {
	source := &mockSource{}
	provider := application.NewDashboardSourceProvider(source, "octocat")

	assert.Same(t, source, provider.Get())
	assert.Equal(t, "octocat", provider.Username())
}

func TestDashboardSourceProvider_ReplaceSwapsSource(t *testing.T) {
	original := &mockSource{}
	replacement := &mockSource{}

	provider := application.NewDashboardSourceProvider(original, "first")
	provider.Replace(replacement, "second")

	assert.Same(t, replacement, provider.Get())
	assert.Equal(t, "second", provider.Username())
}

func TestDashboardSourceProvider_HasSourceReturnsFalseForNil(t *testing.T) {
	provider := application.NewDashboardSourceProvider(nil, "")

	require.False(t, provider.HasSource())
	assert.Nil(t, provider.Get())

	provider.Replace(&mockSource{}, "octocat")

	require.True(t, provider.HasSource())
}

func TestDashboardSourceProvider_ConcurrentGetReplaceSafety(t *testing.T) {
	source1 := &mockSource{}
	source2 := &mockSource{}
	provider := application.NewDashboardSourceProvider(source1, "one")

	const goroutines = 100
	var wg sync.WaitGroup
	wg.Add(goroutines * 2)

	for range goroutines {
		go func() {
			defer wg.Done()
			assert.NotNil(t, provider.Get())
		}()
		go func() {
			defer wg.Done()
			provider.Replace(source2, "two")
		}()
	}

	wg.Wait()
	assert.Same(t, source2, provider.Get())
}
