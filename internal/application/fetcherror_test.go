package application_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/codeflow/internal/application"
	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

func TestClassifyFetchError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		requiresAuth bool
	}{
		{name: "wrapped sentinel", err: fmt.Errorf("fetch viewer: %w", driven.ErrNotAuthenticated), requiresAuth: true},
		{name: "http 401 text", err: errors.New("GET https://api.github.com/user: 401 Bad credentials"), requiresAuth: true},
		{name: "unauthorized any case", err: errors.New("request was UNAUTHORIZED"), requiresAuth: true},
		{name: "network failure", err: errors.New("dial tcp: connection refused"), requiresAuth: false},
		{name: "server error", err: errors.New("graphql status 502"), requiresAuth: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failure := application.ClassifyFetchError(tt.err)
			assert.Equal(t, tt.err.Error(), failure.Message)
			assert.Equal(t, tt.requiresAuth, failure.RequiresReauthentication)
		})
	}
}

func TestClassifyFetchError_Nil(t *testing.T) {
	assert.Equal(t, application.FetchFailure{}, application.ClassifyFetchError(nil))
}
