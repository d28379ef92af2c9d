// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
)

// ErrNotAuthenticated is wrapped by DashboardSource implementations when the
// request failed because credentials are missing, expired or rejected.
var ErrNotAuthenticated = errors.New("not authenticated")

// DashboardSource fetches a fresh categorized view of the user's pull requests.
// Implementations perform the network calls and the transform into a Snapshot;
// the caller owns the timeout via ctx.
type DashboardSource interface {
	FetchDashboard(ctx context.Context) (model.Snapshot, error)
}

// TokenValidator verifies a GitHub personal access token and returns the login
// of the user it belongs to.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (username string, err error)
}

// DashboardSourceFactory builds a DashboardSource for the given token. Used to
// hot-swap the data source after the user authenticates.
type DashboardSourceFactory func(token string) DashboardSource
