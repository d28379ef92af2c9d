package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

// ErrEmptyURL is returned when an open command carries no URL.
var ErrEmptyURL = errors.New("url is required")

// Refresher runs a poll cycle on demand.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Authenticator installs new GitHub credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// CommandDispatcher routes commands received from surfaces to the services
// that handle them.
type CommandDispatcher struct {
	refresher     Refresher
	authenticator Authenticator
	navigator     driven.Navigator
	logger        *slog.Logger
}

// NewCommandDispatcher creates a CommandDispatcher.
func NewCommandDispatcher(refresher Refresher, authenticator Authenticator, navigator driven.Navigator, logger *slog.Logger) *CommandDispatcher {
	return &CommandDispatcher{
		refresher:     refresher,
		authenticator: authenticator,
		navigator:     navigator,
		logger:        logger,
	}
}

// Dispatch executes a single surface command.
func (d *CommandDispatcher) Dispatch(ctx context.Context, cmd model.SurfaceCommand) error {
	switch c := cmd.(type) {
	case model.RefreshCommand:
		return d.refresher.Refresh(ctx)

	case model.AuthenticateCommand:
		username, err := d.authenticator.Authenticate(ctx, c.Token)
		if err != nil {
			return fmt.Errorf("authenticate: %w", err)
		}
		d.logger.Debug("surface authenticated", "username", username)
		return d.refresher.Refresh(ctx)

	case model.OpenPRCommand:
		if c.URL == "" {
			return ErrEmptyURL
		}
		if err := d.navigator.Open(c.URL); err != nil {
			return fmt.Errorf("open pull request: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unsupported surface command %T", cmd)
	}
}
