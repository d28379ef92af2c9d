package driven

import (
	"context"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
)

// Alerter presents an alert to the user. Present may block until the user
// picks one of alert.Actions or the context ends; AlertActionNone means the
// alert was dismissed or expired.
type Alerter interface {
	Present(ctx context.Context, alert model.Alert) (model.AlertAction, error)
}

// Navigator opens a URL outside the application, typically in the browser.
type Navigator interface {
	Open(url string) error
}

// DashboardOpener (re)activates the full dashboard presentation surface.
type DashboardOpener interface {
	OpenDashboard() error
}
