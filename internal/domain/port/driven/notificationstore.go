package driven

import (
	"context"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
)

// NotificationStateStore persists the notifier's bookkeeping state in a single
// slot. Save overwrites the slot wholesale.
type NotificationStateStore interface {
	// Load returns the stored state, or an empty state if nothing was saved yet.
	Load(ctx context.Context) (model.NotificationState, error)
	Save(ctx context.Context, state model.NotificationState) error
}
