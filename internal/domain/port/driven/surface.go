package driven

import (
	"errors"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
)

// ErrSurfaceNotFound indicates no registered surface has the requested ID.
var ErrSurfaceNotFound = errors.New("surface not found")

// Surface is a presentation consumer of snapshots, such as a browser panel or
// the terminal sidebar. Each surface is delivered to independently.
type Surface interface {
	ID() string
	// Visible reports whether the surface should receive snapshot pushes now.
	Visible() bool
	OnUpdate(snapshot model.Snapshot) error
	OnError(message string, requiresReauthentication bool) error
}
