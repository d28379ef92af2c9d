package model

// SurfaceCommand is a request relayed from a presentation surface. The set of
// implementations is closed: RefreshCommand, AuthenticateCommand and
// OpenPRCommand.
type SurfaceCommand interface {
	surfaceCommand()
}

// RefreshCommand asks for an immediate poll.
type RefreshCommand struct{}

// AuthenticateCommand supplies a GitHub personal access token.
type AuthenticateCommand struct {
	Token string
}

// OpenPRCommand asks to open a pull request URL outside the surface.
type OpenPRCommand struct {
	URL string
}

func (RefreshCommand) surfaceCommand()      {}
func (AuthenticateCommand) surfaceCommand() {}
func (OpenPRCommand) surfaceCommand()       {}
