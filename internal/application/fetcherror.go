package application

import (
	"errors"
	"regexp"

	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

// authFailurePattern matches error messages from data sources that do not wrap
// driven.ErrNotAuthenticated but still indicate rejected credentials.
var authFailurePattern = regexp.MustCompile(`(?i)not authenticated|unauthorized|401`)

// FetchFailure is the surface-facing description of a failed fetch.
type FetchFailure struct {
	Message                  string
	RequiresReauthentication bool
}

// ClassifyFetchError converts a data source error into a FetchFailure. This is
// the single place that decides whether a failure looks credential-related.
func ClassifyFetchError(err error) FetchFailure {
	if err == nil {
		return FetchFailure{}
	}

	msg := err.Error()
	return FetchFailure{
		Message:                  msg,
		RequiresReauthentication: errors.Is(err, driven.ErrNotAuthenticated) || authFailurePattern.MatchString(msg),
	}
}
