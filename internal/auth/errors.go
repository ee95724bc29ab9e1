package auth

import (
	"fmt"
	"strings"

	"github.com/rohmanhakim/cfcli/pkg/failure"
)

type AuthErrorCause string

const (
	ErrCauseMissingCredential AuthErrorCause = "missing credential"
	ErrCauseEnvFile           AuthErrorCause = "env file unreadable"
	ErrCauseLoginRejected     AuthErrorCause = "login rejected"
	ErrCauseNotLoggedIn       AuthErrorCause = "not logged in"
)

// AuthenticationError reports credentials that are absent or unusable.
// It is never retryable.
type AuthenticationError struct {
	Message string
	Cause   AuthErrorCause
	Missing []string
}

func (e *AuthenticationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("authentication error: %s: %s", e.Cause, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("authentication error: %s: %s", e.Cause, e.Message)
}

func (e *AuthenticationError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *AuthenticationError) IsRetryable() bool {
	return false
}
