package poller

import (
	"fmt"

	"github.com/rohmanhakim/cfcli/pkg/failure"
)

type PollErrorCause string

const (
	ErrCauseZeroAttempt PollErrorCause = "zero attempts"
	ErrCauseCancelled   PollErrorCause = "cancelled"
)

type PollError struct {
	SubmissionID int64
	Message      string
	Cause        PollErrorCause
	Attempts     int
	Err          error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("poll error: submission %d: %s: %s", e.SubmissionID, e.Cause, e.Message)
}

func (e *PollError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *PollError) IsRetryable() bool {
	return false
}

func (e *PollError) Unwrap() error {
	return e.Err
}
