package websession

import (
	"fmt"

	"github.com/rohmanhakim/cfcli/internal/metadata"
	"github.com/rohmanhakim/cfcli/pkg/failure"
)

type TransportErrorCause string

const (
	ErrCauseRequestBuild     TransportErrorCause = "failed to build request"
	ErrCauseNetworkFailure   TransportErrorCause = "network issues"
	ErrCauseReadBody         TransportErrorCause = "failed to read response body"
	ErrCauseRequest5xx       TransportErrorCause = "5xx"
	ErrCauseRequestTooMany   TransportErrorCause = "too many requests"
	ErrCauseRequestForbidden TransportErrorCause = "forbidden"
	ErrCauseUnexpectedCode   TransportErrorCause = "unexpected status code"
	ErrCauseInvalidBody      TransportErrorCause = "invalid response body"
	ErrCauseCancelled        TransportErrorCause = "cancelled"
)

// TransportError reports a web page or data endpoint that could not be
// fetched.
type TransportError struct {
	Endpoint   string
	Message    string
	Retryable  bool
	Cause      TransportErrorCause
	StatusCode int
	Attempts   int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("web transport error: %s: %s after %d attempts: %s", e.Endpoint, e.Cause, e.Attempts, e.Message)
	}
	return fmt.Sprintf("web transport error: %s: %s: %s", e.Endpoint, e.Cause, e.Message)
}

func (e *TransportError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *TransportError) IsRetryable() bool {
	return e.Retryable
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type SubmitErrorCause string

const (
	ErrCauseRejected      SubmitErrorCause = "submission rejected"
	ErrCauseInvalidSource SubmitErrorCause = "invalid source"
)

// SubmitError is returned when the submit form did not land on the
// contest's my-page. FormError carries the judge's inline message, if any.
type SubmitError struct {
	ContestID    int
	ProblemIndex string
	Cause        SubmitErrorCause
	FinalURL     string
	FormError    string
}

func (e *SubmitError) Error() string {
	msg := fmt.Sprintf("submit error: contest %d problem %s: %s", e.ContestID, e.ProblemIndex, e.Cause)
	if e.FormError != "" {
		msg += ": " + e.FormError
	}
	if e.FinalURL != "" {
		msg += " (landed on " + e.FinalURL + ")"
	}
	return msg
}

func (e *SubmitError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *SubmitError) IsRetryable() bool {
	return false
}

// DuplicateSubmissionWarning is an outcome, not an error: the judge accepted
// the request but refused to queue identical source a second time.
type DuplicateSubmissionWarning struct {
	ContestID    int
	ProblemIndex string
}

func (w DuplicateSubmissionWarning) String() string {
	return fmt.Sprintf("contest %d problem %s: you have submitted exactly the same code before", w.ContestID, w.ProblemIndex)
}

// mapTransportErrorToMetadataCause maps web-local error semantics
// to the canonical metadata.ErrorCause table.
func mapTransportErrorToMetadataCause(err *TransportError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNetworkFailure, ErrCauseRequest5xx, ErrCauseRequestTooMany, ErrCauseReadBody:
		return metadata.CauseNetworkFailure
	case ErrCauseRequestForbidden:
		return metadata.CauseAuthFailure
	case ErrCauseInvalidBody:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
