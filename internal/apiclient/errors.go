package apiclient

import (
	"fmt"

	"github.com/rohmanhakim/cfcli/internal/metadata"
	"github.com/rohmanhakim/cfcli/pkg/failure"
)

// ApiError is returned when the judge answers with a status other than "OK".
// Comment carries the judge's explanation verbatim.
type ApiError struct {
	Method  string
	Status  string
	Comment string
}

func (e *ApiError) Error() string {
	comment := e.Comment
	if comment == "" {
		comment = "Unknown error"
	}
	return fmt.Sprintf("api error: %s: %s", e.Method, comment)
}

func (e *ApiError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *ApiError) IsRetryable() bool {
	return false
}

type TransportErrorCause string

const (
	ErrCauseRequestBuild   TransportErrorCause = "failed to build request"
	ErrCauseNetworkFailure TransportErrorCause = "network issues"
	ErrCauseReadBody       TransportErrorCause = "failed to read response body"
	ErrCauseRequest5xx     TransportErrorCause = "5xx"
	ErrCauseRequestTooMany TransportErrorCause = "too many requests"
	ErrCauseUnexpectedCode TransportErrorCause = "unexpected status code"
	ErrCauseInvalidBody    TransportErrorCause = "invalid response body"
	ErrCauseCancelled      TransportErrorCause = "cancelled"
)

// TransportError reports a failure to obtain a usable answer from the API.
type TransportError struct {
	Method     string
	Message    string
	Retryable  bool
	Cause      TransportErrorCause
	StatusCode int
	// Attempts is the number of requests made before giving up.
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("transport error: %s: %s after %d attempts: %s", e.Method, e.Cause, e.Attempts, e.Message)
	}
	return fmt.Sprintf("transport error: %s: %s: %s", e.Method, e.Cause, e.Message)
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

// mapTransportErrorToMetadataCause maps client-local error semantics
// to the canonical metadata.ErrorCause table.
func mapTransportErrorToMetadataCause(err *TransportError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNetworkFailure, ErrCauseRequest5xx, ErrCauseRequestTooMany, ErrCauseReadBody:
		return metadata.CauseNetworkFailure
	case ErrCauseInvalidBody:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
