package cache

import (
	"fmt"

	"github.com/rohmanhakim/cfcli/pkg/failure"
)

type StoreErrorCause string

const (
	ErrCauseBackendRead  StoreErrorCause = "backend read failed"
	ErrCauseBackendWrite StoreErrorCause = "backend write failed"
	ErrCauseEncode       StoreErrorCause = "entry encoding failed"
	ErrCauseDecode       StoreErrorCause = "entry decoding failed"
)

// StoreError describes a cache failure. The Store records it and carries on;
// it never reaches the caller.
type StoreError struct {
	Message   string
	Retryable bool
	Cause     StoreErrorCause
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("cache error: %s: %s", e.Cause, e.Message)
}

func (e *StoreError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
