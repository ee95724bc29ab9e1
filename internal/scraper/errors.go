package scraper

import (
	"fmt"

	"github.com/rohmanhakim/cfcli/internal/metadata"
	"github.com/rohmanhakim/cfcli/pkg/failure"
)

type ScrapeErrorCause string

const (
	ErrCauseParse             ScrapeErrorCause = "failed to parse HTML"
	ErrCauseTokenNotFound     ScrapeErrorCause = "csrf token not found"
	ErrCauseNotRegistered     ScrapeErrorCause = "not registered for contest"
	ErrCauseStatementNotFound ScrapeErrorCause = "problem statement not found"
)

// ScrapeError reports a page that lacks a fact the caller cannot do without.
type ScrapeError struct {
	Message   string
	Retryable bool
	Cause     ScrapeErrorCause
}

func (e *ScrapeError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("scrape error: %s", e.Cause)
	}
	return fmt.Sprintf("scrape error: %s: %s", e.Cause, e.Message)
}

func (e *ScrapeError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *ScrapeError) IsRetryable() bool {
	return e.Retryable
}

// MapScrapeErrorToMetadataCause maps scraper-local error semantics
// to the canonical metadata.ErrorCause table.
func MapScrapeErrorToMetadataCause(err *ScrapeError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNotRegistered:
		return metadata.CauseRemoteRejected
	case ErrCauseParse, ErrCauseTokenNotFound, ErrCauseStatementNotFound:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
