package scaffold

import (
	"fmt"

	"github.com/rohmanhakim/cfcli/pkg/failure"
)

type ScaffoldErrorCause string

const (
	ErrCauseInvalidIndex    ScaffoldErrorCause = "invalid problem index"
	ErrCauseInvalidContest  ScaffoldErrorCause = "invalid contest id"
	ErrCauseTemplateRead    ScaffoldErrorCause = "failed to read template"
	ErrCauseTemplateCreate  ScaffoldErrorCause = "failed to create template"
	ErrCauseWriteSource     ScaffoldErrorCause = "failed to write source file"
	ErrCauseUnknownFileName ScaffoldErrorCause = "file name does not name a problem"
)

type ScaffoldError struct {
	Message string
	Cause   ScaffoldErrorCause
}

func (e *ScaffoldError) Error() string {
	return fmt.Sprintf("scaffold error: %s: %s", e.Cause, e.Message)
}

func (e *ScaffoldError) Severity() failure.Severity {
	return failure.SeverityFatal
}
