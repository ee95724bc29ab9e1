package judge

import (
	"fmt"

	"github.com/rohmanhakim/cfcli/pkg/failure"
)

type JudgeErrorCause string

const (
	ErrCauseUnknownPhase  JudgeErrorCause = "unknown contest phase"
	ErrCauseInvalidInput  JudgeErrorCause = "invalid input"
	ErrCauseUnknownHandle JudgeErrorCause = "unknown handle"
	ErrCauseSetup         JudgeErrorCause = "setup failed"
)

// JudgeError reports a request the facade refuses before contacting the
// judge, or a client that could not be assembled.
type JudgeError struct {
	Message string
	Cause   JudgeErrorCause
}

func (e *JudgeError) Error() string {
	return fmt.Sprintf("judge error: %s: %s", e.Cause, e.Message)
}

func (e *JudgeError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *JudgeError) IsRetryable() bool {
	return false
}
