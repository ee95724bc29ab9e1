package scaffold

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rohmanhakim/cfcli/pkg/failure"
)

var (
	indexPattern    = regexp.MustCompile(`^[A-Z][0-9]?$`)
	fileNamePattern = regexp.MustCompile(`^Contest(\d+)_([A-Z][0-9]?)\.cpp$`)
)

// NormalizeIndex upper-cases raw and checks it is a letter optionally
// followed by one digit (A, B, C1).
func NormalizeIndex(raw string) (string, failure.ClassifiedError) {
	index := strings.ToUpper(strings.TrimSpace(raw))
	if !indexPattern.MatchString(index) {
		return "", &ScaffoldError{
			Message: fmt.Sprintf("%q: expected a letter optionally followed by a digit (A, B, C1)", raw),
			Cause:   ErrCauseInvalidIndex,
		}
	}
	return index, nil
}

// SourceFileName is Contest{id}_{INDEX}.cpp.
func SourceFileName(contestID int, index string) string {
	return fmt.Sprintf("Contest%d_%s.cpp", contestID, index)
}

// StatementFileName is the Markdown companion of SourceFileName.
func StatementFileName(contestID int, index string) string {
	return fmt.Sprintf("Contest%d_%s.md", contestID, index)
}

// ParseSourceFileName recovers the contest and problem from a path whose base
// name follows SourceFileName.
func ParseSourceFileName(path string) (int, string, failure.ClassifiedError) {
	base := filepath.Base(path)
	m := fileNamePattern.FindStringSubmatch(base)
	if m == nil {
		return 0, "", &ScaffoldError{
			Message: fmt.Sprintf("%q does not match Contest{id}_{INDEX}.cpp", base),
			Cause:   ErrCauseUnknownFileName,
		}
	}
	contestID, err := strconv.Atoi(m[1])
	if err != nil || contestID <= 0 {
		return 0, "", &ScaffoldError{
			Message: fmt.Sprintf("%q: contest id out of range", base),
			Cause:   ErrCauseInvalidContest,
		}
	}
	return contestID, m[2], nil
}
