package poller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/cfcli/internal/auth"
	"github.com/rohmanhakim/cfcli/internal/metadata"
	"github.com/rohmanhakim/cfcli/internal/websession"
	"github.com/rohmanhakim/cfcli/pkg/failure"
	"github.com/rohmanhakim/cfcli/pkg/timeutil"
)

/*
Verdict polling

	QUEUED --(verdict empty, TESTING or in queue)--> wait interval --> QUEUED
	QUEUED --(any other verdict)-------------------> TERMINAL
	QUEUED --(attempt budget spent)----------------> EXHAUSTED

The poller never waits after the last attempt. A status fetch error ends
polling and is returned as is.
*/

const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 10
)

type State int

const (
	StateQueued State = iota
	StateTerminal
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateTerminal:
		return "terminal"
	case StateExhausted:
		return "exhausted"
	default:
		return "queued"
	}
}

// StatusSource answers one status query for a submission.
type StatusSource interface {
	FetchStatus(ctx context.Context, submissionID int64) (websession.SubmissionStatus, failure.ClassifiedError)
}

// StatusFunc adapts a function to StatusSource.
type StatusFunc func(ctx context.Context, submissionID int64) (websession.SubmissionStatus, failure.ClassifiedError)

func (f StatusFunc) FetchStatus(ctx context.Context, submissionID int64) (websession.SubmissionStatus, failure.ClassifiedError) {
	return f(ctx, submissionID)
}

// SessionSource queries the status endpoint through a web session.
func SessionSource(client *websession.WebClient, sess *websession.Session) StatusSource {
	return StatusFunc(func(ctx context.Context, submissionID int64) (websession.SubmissionStatus, failure.ClassifiedError) {
		return client.FetchStatus(ctx, sess, submissionID)
	})
}

// Observer is told about every answer, including queued ones.
type Observer func(attempt int, status websession.SubmissionStatus)

// Outcome is where polling stopped. Status is the last answer received.
type Outcome struct {
	State    State
	Status   websession.SubmissionStatus
	Attempts int
}

func (o Outcome) Message() string {
	switch o.State {
	case StateTerminal:
		return "verdict: " + o.Status.Verdict
	case StateExhausted:
		return fmt.Sprintf("no verdict after %d attempts, check manually", o.Attempts)
	default:
		return "in queue"
	}
}

type Poller struct {
	source      StatusSource
	interval    time.Duration
	maxAttempts int
	sleeper     timeutil.Sleeper
	observer    Observer
	sink        metadata.MetadataSink
}

func NewPoller(source StatusSource, sink metadata.MetadataSink) *Poller {
	if sink == nil {
		sink = &metadata.NoopSink{}
	}
	return &Poller{
		source:      source,
		interval:    DefaultInterval,
		maxAttempts: DefaultMaxAttempts,
		sleeper:     timeutil.SleepContext,
		sink:        sink,
	}
}

func (p *Poller) WithInterval(d time.Duration) *Poller {
	p.interval = d
	return p
}

func (p *Poller) WithMaxAttempts(n int) *Poller {
	p.maxAttempts = n
	return p
}

func (p *Poller) WithSleeper(s timeutil.Sleeper) *Poller {
	p.sleeper = s
	return p
}

func (p *Poller) WithObserver(o Observer) *Poller {
	p.observer = o
	return p
}

// Poll queries the status of submissionID until it reaches a verdict or the
// attempt budget is spent.
func (p *Poller) Poll(ctx context.Context, submissionID int64) (Outcome, failure.ClassifiedError) {
	if p.maxAttempts < 1 {
		return Outcome{}, &PollError{
			SubmissionID: submissionID,
			Message:      "max attempts must be positive",
			Cause:        ErrCauseZeroAttempt,
		}
	}

	outcome := Outcome{State: StateQueued}
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		outcome.Attempts = attempt

		status, err := p.source.FetchStatus(ctx, submissionID)
		if err != nil {
			p.recordError(submissionID, attempt, err)
			return outcome, err
		}
		outcome.Status = status
		p.sink.RecordPoll(submissionID, attempt, status.Verdict)
		if p.observer != nil {
			p.observer(attempt, status)
		}

		if !IsQueued(status.Verdict) {
			outcome.State = StateTerminal
			return outcome, nil
		}

		if attempt == p.maxAttempts {
			break
		}
		if sleepErr := p.sleeper(ctx, p.interval); sleepErr != nil {
			pollErr := &PollError{
				SubmissionID: submissionID,
				Message:      sleepErr.Error(),
				Cause:        ErrCauseCancelled,
				Attempts:     attempt,
				Err:          sleepErr,
			}
			p.recordError(submissionID, attempt, pollErr)
			return outcome, pollErr
		}
	}

	outcome.State = StateExhausted
	return outcome, nil
}

// IsQueued reports whether verdict means the judge has not finished.
func IsQueued(verdict string) bool {
	v := strings.TrimSpace(verdict)
	if v == "" || strings.EqualFold(v, "TESTING") {
		return true
	}
	return strings.Contains(strings.ToLower(v), "queue")
}

func (p *Poller) recordError(submissionID int64, attempt int, err failure.ClassifiedError) {
	cause := metadata.CauseUnknown
	var tErr *websession.TransportError
	var authErr *auth.AuthenticationError
	switch {
	case errors.As(err, &tErr):
		cause = metadata.CauseNetworkFailure
	case errors.As(err, &authErr):
		cause = metadata.CauseAuthFailure
	}
	p.sink.RecordError(
		time.Now(),
		"poller",
		"Poller.Poll",
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrSubmissionID, strconv.FormatInt(submissionID, 10)),
			metadata.NewAttr(metadata.AttrAttempt, strconv.Itoa(attempt)),
		},
	)
}
