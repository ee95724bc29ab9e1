package judge

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rohmanhakim/cfcli/internal/apiclient"
	"github.com/rohmanhakim/cfcli/internal/auth"
	"github.com/rohmanhakim/cfcli/internal/metadata"
	"github.com/rohmanhakim/cfcli/internal/poller"
	"github.com/rohmanhakim/cfcli/internal/scraper"
	"github.com/rohmanhakim/cfcli/internal/statement"
	"github.com/rohmanhakim/cfcli/internal/websession"
	"github.com/rohmanhakim/cfcli/pkg/failure"
	"github.com/rohmanhakim/cfcli/pkg/timeutil"
)

/*
Judge is what the command line talks to. It owns the credentials, the API
client, the web client and the one Session they share, and it decides when
a web login is needed:

- a session restored from the session file is used as is
- otherwise the login form is posted once and the session is saved
- a restored session the judge no longer honours is replaced by a fresh
  login, once
*/
type Judge struct {
	api         *apiclient.Client
	web         *websession.WebClient
	sessionFile *websession.SessionFile
	session     *websession.Session
	restored    bool

	creds        auth.Credentials
	signerPrefix string

	pollInterval    time.Duration
	pollMaxAttempts int
	pollSleeper     timeutil.Sleeper
	pollObserver    poller.Observer

	converter *statement.Converter
	sink      metadata.MetadataSink
}

func New(api *apiclient.Client, web *websession.WebClient, sink metadata.MetadataSink) *Judge {
	if sink == nil {
		sink = &metadata.NoopSink{}
	}
	return &Judge{
		api:             api,
		web:             web,
		pollInterval:    poller.DefaultInterval,
		pollMaxAttempts: poller.DefaultMaxAttempts,
		pollSleeper:     timeutil.SleepContext,
		converter:       statement.NewConverter(sink),
		sink:            sink,
	}
}

// WithCredentials installs creds without verifying them. API calls are
// signed from here on when creds are complete.
func (j *Judge) WithCredentials(creds auth.Credentials) *Judge {
	j.creds = creds
	if creds.IsComplete() {
		j.api.WithSigner(auth.NewSigner(creds).WithPrefix(j.signerPrefix))
	}
	return j
}

func (j *Judge) WithSignerPrefix(prefix string) *Judge {
	j.signerPrefix = prefix
	if j.creds.IsComplete() {
		j.api.WithSigner(auth.NewSigner(j.creds).WithPrefix(prefix))
	}
	return j
}

func (j *Judge) WithSessionFile(f *websession.SessionFile) *Judge {
	j.sessionFile = f
	return j
}

func (j *Judge) WithPolling(interval time.Duration, maxAttempts int) *Judge {
	j.pollInterval = interval
	j.pollMaxAttempts = maxAttempts
	return j
}

func (j *Judge) WithPollSleeper(s timeutil.Sleeper) *Judge {
	j.pollSleeper = s
	return j
}

func (j *Judge) WithPollObserver(o poller.Observer) *Judge {
	j.pollObserver = o
	return j
}

func (j *Judge) Credentials() auth.Credentials {
	return j.creds
}

// Session is the current web session, nil before the first web operation.
func (j *Judge) Session() *websession.Session {
	return j.session
}

func (j *Judge) ProblemURL(contestID int, problemIndex string) string {
	return j.web.ProblemURL(contestID, problemIndex)
}

// Login reports whether handle exists on the judge with the given key pair
// installed. On success later API calls are signed with key and secret.
func (j *Judge) Login(ctx context.Context, handle, key, secret string) bool {
	_, err := j.Authenticate(ctx, auth.Credentials{
		Handle:    handle,
		APIKey:    key,
		APISecret: secret,
		Password:  j.creds.Password,
	})
	return err == nil
}

// Authenticate verifies creds through user.info and installs them.
func (j *Judge) Authenticate(ctx context.Context, creds auth.Credentials) (apiclient.User, failure.ClassifiedError) {
	if missing := creds.Missing(); len(missing) > 0 {
		return apiclient.User{}, &auth.AuthenticationError{
			Cause:   auth.ErrCauseMissingCredential,
			Missing: missing,
		}
	}

	users, err := j.api.UserInfo(ctx, creds.Handle)
	if err != nil {
		return apiclient.User{}, err
	}
	if len(users) == 0 {
		return apiclient.User{}, &JudgeError{Message: creds.Handle, Cause: ErrCauseUnknownHandle}
	}

	j.WithCredentials(creds)
	return users[0], nil
}

// WebLogin posts the website login form and saves the session, replacing
// any session restored earlier.
func (j *Judge) WebLogin(ctx context.Context) failure.ClassifiedError {
	if j.creds.Handle == "" {
		return &auth.AuthenticationError{
			Cause:   auth.ErrCauseMissingCredential,
			Missing: []string{auth.EnvHandle},
		}
	}
	_, err := j.relogin(ctx)
	return err
}

// phases maps the command line's contest filters to contest.list phases.
var phases = map[string]string{
	"upcoming": apiclient.PhaseBefore,
	"running":  apiclient.PhaseCoding,
	"past":     apiclient.PhaseFinished,
}

// ListContests returns up to limit contests in phase ("upcoming", "running"
// or "past"). Upcoming contests come soonest first, the others most recent
// first. A limit of zero or less returns them all.
func (j *Judge) ListContests(ctx context.Context, phase string, limit int) ([]apiclient.Contest, failure.ClassifiedError) {
	want, ok := phases[strings.ToLower(strings.TrimSpace(phase))]
	if !ok {
		return nil, &JudgeError{Message: phase, Cause: ErrCauseUnknownPhase}
	}

	all, err := j.api.ContestList(ctx, false)
	if err != nil {
		return nil, err
	}

	contests := make([]apiclient.Contest, 0, len(all))
	for _, c := range all {
		if c.Phase == want {
			contests = append(contests, c)
		}
	}

	if want == apiclient.PhaseBefore {
		sort.SliceStable(contests, func(a, b int) bool {
			return contests[a].StartTimeSeconds < contests[b].StartTimeSeconds
		})
	} else {
		sort.SliceStable(contests, func(a, b int) bool {
			return contests[a].StartTimeSeconds > contests[b].StartTimeSeconds
		})
	}

	if limit > 0 && len(contests) > limit {
		contests = contests[:limit]
	}
	return contests, nil
}

// ContestProblems lists the problems of a contest in contest order.
func (j *Judge) ContestProblems(ctx context.Context, contestID int) ([]apiclient.Problem, failure.ClassifiedError) {
	standings, err := j.api.ContestStandings(ctx, contestID, 1, 1)
	if err != nil {
		return nil, err
	}
	return standings.Problems, nil
}

// SubmitFile submits sourceText as the solution to one problem. A duplicate
// submission is not an error: check the result's Duplicate field.
func (j *Judge) SubmitFile(ctx context.Context, contestID int, problemIndex string, sourceText string) (websession.SubmitResult, failure.ClassifiedError) {
	if contestID <= 0 {
		return websession.SubmitResult{}, &JudgeError{Message: "contest id must be positive", Cause: ErrCauseInvalidInput}
	}
	req := websession.SubmitRequest{
		ContestID:    contestID,
		ProblemIndex: strings.ToUpper(strings.TrimSpace(problemIndex)),
		Source:       sourceText,
	}

	sess, err := j.webSession(ctx)
	if err != nil {
		return websession.SubmitResult{}, err
	}

	result, err := j.web.Submit(ctx, sess, req)
	if err != nil && j.restored && sessionExpired(err) {
		sess, err = j.relogin(ctx)
		if err != nil {
			return websession.SubmitResult{}, err
		}
		result, err = j.web.Submit(ctx, sess, req)
	}
	return result, err
}

// PollStatus waits for the verdict of submissionID.
func (j *Judge) PollStatus(ctx context.Context, submissionID int64) (poller.Outcome, failure.ClassifiedError) {
	sess, err := j.webSession(ctx)
	if err != nil {
		return poller.Outcome{}, err
	}

	outcome, err := j.newPoller(sess).Poll(ctx, submissionID)
	if err != nil && j.restored && sessionExpired(err) {
		sess, err = j.relogin(ctx)
		if err != nil {
			return poller.Outcome{}, err
		}
		outcome, err = j.newPoller(sess).Poll(ctx, submissionID)
	}
	return outcome, err
}

func (j *Judge) newPoller(sess *websession.Session) *poller.Poller {
	return poller.NewPoller(poller.SessionSource(j.web, sess), j.sink).
		WithInterval(j.pollInterval).
		WithMaxAttempts(j.pollMaxAttempts).
		WithSleeper(j.pollSleeper).
		WithObserver(j.pollObserver)
}

// ContestSubmissions lists the logged-in account's submissions to a contest.
func (j *Judge) ContestSubmissions(ctx context.Context, contestID int) ([]scraper.SubmissionRow, failure.ClassifiedError) {
	sess, err := j.webSession(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := j.web.FetchContestSubmissions(ctx, sess, contestID)
	if err != nil && j.restored && sessionExpired(err) {
		sess, err = j.relogin(ctx)
		if err != nil {
			return nil, err
		}
		rows, err = j.web.FetchContestSubmissions(ctx, sess, contestID)
	}
	return rows, err
}

// ProblemStatement fetches a problem page and converts its statement to
// Markdown. It does not require a login.
func (j *Judge) ProblemStatement(ctx context.Context, contestID int, problemIndex string) (statement.Document, failure.ClassifiedError) {
	sess := j.session
	if sess == nil {
		sess = websession.NewSession()
	}
	st, err := j.web.FetchProblemStatement(ctx, sess, contestID, strings.ToUpper(problemIndex))
	if err != nil {
		return statement.Document{}, err
	}
	return j.converter.Convert(st)
}

// webSession returns a logged-in session, restoring or creating one.
func (j *Judge) webSession(ctx context.Context) (*websession.Session, failure.ClassifiedError) {
	if j.session != nil && j.session.Authenticated() {
		return j.session, nil
	}
	if j.creds.Handle == "" {
		return nil, &auth.AuthenticationError{
			Cause:   auth.ErrCauseMissingCredential,
			Missing: []string{auth.EnvHandle},
		}
	}
	if j.sessionFile != nil {
		if sess, ok := j.sessionFile.Restore(j.creds.Handle); ok {
			j.session = sess
			j.restored = true
			return sess, nil
		}
	}
	return j.relogin(ctx)
}

func (j *Judge) relogin(ctx context.Context) (*websession.Session, failure.ClassifiedError) {
	sess := j.session
	if sess == nil {
		sess = websession.NewSession()
	}
	sess.Invalidate()
	if err := j.web.Login(ctx, sess, j.creds); err != nil {
		return nil, err
	}
	j.session = sess
	j.restored = false
	if j.sessionFile != nil {
		// a session that cannot be saved still works for this run
		if saveErr := j.sessionFile.Save(sess); saveErr != nil {
			j.sink.RecordError(
				time.Now(),
				"judge",
				"Judge.relogin",
				metadata.CauseStorageFailure,
				saveErr.Error(),
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrWritePath, j.sessionFile.Path()),
				},
			)
		}
	}
	return sess, nil
}

// sessionExpired reports a web operation that the judge bounced to its login
// form, which is how it answers a session it no longer honours.
func sessionExpired(err failure.ClassifiedError) bool {
	var authErr *auth.AuthenticationError
	if errors.As(err, &authErr) {
		return authErr.Cause == auth.ErrCauseNotLoggedIn
	}
	var submitErr *websession.SubmitError
	if !errors.As(err, &submitErr) {
		return false
	}
	return strings.Contains(submitErr.FinalURL, "/enter")
}
