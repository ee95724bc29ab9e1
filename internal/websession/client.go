package websession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/cfcli/internal/auth"
	"github.com/rohmanhakim/cfcli/internal/metadata"
	"github.com/rohmanhakim/cfcli/internal/scraper"
	"github.com/rohmanhakim/cfcli/pkg/failure"
	"github.com/rohmanhakim/cfcli/pkg/retry"
	"github.com/rohmanhakim/cfcli/pkg/timeutil"
	"github.com/rohmanhakim/cfcli/pkg/urlutil"
)

// Form actions and paths of the judge website.
const (
	actionEnter  = "enter"
	actionSubmit = "submitSolutionFormSubmitted"
	pathEnter    = "enter"
	pathStatus   = "data/submitSource"
)

const (
	DefaultLanguageID = "54"
	DefaultTabSize    = 4
)

// WebClient drives the judge website on behalf of a Session: the login
// form, the submit form and the pages and endpoints that report on
// submissions.
type WebClient struct {
	fetcher    *pageFetcher
	scraper    scraper.PageScraper
	baseURL    url.URL
	languageID string
	tabSize    int
	retryParam retry.RetryParam
	sink       metadata.MetadataSink
}

func NewWebClient(httpClient *http.Client, baseURL url.URL, sink metadata.MetadataSink) *WebClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if sink == nil {
		sink = &metadata.NoopSink{}
	}
	return &WebClient{
		fetcher: &pageFetcher{
			metadataSink: sink,
			httpClient:   httpClient,
			userAgent:    "cfcli/1.0",
		},
		scraper:    scraper.NewGoqueryScraper(),
		baseURL:    urlutil.NormalizeBase(baseURL),
		languageID: DefaultLanguageID,
		tabSize:    DefaultTabSize,
		retryParam: retry.NewRetryParam(0, 0, 1, timeutil.NewBackoffParam(time.Second, 2.0, 0)),
		sink:       sink,
	}
}

func (w *WebClient) WithScraper(s scraper.PageScraper) *WebClient {
	w.scraper = s
	return w
}

// WithRetryParam sets the retry policy of page and status GETs. Form posts
// are never retried.
func (w *WebClient) WithRetryParam(p retry.RetryParam) *WebClient {
	w.retryParam = p
	return w
}

func (w *WebClient) WithUserAgent(agent string) *WebClient {
	w.fetcher.userAgent = agent
	return w
}

func (w *WebClient) WithLanguage(languageID string) *WebClient {
	w.languageID = languageID
	return w
}

func (w *WebClient) WithTabSize(tabSize int) *WebClient {
	w.tabSize = tabSize
	return w
}

func (w *WebClient) BaseURL() url.URL {
	return w.baseURL
}

// ProblemURL is the public address of a problem page.
func (w *WebClient) ProblemURL(contestID int, problemIndex string) string {
	return urlutil.Resolve(w.baseURL, fmt.Sprintf("contest/%d/problem/%s", contestID, problemIndex))
}

func (w *WebClient) endpoint(path string, query url.Values) url.URL {
	u := w.baseURL
	u.Path = w.baseURL.Path + strings.TrimLeft(path, "/")
	u.RawQuery = query.Encode()
	return u
}

// Login posts the login form for creds.Handle and marks sess as logged in.
// The judge answers a rejected login with HTTP 200, so failure is detected
// from the page text.
func (w *WebClient) Login(ctx context.Context, sess *Session, creds auth.Credentials) failure.ClassifiedError {
	callerMethod := "WebClient.Login"
	if creds.Handle == "" {
		err := &auth.AuthenticationError{
			Cause:   auth.ErrCauseMissingCredential,
			Missing: []string{auth.EnvHandle},
		}
		w.recordError(callerMethod, err, nil)
		return err
	}

	home := w.endpoint("", nil)
	page, err := w.fetcher.get(ctx, sess, home, true, w.retryParam)
	if err != nil {
		w.recordError(callerMethod, err, nil)
		return err
	}
	token, err := w.scraper.CSRFToken(page.Body())
	if err != nil {
		w.recordError(callerMethod, err, nil)
		return err
	}

	form := url.Values{}
	form.Set("handleOrEmail", creds.Handle)
	form.Set("action", actionEnter)
	form.Set("csrf_token", token)
	if creds.Password != "" {
		form.Set("password", creds.Password)
	}

	landing, err := w.fetcher.postForm(ctx, sess, w.endpoint(pathEnter, nil), form)
	if err != nil {
		w.recordError(callerMethod, err, nil)
		return err
	}
	if w.scraper.LoginFailed(landing.Body()) {
		sess.Invalidate()
		authErr := &auth.AuthenticationError{
			Message: scraper.PhraseLoginFailed,
			Cause:   auth.ErrCauseLoginRejected,
		}
		w.recordError(callerMethod, authErr, nil)
		return authErr
	}

	// the token rotates with the login; keep the old one if the landing page
	// does not carry a new one
	if fresh, scrapeErr := w.scraper.CSRFToken(landing.Body()); scrapeErr == nil {
		token = fresh
	}
	sess.handle = creds.Handle
	sess.csrfToken = token
	sess.authenticated = true
	return nil
}

// Submit sends req through the contest submit form. A duplicate of an
// earlier submission is reported through SubmitResult.Duplicate with a nil
// error.
func (w *WebClient) Submit(ctx context.Context, sess *Session, req SubmitRequest) (SubmitResult, failure.ClassifiedError) {
	callerMethod := "WebClient.Submit"
	attrs := []metadata.Attribute{
		metadata.NewAttr(metadata.AttrContestID, strconv.Itoa(req.ContestID)),
		metadata.NewAttr(metadata.AttrProblemIndex, req.ProblemIndex),
	}

	if !sess.authenticated {
		err := &auth.AuthenticationError{
			Message: "log in before submitting",
			Cause:   auth.ErrCauseNotLoggedIn,
		}
		w.recordError(callerMethod, err, attrs)
		return SubmitResult{}, err
	}
	if strings.TrimSpace(req.Source) == "" {
		err := &SubmitError{
			ContestID:    req.ContestID,
			ProblemIndex: req.ProblemIndex,
			Cause:        ErrCauseInvalidSource,
			FormError:    "source is empty",
		}
		w.recordError(callerMethod, err, attrs)
		return SubmitResult{}, err
	}

	submitURL := w.endpoint(fmt.Sprintf("contest/%d/submit", req.ContestID), nil)
	if sess.csrfToken == "" {
		page, err := w.fetcher.get(ctx, sess, submitURL, true, w.retryParam)
		if err != nil {
			w.recordError(callerMethod, err, attrs)
			return SubmitResult{}, err
		}
		if w.scraper.NotRegistered(page.Body()) {
			err := notRegistered(req.ContestID)
			w.recordError(callerMethod, err, attrs)
			return SubmitResult{}, err
		}
		token, err := w.scraper.CSRFToken(page.Body())
		if err != nil {
			w.recordError(callerMethod, err, attrs)
			return SubmitResult{}, err
		}
		sess.csrfToken = token
	}

	languageID := req.LanguageID
	if languageID == "" {
		languageID = w.languageID
	}
	form := url.Values{}
	form.Set("csrf_token", sess.csrfToken)
	form.Set("action", actionSubmit)
	form.Set("submittedProblemIndex", req.ProblemIndex)
	form.Set("programTypeId", languageID)
	form.Set("source", req.Source)
	form.Set("tabSize", strconv.Itoa(w.tabSize))
	form.Set("sourceFile", "")

	landing, err := w.fetcher.postForm(ctx, sess, submitURL, form)
	if err != nil {
		w.recordError(callerMethod, err, attrs)
		return SubmitResult{}, err
	}

	finalURL := landing.URL()
	result := SubmitResult{
		ContestID:    req.ContestID,
		ProblemIndex: req.ProblemIndex,
		FinalURL:     finalURL.String(),
	}

	if w.scraper.DuplicateSubmission(landing.Body()) {
		result.Duplicate = &DuplicateSubmissionWarning{
			ContestID:    req.ContestID,
			ProblemIndex: req.ProblemIndex,
		}
		return result, nil
	}

	if !strings.Contains(finalURL.Path, fmt.Sprintf("contest/%d/my", req.ContestID)) {
		if w.scraper.NotRegistered(landing.Body()) {
			err := notRegistered(req.ContestID)
			w.recordError(callerMethod, err, attrs)
			return SubmitResult{}, err
		}
		submitErr := &SubmitError{
			ContestID:    req.ContestID,
			ProblemIndex: req.ProblemIndex,
			Cause:        ErrCauseRejected,
			FinalURL:     finalURL.String(),
			FormError:    w.scraper.FormError(landing.Body()),
		}
		w.recordError(callerMethod, submitErr, attrs)
		return SubmitResult{}, submitErr
	}

	if id, ok := w.scraper.LatestSubmissionID(landing.Body()); ok {
		result.SubmissionID = id
	}
	return result, nil
}

// FetchStatus asks the status endpoint for one submission.
func (w *WebClient) FetchStatus(ctx context.Context, sess *Session, submissionID int64) (SubmissionStatus, failure.ClassifiedError) {
	callerMethod := "WebClient.FetchStatus"
	attrs := []metadata.Attribute{
		metadata.NewAttr(metadata.AttrSubmissionID, strconv.FormatInt(submissionID, 10)),
	}

	query := url.Values{}
	query.Set("submissionId", strconv.FormatInt(submissionID, 10))
	page, err := w.fetcher.get(ctx, sess, w.endpoint(pathStatus, query), false, w.retryParam)
	if err != nil {
		w.recordError(callerMethod, err, attrs)
		return SubmissionStatus{}, err
	}
	if landedOnLogin(page.URL()) {
		expiredErr := sessionExpired()
		w.recordError(callerMethod, expiredErr, attrs)
		return SubmissionStatus{}, expiredErr
	}

	var fields map[string]json.RawMessage
	if decodeErr := json.Unmarshal(page.Body(), &fields); decodeErr != nil {
		endpoint := w.endpoint(pathStatus, nil)
		tErr := &TransportError{
			Endpoint:   endpoint.String(),
			Message:    decodeErr.Error(),
			Cause:      ErrCauseInvalidBody,
			StatusCode: page.Code(),
		}
		w.recordError(callerMethod, tErr, attrs)
		return SubmissionStatus{}, tErr
	}
	return decodeStatusFields(submissionID, fields), nil
}

// FetchContestSubmissions lists the session's submissions to a contest,
// newest first.
func (w *WebClient) FetchContestSubmissions(ctx context.Context, sess *Session, contestID int) ([]scraper.SubmissionRow, failure.ClassifiedError) {
	callerMethod := "WebClient.FetchContestSubmissions"
	attrs := []metadata.Attribute{
		metadata.NewAttr(metadata.AttrContestID, strconv.Itoa(contestID)),
	}

	page, err := w.fetcher.get(ctx, sess, w.endpoint(fmt.Sprintf("contest/%d/my", contestID), nil), true, w.retryParam)
	if err != nil {
		w.recordError(callerMethod, err, attrs)
		return nil, err
	}
	if landedOnLogin(page.URL()) {
		expiredErr := sessionExpired()
		w.recordError(callerMethod, expiredErr, attrs)
		return nil, expiredErr
	}
	if w.scraper.NotRegistered(page.Body()) {
		regErr := notRegistered(contestID)
		w.recordError(callerMethod, regErr, attrs)
		return nil, regErr
	}

	rows, err := w.scraper.ContestSubmissions(page.Body())
	if err != nil {
		w.recordError(callerMethod, err, attrs)
		return nil, err
	}
	return rows, nil
}

// FetchProblemStatement returns the statement node of a problem page.
func (w *WebClient) FetchProblemStatement(ctx context.Context, sess *Session, contestID int, problemIndex string) (scraper.Statement, failure.ClassifiedError) {
	callerMethod := "WebClient.FetchProblemStatement"
	attrs := []metadata.Attribute{
		metadata.NewAttr(metadata.AttrContestID, strconv.Itoa(contestID)),
		metadata.NewAttr(metadata.AttrProblemIndex, problemIndex),
	}

	page, err := w.fetcher.get(ctx, sess, w.endpoint(fmt.Sprintf("contest/%d/problem/%s", contestID, problemIndex), nil), true, w.retryParam)
	if err != nil {
		w.recordError(callerMethod, err, attrs)
		return scraper.Statement{}, err
	}
	statement, err := w.scraper.ProblemStatement(page.Body())
	if err != nil {
		w.recordError(callerMethod, err, attrs)
		return scraper.Statement{}, err
	}
	return statement, nil
}

func notRegistered(contestID int) *scraper.ScrapeError {
	return &scraper.ScrapeError{
		Message: fmt.Sprintf("contest %d", contestID),
		Cause:   scraper.ErrCauseNotRegistered,
	}
}

// landedOnLogin reports a request that the judge redirected to its login
// form, which is how it answers a session it no longer honours.
func landedOnLogin(u url.URL) bool {
	return strings.HasSuffix(strings.TrimSuffix(u.Path, "/"), "/"+pathEnter)
}

func sessionExpired() *auth.AuthenticationError {
	return &auth.AuthenticationError{
		Message: "the judge redirected to the login form",
		Cause:   auth.ErrCauseNotLoggedIn,
	}
}

func (w *WebClient) recordError(callerMethod string, err failure.ClassifiedError, attrs []metadata.Attribute) {
	cause := metadata.CauseUnknown
	var tErr *TransportError
	var sErr *scraper.ScrapeError
	var subErr *SubmitError
	var authErr *auth.AuthenticationError
	switch {
	case errors.As(err, &tErr):
		cause = mapTransportErrorToMetadataCause(tErr)
	case errors.As(err, &sErr):
		cause = scraper.MapScrapeErrorToMetadataCause(sErr)
	case errors.As(err, &subErr):
		cause = metadata.CauseRemoteRejected
	case errors.As(err, &authErr):
		cause = metadata.CauseAuthFailure
	}
	if attrs == nil {
		attrs = []metadata.Attribute{}
	}
	w.sink.RecordError(
		time.Now(),
		"websession",
		callerMethod,
		cause,
		err.Error(),
		attrs,
	)
}
