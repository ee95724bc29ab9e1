package judge_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rohmanhakim/cfcli/internal/apiclient"
	"github.com/rohmanhakim/cfcli/internal/auth"
	"github.com/rohmanhakim/cfcli/internal/cache"
	"github.com/rohmanhakim/cfcli/internal/judge"
	"github.com/rohmanhakim/cfcli/internal/metadata"
	"github.com/rohmanhakim/cfcli/internal/poller"
	"github.com/rohmanhakim/cfcli/internal/scraper"
	"github.com/rohmanhakim/cfcli/internal/websession"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJudge serves the JSON API under /api and the website at the root.
type fakeJudge struct {
	server *httptest.Server

	userInfoHits  atomic.Int32
	contestHits   atomic.Int32
	enterHits     atomic.Int32
	statusHits    atomic.Int32
	submitHits    atomic.Int32
	expireSession atomic.Bool

	mu        sync.Mutex
	lastQuery url.Values
}

func newFakeJudge(t *testing.T) *fakeJudge {
	t.Helper()
	f := &fakeJudge{}
	r := chi.NewRouter()

	r.Get("/api/user.info", func(w http.ResponseWriter, req *http.Request) {
		f.userInfoHits.Add(1)
		f.remember(req.URL.Query())
		if req.URL.Query().Get("handles") != "alice" {
			writeJSON(w, http.StatusBadRequest, `{"status":"FAILED","comment":"handles: User with handle nobody not found"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"status":"OK","result":[{"handle":"alice","rating":1500,"rank":"specialist"}]}`)
	})
	r.Get("/api/contest.list", func(w http.ResponseWriter, req *http.Request) {
		f.contestHits.Add(1)
		f.remember(req.URL.Query())
		writeJSON(w, http.StatusOK, `{"status":"OK","result":[
			{"id":1,"name":"Past One","phase":"FINISHED","durationSeconds":7200,"startTimeSeconds":100},
			{"id":2,"name":"Upcoming Late","phase":"BEFORE","durationSeconds":7200,"startTimeSeconds":9000},
			{"id":3,"name":"Past Three","phase":"FINISHED","durationSeconds":7200,"startTimeSeconds":300},
			{"id":4,"name":"Upcoming Soon","phase":"BEFORE","durationSeconds":5400,"startTimeSeconds":8000},
			{"id":5,"name":"Running","phase":"CODING","durationSeconds":7200,"startTimeSeconds":500},
			{"id":6,"name":"Past Two","phase":"FINISHED","durationSeconds":7200,"startTimeSeconds":200}
		]}`)
	})
	r.Get("/api/contest.standings", func(w http.ResponseWriter, req *http.Request) {
		f.remember(req.URL.Query())
		writeJSON(w, http.StatusOK, `{"status":"OK","result":{"contest":{"id":1900,"name":"Round","phase":"FINISHED"},
			"problems":[{"contestId":1900,"index":"A","name":"Two Sums"},{"contestId":1900,"index":"B1","name":"Easy"}],"rows":[]}}`)
	})

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeHTML(w, page("tok-home", ""))
	})
	r.Post("/enter", func(w http.ResponseWriter, req *http.Request) {
		f.enterHits.Add(1)
		_ = req.ParseForm()
		if req.PostForm.Get("handleOrEmail") != "alice" {
			writeHTML(w, page("tok-home", scraper.PhraseLoginFailed))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "fresh", Path: "/"})
		writeHTML(w, page("tok-after", ""))
	})
	r.Get("/enter", func(w http.ResponseWriter, _ *http.Request) {
		writeHTML(w, page("tok-enter", "<form>login</form>"))
	})
	r.Post("/contest/{id}/submit", func(w http.ResponseWriter, req *http.Request) {
		f.submitHits.Add(1)
		_ = req.ParseForm()
		if f.bounceStale(w, req) {
			return
		}
		if req.PostForm.Get("source") == "same" {
			writeHTML(w, page("tok-after", scraper.PhraseDuplicate))
			return
		}
		http.Redirect(w, req, "/contest/"+chi.URLParam(req, "id")+"/my", http.StatusFound)
	})
	r.Get("/contest/{id}/my", func(w http.ResponseWriter, req *http.Request) {
		if f.bounceStale(w, req) {
			return
		}
		writeHTML(w, page("tok-my", `<table><tr data-submission-id="555"><td data-problemIndex="A"></td><td><span submissionVerdict="TESTING">Running</span></td></tr></table>`))
	})
	r.Get("/contest/{id}/problem/{index}", func(w http.ResponseWriter, _ *http.Request) {
		writeHTML(w, page("tok-p", `<div class="problem-statement"><div class="header"><div class="title">A. Two Sums</div></div><p>Print <i>a+b</i>.</p></div>`))
	})
	r.Get("/data/submitSource", func(w http.ResponseWriter, req *http.Request) {
		if f.bounceStale(w, req) {
			return
		}
		n := f.statusHits.Add(1)
		if n < 3 {
			writeJSON(w, http.StatusOK, `{"verdict":"TESTING"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"verdict":"OK","timeConsumedMillis":15,"memoryConsumedBytes":1048576,"passedTestCount":20,"testCount":20}`)
	})

	f.server = httptest.NewServer(r)
	t.Cleanup(f.server.Close)
	return f
}

// bounceStale sends requests without the cookie of a fresh login to the
// login form while expireSession is set.
func (f *fakeJudge) bounceStale(w http.ResponseWriter, req *http.Request) bool {
	if !f.expireSession.Load() {
		return false
	}
	if c, err := req.Cookie("JSESSIONID"); err == nil && c.Value == "fresh" {
		return false
	}
	http.Redirect(w, req, "/enter", http.StatusFound)
	return true
}

func (f *fakeJudge) remember(q url.Values) {
	f.mu.Lock()
	f.lastQuery = q
	f.mu.Unlock()
}

func (f *fakeJudge) query() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

func (f *fakeJudge) url(path string) url.URL {
	u, _ := url.Parse(f.server.URL + path)
	return *u
}

func page(token, body string) string {
	return `<html><head><meta name="X-Csrf-Token" content="` + token + `"/></head><body>` + body + `</body></html>`
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

// newJudge wires a Judge against f with an in-memory cache.
func newJudge(t *testing.T, f *fakeJudge, sessionPath string) *judge.Judge {
	t.Helper()
	store := cache.NewStore(cache.NewMemoryBackend(), cache.DefaultTTL, nil)
	api := apiclient.NewClient(f.server.Client(), f.url("/api/"), nil).WithCache(store)
	web := websession.NewWebClient(f.server.Client(), f.url("/"), nil)
	j := judge.New(api, web, nil).WithPollSleeper(noSleep)
	if sessionPath != "" {
		j.WithSessionFile(websession.NewSessionFile(sessionPath, f.url("/"), nil))
	}
	return j
}

func TestLogin_SecondCallServedFromCache(t *testing.T) {
	f := newFakeJudge(t)
	j := newJudge(t, f, "")

	assert.True(t, j.Login(context.Background(), "alice", "k", "s"))
	assert.Equal(t, int32(1), f.userInfoHits.Load())
	assert.Empty(t, f.query().Get("apiSig"), "user.info is sent unsigned")

	assert.True(t, j.Login(context.Background(), "alice", "k", "s"))
	assert.Equal(t, int32(1), f.userInfoHits.Load(), "second call must not reach the network")

	creds := j.Credentials()
	assert.Equal(t, "alice", creds.Handle)
	assert.Equal(t, "k", creds.APIKey)
	assert.Equal(t, "s", creds.APISecret)
}

func TestLogin_Failures(t *testing.T) {
	f := newFakeJudge(t)
	j := newJudge(t, f, "")

	assert.False(t, j.Login(context.Background(), "nobody", "k", "s"))
	assert.False(t, j.Login(context.Background(), "alice", "", "s"), "missing key")
	assert.Equal(t, int32(1), f.userInfoHits.Load(), "missing credentials never reach the network")

	_, err := j.Authenticate(context.Background(), auth.Credentials{Handle: "nobody", APIKey: "k", APISecret: "s"})
	var apiErr *apiclient.ApiError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Comment, "not found")
}

func TestListContests_SignedFilteredSorted(t *testing.T) {
	f := newFakeJudge(t)
	j := newJudge(t, f, "")
	require.True(t, j.Login(context.Background(), "alice", "k", "s"))

	upcoming, err := j.ListContests(context.Background(), "upcoming", 10)
	require.Nil(t, err)
	q := f.query()
	assert.Equal(t, "k", q.Get("apiKey"))
	assert.NotEmpty(t, q.Get("apiSig"))
	assert.Len(t, q.Get("rand"), 6)
	require.Len(t, upcoming, 2)
	assert.Equal(t, []int{4, 2}, []int{upcoming[0].ID, upcoming[1].ID}, "soonest first")

	past, err := j.ListContests(context.Background(), "past", 2)
	require.Nil(t, err)
	require.Len(t, past, 2)
	assert.Equal(t, []int{3, 6}, []int{past[0].ID, past[1].ID}, "most recent first, truncated")
	assert.Equal(t, int32(1), f.contestHits.Load(), "contest.list is cached between filters")

	running, err := j.ListContests(context.Background(), "Running", 0)
	require.Nil(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, 5, running[0].ID)
}

func TestListContests_UnknownPhase(t *testing.T) {
	f := newFakeJudge(t)
	j := newJudge(t, f, "")

	_, err := j.ListContests(context.Background(), "someday", 10)

	var judgeErr *judge.JudgeError
	require.True(t, errors.As(err, &judgeErr))
	assert.Equal(t, judge.ErrCauseUnknownPhase, judgeErr.Cause)
	assert.Equal(t, int32(0), f.contestHits.Load())
}

func TestContestProblems(t *testing.T) {
	f := newFakeJudge(t)
	j := newJudge(t, f, "")

	problems, err := j.ContestProblems(context.Background(), 1900)

	require.Nil(t, err)
	require.Len(t, problems, 2)
	assert.Equal(t, "B1", problems[1].Index)
	assert.Equal(t, "1900", f.query().Get("contestId"))
	assert.Equal(t, "1", f.query().Get("count"))
}

func TestSubmitFile_LogsInAndSubmits(t *testing.T) {
	f := newFakeJudge(t)
	sessionPath := filepath.Join(t.TempDir(), "session.json")
	j := newJudge(t, f, sessionPath)
	require.True(t, j.Login(context.Background(), "alice", "k", "s"))

	result, err := j.SubmitFile(context.Background(), 1900, "a", "int main() {}")

	require.Nil(t, err)
	assert.False(t, result.IsDuplicate())
	assert.Equal(t, "A", result.ProblemIndex)
	assert.Equal(t, int64(555), result.SubmissionID)
	assert.Equal(t, int32(1), f.enterHits.Load())
	require.NotNil(t, j.Session())
	assert.True(t, j.Session().Authenticated())
	assert.FileExists(t, sessionPath)
}

func TestSubmitFile_DuplicateIsWarning(t *testing.T) {
	f := newFakeJudge(t)
	j := newJudge(t, f, "")
	require.True(t, j.Login(context.Background(), "alice", "k", "s"))

	result, err := j.SubmitFile(context.Background(), 1900, "A", "same")

	require.Nil(t, err)
	var apiErr *apiclient.ApiError
	assert.False(t, errors.As(err, &apiErr))
	require.True(t, result.IsDuplicate())
	assert.Equal(t, 1900, result.Duplicate.ContestID)
}

func TestSubmitFile_ReusesSavedSession(t *testing.T) {
	f := newFakeJudge(t)
	sessionPath := filepath.Join(t.TempDir(), "session.json")

	first := newJudge(t, f, sessionPath)
	require.True(t, first.Login(context.Background(), "alice", "k", "s"))
	_, err := first.SubmitFile(context.Background(), 1900, "A", "x")
	require.Nil(t, err)
	require.Equal(t, int32(1), f.enterHits.Load())

	second := newJudge(t, f, sessionPath)
	require.True(t, second.Login(context.Background(), "alice", "k", "s"))
	_, err = second.SubmitFile(context.Background(), 1900, "B", "y")

	require.Nil(t, err)
	assert.Equal(t, int32(1), f.enterHits.Load(), "restored session skips the login form")
}

func TestSubmitFile_ExpiredSavedSessionLogsInAgain(t *testing.T) {
	f := newFakeJudge(t)
	sessionPath := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, writeStaleSession(sessionPath))
	f.expireSession.Store(true)

	j := newJudge(t, f, sessionPath)
	require.True(t, j.Login(context.Background(), "alice", "k", "s"))

	result, err := j.SubmitFile(context.Background(), 1900, "A", "x")

	require.Nil(t, err)
	assert.Equal(t, int64(555), result.SubmissionID)
	assert.Equal(t, int32(1), f.enterHits.Load())
	assert.Equal(t, int32(2), f.submitHits.Load())
}

// writeStaleSession leaves a saved session whose cookie the judge no longer
// honours.
func writeStaleSession(path string) error {
	return os.WriteFile(path, []byte(`{"handle":"alice","csrfToken":"tok-old","cookie":"JSESSIONID=stale"}`), 0600)
}

func TestSubmitFile_UnsavableSessionIsRecorded(t *testing.T) {
	f := newFakeJudge(t)
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))
	sessionPath := filepath.Join(blocker, "session.json")

	sink := &errorSink{}
	store := cache.NewStore(cache.NewMemoryBackend(), cache.DefaultTTL, nil)
	api := apiclient.NewClient(f.server.Client(), f.url("/api/"), nil).WithCache(store)
	web := websession.NewWebClient(f.server.Client(), f.url("/"), nil)
	j := judge.New(api, web, sink).
		WithSessionFile(websession.NewSessionFile(sessionPath, f.url("/"), nil))
	require.True(t, j.Login(context.Background(), "alice", "k", "s"))

	result, err := j.SubmitFile(context.Background(), 1900, "A", "x")

	require.Nil(t, err, "a session that cannot be saved still submits")
	assert.Equal(t, int64(555), result.SubmissionID)
	assert.Contains(t, sink.actions, "Judge.relogin")
}

// errorSink keeps the actions of recorded errors.
type errorSink struct {
	metadata.NoopSink
	mu      sync.Mutex
	actions []string
}

func (s *errorSink) RecordError(_ time.Time, _ string, action string, _ metadata.ErrorCause, _ string, _ []metadata.Attribute) {
	s.mu.Lock()
	s.actions = append(s.actions, action)
	s.mu.Unlock()
}

func TestSubmitFile_InvalidContest(t *testing.T) {
	f := newFakeJudge(t)
	j := newJudge(t, f, "")

	_, err := j.SubmitFile(context.Background(), 0, "A", "x")

	var judgeErr *judge.JudgeError
	require.True(t, errors.As(err, &judgeErr))
	assert.Equal(t, judge.ErrCauseInvalidInput, judgeErr.Cause)
}

func TestSubmitFile_RequiresHandle(t *testing.T) {
	f := newFakeJudge(t)
	j := newJudge(t, f, "")

	_, err := j.SubmitFile(context.Background(), 1900, "A", "x")

	var authErr *auth.AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, int32(0), f.enterHits.Load())
}

func TestPollStatus_TerminalOnThirdAttempt(t *testing.T) {
	f := newFakeJudge(t)
	j := newJudge(t, f, "")
	require.True(t, j.Login(context.Background(), "alice", "k", "s"))
	var attempts []int
	j.WithPollObserver(func(attempt int, _ websession.SubmissionStatus) {
		attempts = append(attempts, attempt)
	})

	outcome, err := j.PollStatus(context.Background(), 555)

	require.Nil(t, err)
	assert.Equal(t, poller.StateTerminal, outcome.State)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, "OK", outcome.Status.Verdict)
	assert.Equal(t, int64(15), outcome.Status.TimeConsumedMillis.Value)
	assert.Equal(t, int64(1048576), outcome.Status.MemoryConsumedBytes.Value)
	assert.Equal(t, "20", outcome.Status.PassedTestCount.String())
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestPollStatus_ExhaustedWithSmallBudget(t *testing.T) {
	f := newFakeJudge(t)
	j := newJudge(t, f, "").WithPolling(time.Millisecond, 2)
	require.True(t, j.Login(context.Background(), "alice", "k", "s"))

	outcome, err := j.PollStatus(context.Background(), 555)

	require.Nil(t, err)
	assert.Equal(t, poller.StateExhausted, outcome.State)
	assert.Equal(t, int32(2), f.statusHits.Load())
}

func TestPollStatus_ExpiredSavedSessionLogsInAgain(t *testing.T) {
	f := newFakeJudge(t)
	sessionPath := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, writeStaleSession(sessionPath))
	f.expireSession.Store(true)

	j := newJudge(t, f, sessionPath)
	require.True(t, j.Login(context.Background(), "alice", "k", "s"))

	outcome, err := j.PollStatus(context.Background(), 555)

	require.Nil(t, err)
	assert.Equal(t, poller.StateTerminal, outcome.State)
	assert.Equal(t, "OK", outcome.Status.Verdict)
	assert.Equal(t, int32(1), f.enterHits.Load())
	assert.True(t, j.Session().Authenticated())
}

func TestContestSubmissions_ExpiredSavedSessionLogsInAgain(t *testing.T) {
	f := newFakeJudge(t)
	sessionPath := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, writeStaleSession(sessionPath))
	f.expireSession.Store(true)

	j := newJudge(t, f, sessionPath)
	require.True(t, j.Login(context.Background(), "alice", "k", "s"))

	rows, err := j.ContestSubmissions(context.Background(), 1900)

	require.Nil(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(555), rows[0].ID)
	assert.Equal(t, int32(1), f.enterHits.Load())
}

func TestContestSubmissions(t *testing.T) {
	f := newFakeJudge(t)
	j := newJudge(t, f, "")
	require.True(t, j.Login(context.Background(), "alice", "k", "s"))

	rows, err := j.ContestSubmissions(context.Background(), 1900)

	require.Nil(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(555), rows[0].ID)
	assert.Equal(t, "TESTING", rows[0].Verdict)
	assert.Equal(t, scraper.UnknownField, rows[0].Time)
}

func TestProblemStatement_Anonymous(t *testing.T) {
	f := newFakeJudge(t)
	j := newJudge(t, f, "")

	doc, err := j.ProblemStatement(context.Background(), 1900, "a")

	require.Nil(t, err)
	assert.Equal(t, "A. Two Sums", doc.Title())
	assert.Contains(t, string(doc.Markdown()), "*a+b*")
	assert.Equal(t, int32(0), f.enterHits.Load())
}

func TestWebLogin_ReplacesRestoredSession(t *testing.T) {
	f := newFakeJudge(t)
	sessionPath := filepath.Join(t.TempDir(), "session.json")
	j := newJudge(t, f, sessionPath)
	require.True(t, j.Login(context.Background(), "alice", "k", "s"))

	require.Nil(t, j.WebLogin(context.Background()))
	require.Nil(t, j.WebLogin(context.Background()))

	assert.Equal(t, int32(2), f.enterHits.Load())
	assert.FileExists(t, sessionPath)
	assert.True(t, j.Session().Authenticated())
}

func TestWebLogin_RequiresHandle(t *testing.T) {
	f := newFakeJudge(t)
	j := newJudge(t, f, "")

	err := j.WebLogin(context.Background())

	var authErr *auth.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, int32(0), f.enterHits.Load())
}
