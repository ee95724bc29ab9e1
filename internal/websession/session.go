package websession

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rohmanhakim/cfcli/internal/metadata"
	"github.com/rohmanhakim/cfcli/pkg/failure"
	"github.com/rohmanhakim/cfcli/pkg/fileutil"
	"golang.org/x/net/publicsuffix"
)

// Session is the browser-side state of one judge account: its cookies, the
// current anti-forgery token and whether the login form has been accepted.
// A Session is passed explicitly to every web operation and is not safe for
// concurrent use.
type Session struct {
	jar           http.CookieJar
	csrfToken     string
	handle        string
	authenticated bool
}

// NewSession returns an anonymous session with an empty cookie jar.
func NewSession() *Session {
	// cookiejar.New only fails on a nil PublicSuffixList
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &Session{jar: jar}
}

func (s *Session) Jar() http.CookieJar {
	return s.jar
}

func (s *Session) CSRFToken() string {
	return s.csrfToken
}

func (s *Session) Handle() string {
	return s.handle
}

func (s *Session) Authenticated() bool {
	return s.authenticated
}

// Invalidate drops the login state and token but keeps cookies, so the next
// login starts from the same browser identity.
func (s *Session) Invalidate() {
	s.csrfToken = ""
	s.authenticated = false
}

type SessionFileErrorCause string

const (
	ErrCauseSessionRead   SessionFileErrorCause = "failed to read session file"
	ErrCauseSessionDecode SessionFileErrorCause = "failed to decode session file"
	ErrCauseSessionEncode SessionFileErrorCause = "failed to encode session"
)

type SessionFileError struct {
	Path    string
	Message string
	Cause   SessionFileErrorCause
}

func (e *SessionFileError) Error() string {
	return fmt.Sprintf("session file error: %s: %s: %s", e.Path, e.Cause, e.Message)
}

func (e *SessionFileError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// sessionDTO is the on-disk form of a Session. Cookies are kept as a single
// Cookie header line scoped to the web base URL.
type sessionDTO struct {
	Handle    string    `json:"handle"`
	CSRFToken string    `json:"csrfToken"`
	Cookie    string    `json:"cookie"`
	SavedAt   time.Time `json:"savedAt"`
}

// SessionFile persists sessions between runs.
type SessionFile struct {
	path    string
	webBase url.URL
	sink    metadata.MetadataSink
	now     func() time.Time
}

func NewSessionFile(path string, webBase url.URL, sink metadata.MetadataSink) *SessionFile {
	if sink == nil {
		sink = &metadata.NoopSink{}
	}
	return &SessionFile{
		path:    path,
		webBase: webBase,
		sink:    sink,
		now:     time.Now,
	}
}

func (f *SessionFile) Path() string {
	return f.path
}

// Save writes the handle, token and cookies of an authenticated session.
func (f *SessionFile) Save(sess *Session) failure.ClassifiedError {
	dto := sessionDTO{
		Handle:    sess.handle,
		CSRFToken: sess.csrfToken,
		Cookie:    exportCookieHeader(sess.jar, &f.webBase),
		SavedAt:   f.now().UTC(),
	}
	data, err := json.MarshalIndent(dto, "", "  ")
	if err != nil {
		encodeErr := &SessionFileError{Path: f.path, Message: err.Error(), Cause: ErrCauseSessionEncode}
		f.recordError("SessionFile.Save", encodeErr)
		return encodeErr
	}
	if writeErr := fileutil.WriteFileAtomic(f.path, data, 0600); writeErr != nil {
		f.recordError("SessionFile.Save", writeErr)
		return writeErr
	}
	f.sink.RecordArtifact(metadata.ArtifactSession, f.path, []metadata.Attribute{})
	return nil
}

// Restore loads the saved session for handle. It reports false when there is
// no usable saved session: the file is absent, unreadable, belongs to another
// handle or carries no cookies. A restored session counts as logged in.
func (f *SessionFile) Restore(handle string) (*Session, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.recordError("SessionFile.Restore", &SessionFileError{Path: f.path, Message: err.Error(), Cause: ErrCauseSessionRead})
		}
		return nil, false
	}

	var dto sessionDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		f.recordError("SessionFile.Restore", &SessionFileError{Path: f.path, Message: err.Error(), Cause: ErrCauseSessionDecode})
		return nil, false
	}
	if dto.Handle == "" || !strings.EqualFold(dto.Handle, handle) || strings.TrimSpace(dto.Cookie) == "" {
		return nil, false
	}

	sess := NewSession()
	sess.jar.SetCookies(&f.webBase, parseCookieHeader(dto.Cookie))
	sess.handle = dto.Handle
	sess.csrfToken = dto.CSRFToken
	sess.authenticated = true
	return sess, true
}

func (f *SessionFile) recordError(callerMethod string, err failure.ClassifiedError) {
	f.sink.RecordError(
		time.Now(),
		"websession",
		callerMethod,
		metadata.CauseStorageFailure,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, f.path),
		},
	)
}

// exportCookieHeader returns the jar's cookies for u as a header string.
func exportCookieHeader(jar http.CookieJar, u *url.URL) string {
	if jar == nil {
		return ""
	}
	cookies := jar.Cookies(u)
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

func parseCookieHeader(header string) []*http.Cookie {
	cookies, err := http.ParseCookie(strings.TrimSpace(header))
	if err == nil {
		return cookies
	}
	// tolerate hand-edited files with stray separators
	var out []*http.Cookie
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		out = append(out, &http.Cookie{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return out
}
