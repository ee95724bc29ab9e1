package metadata

import (
	"time"
)

type RequestEvent struct {
	httpMethod string
	url        string
	httpStatus int
	duration   time.Duration
	attempt    int
}

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging and reporting).

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used for retry or abort decisions.
	 - Packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown
  - The failure does not map cleanly to any known category.

# CauseNetworkFailure
  - Transport failure: timeouts, DNS, connection resets, 5xx answers.

# CauseAuthFailure
  - Credentials missing or rejected, login refused, session expired.

# CauseRemoteRejected
  - The judge answered but refused the request (API status FAILED,
    submit form error, not registered).

# CauseContentInvalid
  - A response was received but could not be decoded or scraped.

# CauseStorageFailure
  - Cache, session or scaffold files could not be read or written.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CauseAuthFailure
	CauseRemoteRejected
	CauseContentInvalid
	CauseStorageFailure
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CauseAuthFailure:
		return "auth_failure"
	case CauseRemoteRejected:
		return "remote_rejected"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	default:
		return "unknown"
	}
}

type CacheOutcome string

const (
	CacheHit         CacheOutcome = "hit"
	CacheMiss        CacheOutcome = "miss"
	CacheStale       CacheOutcome = "stale"
	CacheCorrupt     CacheOutcome = "corrupt"
	CacheStored      CacheOutcome = "stored"
	CacheWriteFailed CacheOutcome = "write_failed"
)

type ArtifactKind string

const (
	ArtifactSource    ArtifactKind = "source"
	ArtifactTemplate  ArtifactKind = "template"
	ArtifactStatement ArtifactKind = "statement"
	ArtifactSession   ArtifactKind = "session"
)

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL          AttributeKey = "url"
	AttrMethod       AttributeKey = "api_method"
	AttrHTTPStatus   AttributeKey = "http_status"
	AttrContestID    AttributeKey = "contest_id"
	AttrProblemIndex AttributeKey = "problem_index"
	AttrSubmissionID AttributeKey = "submission_id"
	AttrField        AttributeKey = "field"
	AttrAttempt      AttributeKey = "attempt"
	AttrWritePath    AttributeKey = "write_path"
	AttrComment      AttributeKey = "comment"
)
