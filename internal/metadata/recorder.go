package metadata

import (
	"time"

	"github.com/rs/zerolog"
)

/*
Metadata Collected
- Outgoing HTTP requests (method, url, status, duration, attempt)
- Cache outcomes per fingerprint
- Verdict poll attempts
- Files written for the user

Metadata is write-only.
No component may read metadata to influence judge interaction.
*/

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)
	RecordRequest(
		httpMethod string,
		url string,
		httpStatus int,
		duration time.Duration,
		attempt int,
	)
	RecordCache(outcome CacheOutcome, key string, attrs []Attribute)
	RecordPoll(submissionID int64, attempt int, verdict string)
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

/*
Recorder forwards structured judge events to a zerolog logger.
It must not:
- perform I/O decisions
- affect control flow
Events are written synchronously in the order they are received.
*/
type Recorder struct {
	logger zerolog.Logger
}

func NewRecorder(logger zerolog.Logger) *Recorder {
	return &Recorder{
		logger: logger,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	ev := r.logger.Warn().
		Time("observed_at", observedAt).
		Str("package", packageName).
		Str("action", action).
		Str("cause", cause.String())
	withAttrs(ev, attrs).Msg(details)
}

func (r *Recorder) RecordRequest(
	httpMethod string,
	url string,
	httpStatus int,
	duration time.Duration,
	attempt int,
) {
	event := RequestEvent{
		httpMethod: httpMethod,
		url:        url,
		httpStatus: httpStatus,
		duration:   duration,
		attempt:    attempt,
	}
	r.logger.Debug().
		Str("http_method", event.httpMethod).
		Str(string(AttrURL), event.url).
		Int(string(AttrHTTPStatus), event.httpStatus).
		Dur("duration", event.duration).
		Int(string(AttrAttempt), event.attempt).
		Msg("request")
}

func (r *Recorder) RecordCache(outcome CacheOutcome, key string, attrs []Attribute) {
	level := zerolog.DebugLevel
	if outcome == CacheWriteFailed || outcome == CacheCorrupt {
		level = zerolog.WarnLevel
	}
	ev := r.logger.WithLevel(level).
		Str("outcome", string(outcome)).
		Str("key", key)
	withAttrs(ev, attrs).Msg("cache")
}

func (r *Recorder) RecordPoll(submissionID int64, attempt int, verdict string) {
	r.logger.Debug().
		Int64(string(AttrSubmissionID), submissionID).
		Int(string(AttrAttempt), attempt).
		Str("verdict", verdict).
		Msg("poll")
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	ev := r.logger.Info().
		Str("kind", string(kind)).
		Str(string(AttrWritePath), path)
	withAttrs(ev, attrs).Msg("wrote file")
}

func withAttrs(ev *zerolog.Event, attrs []Attribute) *zerolog.Event {
	for _, a := range attrs {
		ev = ev.Str(string(a.Key), a.Value)
	}
	return ev
}

// NoopSink, struct that implements metadata.MetadataSink but does nothing
// Callers (or tests) decide whether to inject Recorder or NoopSink

type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordRequest(
	httpMethod string,
	url string,
	httpStatus int,
	duration time.Duration,
	attempt int,
) {
}

func (n *NoopSink) RecordCache(outcome CacheOutcome, key string, attrs []Attribute) {}

func (n *NoopSink) RecordPoll(submissionID int64, attempt int, verdict string) {}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}
