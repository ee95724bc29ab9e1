package websession

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/rohmanhakim/cfcli/internal/scraper"
)

// HTTP boundary

type FetchResult struct {
	url  url.URL
	body []byte
	meta ResponseMeta
}

// URL is the address the response was served from, after redirects.
func (f *FetchResult) URL() url.URL {
	return f.url
}

func (f *FetchResult) Body() []byte {
	return f.body
}

func (f *FetchResult) Code() int {
	return f.meta.statusCode
}

func (f *FetchResult) SizeByte() uint64 {
	return f.meta.transferredSizeByte
}

func (f *FetchResult) Headers() map[string]string {
	return f.meta.responseHeaders
}

type ResponseMeta struct {
	statusCode          int
	transferredSizeByte uint64
	responseHeaders     map[string]string
}

// SubmitRequest names one solution to send. LanguageID overrides the
// client's default program type when non-empty.
type SubmitRequest struct {
	ContestID    int
	ProblemIndex string
	Source       string
	LanguageID   string
}

// SubmitResult describes an accepted submit form. Duplicate is set when the
// judge refused identical source. SubmissionID is zero when the landing page
// did not list it.
type SubmitResult struct {
	ContestID    int
	ProblemIndex string
	SubmissionID int64
	FinalURL     string
	Duplicate    *DuplicateSubmissionWarning
}

func (r SubmitResult) IsDuplicate() bool {
	return r.Duplicate != nil
}

// Metric is an optional counter from the status endpoint.
type Metric struct {
	Value int64
	Known bool
}

func KnownMetric(v int64) Metric {
	return Metric{Value: v, Known: true}
}

func (m Metric) String() string {
	if !m.Known {
		return scraper.UnknownField
	}
	return strconv.FormatInt(m.Value, 10)
}

// SubmissionStatus is one answer of the submission status endpoint.
type SubmissionStatus struct {
	SubmissionID        int64
	Verdict             string
	TimeConsumedMillis  Metric
	MemoryConsumedBytes Metric
	PassedTestCount     Metric
	TestCount           Metric
}

// decodeStatusFields reads the status endpoint tolerantly: numbers may come
// quoted, and absent or malformed members leave the field unknown.
func decodeStatusFields(submissionID int64, fields map[string]json.RawMessage) SubmissionStatus {
	return SubmissionStatus{
		SubmissionID:        submissionID,
		Verdict:             stringField(fields, "verdict"),
		TimeConsumedMillis:  metricField(fields, "timeConsumedMillis"),
		MemoryConsumedBytes: metricField(fields, "memoryConsumedBytes"),
		PassedTestCount:     metricField(fields, "passedTestCount"),
		TestCount:           metricField(fields, "testCount"),
	}
}

func stringField(fields map[string]json.RawMessage, name string) string {
	raw, ok := fields[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func metricField(fields map[string]json.RawMessage, name string) Metric {
	raw, ok := fields[name]
	if !ok {
		return Metric{}
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return Metric{}
	}
	if v, err := n.Int64(); err == nil {
		return KnownMetric(v)
	}
	if f, err := n.Float64(); err == nil {
		return KnownMetric(int64(f))
	}
	return Metric{}
}
