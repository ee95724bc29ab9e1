package scraper

// Phrases the judge embeds in otherwise successful (HTTP 200) pages.
const (
	PhraseLoginFailed   = "Invalid handle/email or password"
	PhraseDuplicate     = "You have submitted exactly the same code before"
	PhraseNotRegistered = "You are not registered"
)

// Selectors are written against the parsed DOM, where attribute names are
// lowercased (data-problemIndex becomes data-problemindex).
const (
	selectorCSRFMeta       = `meta[name="X-Csrf-Token"]`
	selectorCSRFInput      = `input[name="csrf_token"]`
	selectorCSRFSpan       = `span.csrf-token[data-csrf]`
	selectorSubmissionRow  = `tr[data-submission-id]`
	selectorProblemIndex   = `[data-problemindex]`
	selectorProblemLink    = `a[href*="/problem/"]`
	selectorVerdictAttr    = `[submissionverdict]`
	selectorVerdictWrapper = `.submissionVerdictWrapper`
	selectorTimeCell       = `td.time-consumed-cell`
	selectorMemoryCell     = `td.memory-consumed-cell`
	selectorSubmissionAttr = `[submissionid]`
	selectorFormError      = `span.error`
	selectorStatement      = `.problem-statement`
	selectorStatementTitle = `.problem-statement .header .title`
)

// UnknownField stands in for a value the page did not carry.
const UnknownField = "unknown"
