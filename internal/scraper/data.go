package scraper

import "golang.org/x/net/html"

// SubmissionRow is one line of a contest's submission table.
type SubmissionRow struct {
	// ID is zero when RawID is not numeric.
	ID           int64
	RawID        string
	ProblemIndex string
	Verdict      string
	Time         string
	Memory       string
}

// Statement is the problem statement container of a problem page.
type Statement struct {
	Title string
	Node  *html.Node
}
