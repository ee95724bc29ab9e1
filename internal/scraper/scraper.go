package scraper

import (
	"bytes"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/cfcli/pkg/failure"
)

/*
PageScraper extracts individual facts from judge pages.

Each method answers one question about one page. Methods that detect a
condition return false when the page cannot be parsed; methods that
extract a value the caller depends on return a ScrapeError instead.
Missing optional fields are reported as UnknownField, never as a failure
of the whole page.
*/
type PageScraper interface {
	CSRFToken(page []byte) (string, failure.ClassifiedError)
	LoginFailed(page []byte) bool
	DuplicateSubmission(page []byte) bool
	NotRegistered(page []byte) bool
	FormError(page []byte) string
	LatestSubmissionID(page []byte) (int64, bool)
	ContestSubmissions(page []byte) ([]SubmissionRow, failure.ClassifiedError)
	ProblemStatement(page []byte) (Statement, failure.ClassifiedError)
}

type GoqueryScraper struct{}

func NewGoqueryScraper() GoqueryScraper {
	return GoqueryScraper{}
}

func parse(page []byte) (*goquery.Document, failure.ClassifiedError) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, &ScrapeError{
			Message: err.Error(),
			Cause:   ErrCauseParse,
		}
	}
	return doc, nil
}

// CSRFToken reads the anti-forgery token from the page head, falling back to
// the hidden form input and the token span some pages carry instead.
func (GoqueryScraper) CSRFToken(page []byte) (string, failure.ClassifiedError) {
	doc, err := parse(page)
	if err != nil {
		return "", err
	}

	if token, ok := doc.Find(selectorCSRFMeta).First().Attr("content"); ok && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token), nil
	}
	if token, ok := doc.Find(selectorCSRFInput).First().Attr("value"); ok && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token), nil
	}
	if token, ok := doc.Find(selectorCSRFSpan).First().Attr("data-csrf"); ok && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token), nil
	}

	return "", &ScrapeError{
		Message: "no X-Csrf-Token meta tag or csrf_token input",
		Cause:   ErrCauseTokenNotFound,
	}
}

func (GoqueryScraper) LoginFailed(page []byte) bool {
	return bytes.Contains(page, []byte(PhraseLoginFailed))
}

func (GoqueryScraper) DuplicateSubmission(page []byte) bool {
	return bytes.Contains(page, []byte(PhraseDuplicate))
}

func (GoqueryScraper) NotRegistered(page []byte) bool {
	return bytes.Contains(page, []byte(PhraseNotRegistered))
}

// FormError returns the first inline form error message, or "".
func (GoqueryScraper) FormError(page []byte) string {
	doc, err := parse(page)
	if err != nil {
		return ""
	}
	var message string
	doc.Find(selectorFormError).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		message = strings.TrimSpace(s.Text())
		return message == ""
	})
	return message
}

// LatestSubmissionID returns the id of the first submission row, which the
// judge lists newest first.
func (GoqueryScraper) LatestSubmissionID(page []byte) (int64, bool) {
	doc, err := parse(page)
	if err != nil {
		return 0, false
	}

	if raw, ok := doc.Find(selectorSubmissionRow).First().Attr("data-submission-id"); ok {
		if id, convErr := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); convErr == nil {
			return id, true
		}
	}
	if raw, ok := doc.Find(selectorSubmissionAttr).First().Attr("submissionid"); ok {
		if id, convErr := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); convErr == nil {
			return id, true
		}
	}
	return 0, false
}

// ContestSubmissions reads every submission row of a status or my-page.
func (GoqueryScraper) ContestSubmissions(page []byte) ([]SubmissionRow, failure.ClassifiedError) {
	doc, err := parse(page)
	if err != nil {
		return nil, err
	}

	rows := []SubmissionRow{}
	doc.Find(selectorSubmissionRow).Each(func(_ int, tr *goquery.Selection) {
		raw := strings.TrimSpace(tr.AttrOr("data-submission-id", ""))
		row := SubmissionRow{
			RawID:        raw,
			ProblemIndex: problemIndex(tr),
			Verdict:      verdict(tr),
			Time:         cellText(tr, selectorTimeCell),
			Memory:       cellText(tr, selectorMemoryCell),
		}
		if id, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil {
			row.ID = id
		}
		rows = append(rows, row)
	})
	return rows, nil
}

func problemIndex(tr *goquery.Selection) string {
	if idx, ok := tr.Find(selectorProblemIndex).First().Attr("data-problemindex"); ok && strings.TrimSpace(idx) != "" {
		return strings.TrimSpace(idx)
	}
	if idx, ok := tr.Attr("data-problemindex"); ok && strings.TrimSpace(idx) != "" {
		return strings.TrimSpace(idx)
	}
	// /contest/1234/problem/B1
	if href, ok := tr.Find(selectorProblemLink).First().Attr("href"); ok {
		if idx := path.Base(strings.TrimRight(href, "/")); idx != "" && idx != "." && idx != "/" {
			return idx
		}
	}
	return UnknownField
}

func verdict(tr *goquery.Selection) string {
	if v, ok := tr.Find(selectorVerdictAttr).First().Attr("submissionverdict"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if text := strings.TrimSpace(tr.Find(selectorVerdictWrapper).First().Text()); text != "" {
		return text
	}
	return UnknownField
}

func cellText(tr *goquery.Selection, selector string) string {
	text := strings.Join(strings.Fields(tr.Find(selector).First().Text()), " ")
	if text == "" {
		return UnknownField
	}
	return text
}

// ProblemStatement locates the statement container of a problem page.
func (GoqueryScraper) ProblemStatement(page []byte) (Statement, failure.ClassifiedError) {
	doc, err := parse(page)
	if err != nil {
		return Statement{}, err
	}

	sel := doc.Find(selectorStatement).First()
	if sel.Length() == 0 {
		return Statement{}, &ScrapeError{Cause: ErrCauseStatementNotFound}
	}

	return Statement{
		Title: strings.TrimSpace(doc.Find(selectorStatementTitle).First().Text()),
		Node:  sel.Get(0),
	}, nil
}
