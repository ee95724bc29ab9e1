package websession

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/cfcli/internal/metadata"
	"github.com/rohmanhakim/cfcli/pkg/failure"
	"github.com/rohmanhakim/cfcli/pkg/retry"
)

/*
Responsibilities

- Perform HTTP requests against the judge website with a session's cookies
- Apply browser-like headers and timeouts
- Classify responses

Fetch Semantics

- Redirects are followed; the final URL is part of the result
- GET requests are retried on transport failures, form posts are sent once
- All responses are recorded with metadata

The fetcher never parses content; it only returns bytes and metadata.
*/

type pageFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	userAgent    string
}

// clientFor shares the configured transport and timeout but sends the
// session's cookies.
func (p *pageFetcher) clientFor(sess *Session) *http.Client {
	hc := *p.httpClient
	hc.Jar = sess.jar
	return &hc
}

func (p *pageFetcher) get(
	ctx context.Context,
	sess *Session,
	endpoint url.URL,
	requireHTML bool,
	retryParam retry.RetryParam,
) (FetchResult, failure.ClassifiedError) {
	attempt := 0
	result := retry.Retry(ctx, retryParam, func() (FetchResult, failure.ClassifiedError) {
		attempt++
		return p.performFetch(ctx, sess, http.MethodGet, endpoint, nil, requireHTML, attempt)
	})
	if result.IsFailure() {
		return FetchResult{}, unwrapRetryError(endpoint, result.Err())
	}
	return result.Value(), nil
}

func (p *pageFetcher) postForm(
	ctx context.Context,
	sess *Session,
	endpoint url.URL,
	form url.Values,
) (FetchResult, failure.ClassifiedError) {
	return p.performFetch(ctx, sess, http.MethodPost, endpoint, form, true, 1)
}

func unwrapRetryError(endpoint url.URL, err failure.ClassifiedError) failure.ClassifiedError {
	var retryErr *retry.RetryError
	if !errors.As(err, &retryErr) {
		return err
	}
	switch retryErr.Cause {
	case retry.ErrCancelled:
		return &TransportError{
			Endpoint: redact(endpoint),
			Message:  retryErr.Error(),
			Cause:    ErrCauseCancelled,
			Attempts: retryErr.Attempts,
			Err:      retryErr.Last,
		}
	case retry.ErrExhaustedAttempts:
		var tErr *TransportError
		if errors.As(retryErr.Last, &tErr) {
			tErr.Attempts = retryErr.Attempts
			return tErr
		}
	}
	return err
}

func (p *pageFetcher) performFetch(
	ctx context.Context,
	sess *Session,
	httpMethod string,
	endpoint url.URL,
	form url.Values,
	requireHTML bool,
	attempt int,
) (FetchResult, failure.ClassifiedError) {
	logURL := redact(endpoint)

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, httpMethod, endpoint.String(), body)
	if err != nil {
		return FetchResult{}, &TransportError{
			Endpoint: logURL,
			Message:  fmt.Sprintf("failed to create request: %v", err),
			Cause:    ErrCauseRequestBuild,
		}
	}

	// Apply browser-like headers
	for key, value := range requestHeaders(p.userAgent) {
		req.Header.Set(key, value)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	startTime := time.Now()
	resp, err := p.clientFor(sess).Do(req)
	if err != nil {
		p.metadataSink.RecordRequest(httpMethod, logURL, 0, time.Since(startTime), attempt)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return FetchResult{}, &TransportError{
				Endpoint: logURL,
				Message:  ctxErr.Error(),
				Cause:    ErrCauseCancelled,
				Err:      ctxErr,
			}
		}
		// Network/transport errors are retryable
		return FetchResult{}, &TransportError{
			Endpoint:  logURL,
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
			Err:       err,
		}
	}
	defer resp.Body.Close()
	p.metadataSink.RecordRequest(httpMethod, logURL, resp.StatusCode, time.Since(startTime), attempt)

	// Handle HTTP status codes
	switch {
	case resp.StatusCode >= 500:
		// Server errors (5xx) are retryable
		return FetchResult{}, &TransportError{
			Endpoint:   logURL,
			Message:    "server error: " + strconv.Itoa(resp.StatusCode),
			Retryable:  true,
			Cause:      ErrCauseRequest5xx,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		// Too Many Requests is retryable
		return FetchResult{}, &TransportError{
			Endpoint:   logURL,
			Message:    "rate limited (429)",
			Retryable:  true,
			Cause:      ErrCauseRequestTooMany,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode == http.StatusForbidden:
		// Forbidden is not retryable
		return FetchResult{}, &TransportError{
			Endpoint:   logURL,
			Message:    "access forbidden (403)",
			Cause:      ErrCauseRequestForbidden,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode >= 300:
		return FetchResult{}, &TransportError{
			Endpoint:   logURL,
			Message:    "unexpected status: " + strconv.Itoa(resp.StatusCode),
			Cause:      ErrCauseUnexpectedCode,
			StatusCode: resp.StatusCode,
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if requireHTML && contentType != "" && !isHTMLContent(contentType) {
		return FetchResult{}, &TransportError{
			Endpoint:   logURL,
			Message:    fmt.Sprintf("non-HTML content type: %s", contentType),
			Cause:      ErrCauseInvalidBody,
			StatusCode: resp.StatusCode,
		}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{}, &TransportError{
			Endpoint:   logURL,
			Message:    fmt.Sprintf("failed to read response body: %v", err),
			Retryable:  true,
			Cause:      ErrCauseReadBody,
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}

	responseHeaders := make(map[string]string)
	for key, values := range resp.Header {
		if len(values) > 0 {
			responseHeaders[key] = values[0]
		}
	}

	finalURL := endpoint
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = *resp.Request.URL
	}

	return FetchResult{
		url:  finalURL,
		body: payload,
		meta: ResponseMeta{
			statusCode:          resp.StatusCode,
			transferredSizeByte: uint64(len(payload)),
			responseHeaders:     responseHeaders,
		},
	}, nil
}

// redact drops the query so ids and tokens stay out of logs.
func redact(u url.URL) string {
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func isHTMLContent(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml")
}

func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.7",
		"Accept-Language": "en-US,en;q=0.5",
		"DNT":             "1",
	}
}
