package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rohmanhakim/cfcli/internal/auth"
	"github.com/rohmanhakim/cfcli/internal/cache"
	"github.com/rohmanhakim/cfcli/internal/metadata"
	"github.com/rohmanhakim/cfcli/pkg/failure"
	"github.com/rohmanhakim/cfcli/pkg/limiter"
	"github.com/rohmanhakim/cfcli/pkg/retry"
	"github.com/rohmanhakim/cfcli/pkg/timeutil"
	"github.com/rohmanhakim/cfcli/pkg/urlutil"
)

/*
Responsibilities

- Build method URLs against the API base
- Sign parameters when credentials are present
- Serve repeated calls from the cache
- Retry transport failures with exponential backoff
- Space calls by the configured minimum interval

Call Semantics

- The cache key is computed from the caller's parameters, before signing
- A cache entry is written only for responses whose status is "OK"
- A non-OK status is an ApiError and is never retried
- user.info is always sent unsigned; it is how credentials are verified
*/

// MethodUserInfo is exempt from signing.
const MethodUserInfo = "user.info"

const paceKey = "api"

type Client struct {
	httpClient *http.Client
	baseURL    url.URL
	userAgent  string
	signer     *auth.Signer
	store      *cache.Store
	limiter    limiter.RateLimiter
	retryParam retry.RetryParam
	sink       metadata.MetadataSink
}

// NewClient returns an anonymous, uncached client with a single attempt per
// call. Use the With methods to add signing, caching, pacing and retries.
func NewClient(httpClient *http.Client, baseURL url.URL, sink metadata.MetadataSink) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if sink == nil {
		sink = &metadata.NoopSink{}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    urlutil.NormalizeBase(baseURL),
		userAgent:  "cfcli/1.0",
		retryParam: retry.NewRetryParam(0, 0, 1, timeutil.NewBackoffParam(time.Second, 2.0, 0)),
		sink:       sink,
	}
}

func (c *Client) WithSigner(signer *auth.Signer) *Client {
	c.signer = signer
	return c
}

func (c *Client) WithCache(store *cache.Store) *Client {
	c.store = store
	return c
}

func (c *Client) WithLimiter(l limiter.RateLimiter) *Client {
	c.limiter = l
	return c
}

func (c *Client) WithRetryParam(p retry.RetryParam) *Client {
	c.retryParam = p
	return c
}

func (c *Client) WithUserAgent(agent string) *Client {
	c.userAgent = agent
	return c
}

// Authenticated reports whether calls will be signed.
func (c *Client) Authenticated() bool {
	return c.signer != nil && c.signer.Authenticated()
}

// Call invokes method with params and returns the raw "result" member of a
// successful answer.
func (c *Client) Call(ctx context.Context, method string, params map[string]string) (json.RawMessage, failure.ClassifiedError) {
	callerMethod := "Client.Call"
	key := cache.Fingerprint(method, params)

	if c.store != nil {
		if payload, ok := c.store.Get(key); ok {
			var env envelope
			if err := json.Unmarshal(payload, &env); err == nil && env.Status == StatusOK {
				return env.Result, nil
			}
		}
	}

	attempt := 0
	result := retry.Retry(ctx, c.retryParam, func() ([]byte, failure.ClassifiedError) {
		attempt++
		return c.performCall(ctx, method, params, attempt)
	})

	if result.IsFailure() {
		err := c.unwrapRetryError(method, result)
		c.recordError(callerMethod, method, err)
		return nil, err
	}

	body := result.Value()
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		tErr := &TransportError{
			Method:  method,
			Message: err.Error(),
			Cause:   ErrCauseInvalidBody,
		}
		c.recordError(callerMethod, method, tErr)
		return nil, tErr
	}

	if env.Status != StatusOK {
		apiErr := &ApiError{Method: method, Status: env.Status, Comment: env.Comment}
		c.recordError(callerMethod, method, apiErr)
		return nil, apiErr
	}

	if c.store != nil {
		c.store.Put(key, body)
	}
	return env.Result, nil
}

// CallInto is Call followed by decoding the result into out.
func (c *Client) CallInto(ctx context.Context, method string, params map[string]string, out any) failure.ClassifiedError {
	raw, err := c.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if decodeErr := json.Unmarshal(raw, out); decodeErr != nil {
		return &TransportError{
			Method:  method,
			Message: decodeErr.Error(),
			Cause:   ErrCauseInvalidBody,
		}
	}
	return nil
}

// unwrapRetryError surfaces the error of the last attempt so callers see a
// TransportError (or ApiError) rather than the retry bookkeeping.
func (c *Client) unwrapRetryError(method string, result retry.Result[[]byte]) failure.ClassifiedError {
	err := result.Err()
	var retryErr *retry.RetryError
	if !errors.As(err, &retryErr) {
		return err
	}

	switch retryErr.Cause {
	case retry.ErrCancelled:
		return &TransportError{
			Method:   method,
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

func (c *Client) performCall(ctx context.Context, method string, params map[string]string, attempt int) ([]byte, failure.ClassifiedError) {
	reqParams := params
	if c.Authenticated() && method != MethodUserInfo {
		signed, err := c.signer.SignRequest(method, params)
		if err != nil {
			return nil, err
		}
		reqParams = signed
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, paceKey); err != nil {
			return nil, &TransportError{
				Method:  method,
				Message: err.Error(),
				Cause:   ErrCauseCancelled,
				Err:     err,
			}
		}
	}

	endpoint := c.methodURL(method)
	if len(reqParams) > 0 {
		endpoint += "?" + urlutil.EncodeQuery(reqParams)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{
			Method:  method,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Cause:   ErrCauseRequestBuild,
		}
	}
	for key, value := range requestHeaders(c.userAgent) {
		req.Header.Set(key, value)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.sink.RecordRequest(http.MethodGet, c.methodURL(method), 0, time.Since(startTime), attempt)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &TransportError{
				Method:  method,
				Message: ctxErr.Error(),
				Cause:   ErrCauseCancelled,
				Err:     ctxErr,
			}
		}
		// Network/transport errors are retryable
		return nil, &TransportError{
			Method:    method,
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
			Err:       err,
		}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	c.sink.RecordRequest(http.MethodGet, c.methodURL(method), resp.StatusCode, time.Since(startTime), attempt)
	if readErr != nil {
		return nil, &TransportError{
			Method:     method,
			Message:    fmt.Sprintf("failed to read response body: %v", readErr),
			Retryable:  true,
			Cause:      ErrCauseReadBody,
			StatusCode: resp.StatusCode,
			Err:        readErr,
		}
	}

	// The judge answers rejected calls with a 4xx and a FAILED envelope;
	// those are decoded by the caller rather than treated as transport errors.
	if resp.StatusCode != http.StatusOK && !isEnvelope(body) {
		return nil, classifyStatus(method, resp.StatusCode)
	}

	return body, nil
}

// methodURL is the endpoint without its query, so signatures and keys never
// reach the log.
func (c *Client) methodURL(method string) string {
	return urlutil.Resolve(c.baseURL, method)
}

func classifyStatus(method string, code int) *TransportError {
	switch {
	case code >= 500:
		// Server errors (5xx) are retryable
		return &TransportError{
			Method:     method,
			Message:    "server error: " + strconv.Itoa(code),
			Retryable:  true,
			Cause:      ErrCauseRequest5xx,
			StatusCode: code,
		}
	case code == http.StatusTooManyRequests:
		return &TransportError{
			Method:     method,
			Message:    "rate limited (429)",
			Retryable:  true,
			Cause:      ErrCauseRequestTooMany,
			StatusCode: code,
		}
	default:
		return &TransportError{
			Method:     method,
			Message:    "unexpected status: " + strconv.Itoa(code),
			Retryable:  false,
			Cause:      ErrCauseUnexpectedCode,
			StatusCode: code,
		}
	}
}

func isEnvelope(body []byte) bool {
	var env envelope
	return json.Unmarshal(body, &env) == nil && env.Status != ""
}

func (c *Client) recordError(callerMethod string, apiMethod string, err failure.ClassifiedError) {
	cause := metadata.CauseUnknown
	var tErr *TransportError
	var apiErr *ApiError
	var authErr *auth.AuthenticationError
	switch {
	case errors.As(err, &tErr):
		cause = mapTransportErrorToMetadataCause(tErr)
	case errors.As(err, &apiErr):
		cause = metadata.CauseRemoteRejected
	case errors.As(err, &authErr):
		cause = metadata.CauseAuthFailure
	}
	c.sink.RecordError(
		time.Now(),
		"apiclient",
		callerMethod,
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrMethod, apiMethod),
		},
	)
}

func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent": userAgent,
		"Accept":     "application/json",
	}
}
