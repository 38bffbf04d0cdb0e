package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.opentelemetry.io/otel"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("dirsync/graph")

// Tier selects which capability surface of the directory API a client talks
// to. Base-tier tenants must not request premium-only fields or endpoints.
type Tier string

const (
	TierV1   Tier = "v1.0"
	TierBeta Tier = "beta"
)

const (
	DefaultHost = "https://graph.microsoft.com"

	defaultThrottleWait = 5 * time.Second
	defaultInitialDelay = 5 * time.Second
	defaultMaxDelay     = 30 * time.Second
	defaultMaxAttempts  = 4
)

// Client executes requests against one tenant's view of the directory API at
// a fixed capability tier. It follows continuation links, honors throttling
// signals, and retries transient upstream failures with capped backoff.
//
// A Client is safe for concurrent use; the enrichment pool fans lookups out
// over one shared per-tenant client.
type Client struct {
	httpClient *http.Client
	host       string
	tier       Tier
	tenantID   string
	tokens     TokenSource
	limiter    ratelimit.Limiter

	maxAttempts  uint
	initialDelay time.Duration
	maxDelay     time.Duration

	// retries counts transient failures over the client's lifetime and
	// drives the next backoff delay.
	retries atomic.Uint32
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithHost(host string) ClientOption {
	return func(c *Client) {
		c.host = strings.TrimSuffix(host, "/")
	}
}

// WithRequestsPerSecond paces outgoing requests. Zero disables pacing.
func WithRequestsPerSecond(rps int) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = ratelimit.New(rps)
		}
	}
}

func WithRetry(maxAttempts uint, initialDelay time.Duration, maxDelay time.Duration) ClientOption {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if initialDelay > 0 {
			c.initialDelay = initialDelay
		}
		if maxDelay > 0 {
			c.maxDelay = maxDelay
		}
	}
}

func NewClient(tenantID string, tier Tier, tokens TokenSource, opts ...ClientOption) (*Client, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id is required")
	}

	c := &Client{
		httpClient:   http.DefaultClient,
		host:         DefaultHost,
		tier:         tier,
		tenantID:     tenantID,
		tokens:       tokens,
		limiter:      ratelimit.NewUnlimited(),
		maxAttempts:  defaultMaxAttempts,
		initialDelay: defaultInitialDelay,
		maxDelay:     defaultMaxDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) TenantID() string {
	return c.tenantID
}

func (c *Client) Tier() Tier {
	return c.tier
}

type query struct {
	selectFields []string
	filter       string
	expand       string
	orderBy      string
	top          int
	count        bool
}

type QueryOption func(*query)

func WithSelect(fields ...string) QueryOption {
	return func(q *query) {
		q.selectFields = fields
	}
}

func WithFilter(expr string) QueryOption {
	return func(q *query) {
		q.filter = expr
	}
}

func WithExpand(expr string) QueryOption {
	return func(q *query) {
		q.expand = expr
	}
}

func WithOrderBy(expr string) QueryOption {
	return func(q *query) {
		q.orderBy = expr
	}
}

// WithTop caps the materialized result set. Pagination stops once the cap is
// reached and the result is truncated to exactly the cap.
func WithTop(n int) QueryOption {
	return func(q *query) {
		q.top = n
	}
}

// WithCount requests an eventual-consistency count; the upstream requires a
// ConsistencyLevel header alongside the $count parameter.
func WithCount() QueryOption {
	return func(q *query) {
		q.count = true
	}
}

func (q *query) encode() string {
	params := url.Values{}
	if len(q.selectFields) > 0 {
		params.Set("$select", strings.Join(q.selectFields, ","))
	}
	if q.expand != "" {
		params.Set("$expand", q.expand)
	}
	if q.filter != "" {
		params.Set("$filter", q.filter)
	}
	if q.top > 0 {
		params.Set("$top", strconv.Itoa(q.top))
	}
	if q.count {
		params.Set("$count", "true")
	}
	if q.orderBy != "" {
		params.Set("$orderby", q.orderBy)
	}
	return params.Encode()
}

type listResponse struct {
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}

// errThrottled signals a too-many-requests page attempt; the wait duration
// travels alongside it.
var errThrottled = fmt.Errorf("throttled by upstream")

// disposition is the explicit decision table for one page attempt. The retry
// policy lives here instead of being buried in error-handling branches.
type disposition int

const (
	stepOK disposition = iota
	stepThrottled
	stepRetryable
	stepFatal
)

func dispose(status int) disposition {
	switch {
	case status >= 200 && status < 300:
		return stepOK
	case status == http.StatusTooManyRequests:
		return stepThrottled
	case status == http.StatusServiceUnavailable,
		status == http.StatusBadGateway,
		status == http.StatusGatewayTimeout:
		return stepRetryable
	default:
		return stepFatal
	}
}

// Get executes one logical list request and returns the fully materialized
// result set across however many pages the upstream serves. On any hard
// failure partial pages are discarded; the call is all-or-nothing.
func (c *Client) Get(ctx context.Context, path string, opts ...QueryOption) ([]json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "graph.Client.Get")
	defer span.End()

	q := &query{}
	for _, opt := range opts {
		opt(q)
	}

	pageURL := c.host + "/" + string(c.tier) + path
	if qs := q.encode(); qs != "" {
		pageURL += "?" + qs
	}

	var results []json.RawMessage
	var attempts uint

	for pageURL != "" {
		body, retryAfter, err := c.fetchPage(ctx, pageURL, q.count)
		switch {
		case err == nil:
		case errors.Is(err, errThrottled):
			// Wait out the upstream-provided duration and retry the same
			// page; throttling does not count against the attempt budget.
			ctxzap.Extract(ctx).Warn("rate limited, waiting",
				zap.String("tenant_id", c.tenantID),
				zap.Duration("retry_after", retryAfter))
			if err := sleepCtx(ctx, retryAfter); err != nil {
				return nil, err
			}
			continue
		case isRetryable(err):
			attempts++
			if attempts >= c.maxAttempts {
				return nil, err
			}
			wait := c.nextDelay()
			ctxzap.Extract(ctx).Warn("transient upstream failure, retrying",
				zap.String("tenant_id", c.tenantID),
				zap.Uint("attempt", attempts),
				zap.Duration("wait", wait),
				zap.Error(err))
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
			continue
		default:
			return nil, err
		}

		var page listResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decoding page for tenant %s: %w", c.tenantID, err)
		}

		results = append(results, page.Value...)

		if q.top > 0 && len(results) >= q.top {
			return results[:q.top], nil
		}

		// Continuation URLs are self-contained; never re-apply the original
		// query parameters to them.
		pageURL = page.NextLink
	}

	return results, nil
}

// GetObject fetches a single non-collection resource and decodes it into v.
func (c *Client) GetObject(ctx context.Context, path string, v any, opts ...QueryOption) error {
	ctx, span := tracer.Start(ctx, "graph.Client.GetObject")
	defer span.End()

	q := &query{}
	for _, opt := range opts {
		opt(q)
	}

	pageURL := c.host + "/" + string(c.tier) + path
	if qs := q.encode(); qs != "" {
		pageURL += "?" + qs
	}

	var attempts uint
	for {
		body, retryAfter, err := c.fetchPage(ctx, pageURL, q.count)
		switch {
		case err == nil:
			return json.Unmarshal(body, v)
		case errors.Is(err, errThrottled):
			if err := sleepCtx(ctx, retryAfter); err != nil {
				return err
			}
		case isRetryable(err):
			attempts++
			if attempts >= c.maxAttempts {
				return err
			}
			if err := sleepCtx(ctx, c.nextDelay()); err != nil {
				return err
			}
		default:
			return err
		}
	}
}

// fetchPage performs one attempt against one page URL. The second return is
// the throttle wait: -1 unless the upstream signaled too-many-requests.
func (c *Client) fetchPage(ctx context.Context, pageURL string, count bool) ([]byte, time.Duration, error) {
	c.limiter.Take()

	token, _, err := c.tokens.AcquireToken(ctx, c.tenantID)
	if err != nil {
		return nil, -1, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, -1, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	if count {
		req.Header.Set("ConsistencyLevel", "eventual")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, -1, ctx.Err()
		}
		return nil, -1, &Error{
			TenantID: c.tenantID,
			Message:  err.Error(),
			Category: CategoryTimeout,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, -1, fmt.Errorf("reading response for tenant %s: %w", c.tenantID, err)
	}

	switch dispose(resp.StatusCode) {
	case stepOK:
		return body, -1, nil
	case stepThrottled:
		return nil, throttleWait(resp.Header), errThrottled
	case stepRetryable:
		return nil, -1, newError(c.tenantID, resp.StatusCode, body)
	default:
		return nil, -1, newError(c.tenantID, resp.StatusCode, body)
	}
}

func isRetryable(err error) bool {
	var graphErr *Error
	if !errors.As(err, &graphErr) {
		return false
	}
	return graphErr.Category == CategoryService || graphErr.Category == CategoryTimeout
}

func (c *Client) nextDelay() time.Duration {
	n := c.retries.Add(1) - 1
	wait := c.initialDelay << n
	if wait > c.maxDelay || wait <= 0 {
		wait = c.maxDelay
	}
	return wait
}

func throttleWait(h http.Header) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultThrottleWait
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// do executes one mutating request. Mutations retry once on throttling and
// otherwise surface classified errors without retries.
func (c *Client) do(ctx context.Context, method string, path string, payload any) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "graph.Client.do")
	defer span.End()

	var encoded []byte
	if payload != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			return nil, err
		}
		encoded = buf.Bytes()
	}

	for attempt := 0; ; attempt++ {
		var body io.Reader
		if encoded != nil {
			body = bytes.NewReader(encoded)
		}
		c.limiter.Take()

		token, _, err := c.tokens.AcquireToken(ctx, c.tenantID)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, c.host+"/"+string(c.tier)+path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &Error{TenantID: c.tenantID, Message: err.Error(), Category: CategoryTimeout}
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}

		if dispose(resp.StatusCode) == stepThrottled && attempt == 0 {
			if err := sleepCtx(ctx, throttleWait(resp.Header)); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, newError(c.tenantID, resp.StatusCode, respBody)
		}

		return respBody, nil
	}
}

// Patch updates a resource in place.
func (c *Client) Patch(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPatch, path, payload)
}

// Post creates a resource.
func (c *Client) Post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, payload)
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}
