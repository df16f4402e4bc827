// Package dispatch issues validated invocations against the downstream
// automation backend and classifies the outcome.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Outcome kinds.
type Kind int

const (
	// KindSuccess means the backend accepted and completed the request.
	KindSuccess Kind = iota
	// KindDownstreamError means the backend was reachable but returned a
	// non-success status.
	KindDownstreamError
	// KindTransportError means the backend could not be reached: DNS,
	// connection, or timeout failure. Always retry-eligible.
	KindTransportError
)

// Outcome is the classified result of dispatching one invocation.
type Outcome struct {
	Kind Kind

	// Body is the backend response body on success, passed through
	// verbatim. Backend-reported cost and usage fields ride inside it
	// and are never recomputed here.
	Body json.RawMessage

	// Status and Message describe a downstream or transport failure.
	Status  int
	Message string

	// ExecutionTime spans all attempts, including backoff.
	ExecutionTime time.Duration
	Attempts      int
}

// TenantHeader carries the tenant identity on every outbound request.
const TenantHeader = "X-Tenant-ID"

// RetryPolicy bounds retry behavior for a dispatcher.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy mirrors the backend wrapper defaults: three attempts
// with exponential backoff starting at 250ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 250 * time.Millisecond, MaxDelay: 5 * time.Second}
}

// Delay returns the backoff before the given retry (attempt is 1-based and
// counts completed attempts). Delays grow strictly: base * 2^(attempt-1),
// capped at MaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Retryable reports whether a downstream status is retry-eligible.
func Retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// Request is one outbound call to the backend.
type Request struct {
	// Path is the operation-specific backend path.
	Path string
	// Endpoint overrides the dispatcher base URL when non-empty.
	Endpoint string
	// TenantID is set as the tenant identity header when non-empty.
	TenantID string
	// Credential is sent as a bearer authorization header; when empty the
	// dispatcher's default credential applies.
	Credential string
	// Timeout bounds each individual attempt.
	Timeout time.Duration

	// Configuration is the effective merged configuration.
	Configuration map[string]any
	// Input is the operation input payload.
	Input map[string]any
	// InvocationID tags the execution context block.
	InvocationID string
	// Source identifies the invoking node in the execution context.
	Source string
}

// Dispatcher issues backend requests with a shared retry policy. It holds no
// per-tenant state; every invocation is independent.
type Dispatcher struct {
	baseURL    string
	credential string
	client     *http.Client
	policy     RetryPolicy
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) { d.client = client }
}

// WithCredential sets the default bearer credential, used when a request
// carries none of its own.
func WithCredential(credential string) Option {
	return func(d *Dispatcher) { d.credential = credential }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(d *Dispatcher) { d.policy = policy }
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// New creates a dispatcher for the given backend base URL.
func New(baseURL string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  http.DefaultClient,
		policy:  DefaultRetryPolicy(),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// executionContext is the metadata block attached to every outbound body.
type executionContext struct {
	Source       string    `json:"source"`
	InvocationID string    `json:"invocation_id"`
	Timestamp    time.Time `json:"timestamp"`
}

type outboundBody struct {
	Configuration map[string]any   `json:"configuration"`
	Input         map[string]any   `json:"input"`
	Execution     executionContext `json:"execution_context"`
}

// Dispatch issues the request, retrying transport errors and retry-eligible
// downstream statuses up to the policy's attempt budget with exponential
// backoff. Retries are sequential within the invocation; nothing outlives
// the call. The returned outcome is always populated, never nil semantics.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Outcome {
	start := d.now()

	body, err := json.Marshal(outboundBody{
		Configuration: req.Configuration,
		Input:         req.Input,
		Execution: executionContext{
			Source:       req.Source,
			InvocationID: req.InvocationID,
			Timestamp:    start.UTC(),
		},
	})
	if err != nil {
		// Unmarshalable configuration should have been caught upstream.
		return Outcome{
			Kind:          KindTransportError,
			Message:       fmt.Sprintf("marshal request body: %v", err),
			ExecutionTime: d.now().Sub(start),
			Attempts:      0,
		}
	}

	var last Outcome
	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		last = d.attempt(ctx, req, body)
		last.Attempts = attempt

		if last.Kind == KindSuccess {
			break
		}
		if last.Kind == KindDownstreamError && !Retryable(last.Status) {
			break
		}
		if ctx.Err() != nil || attempt == d.policy.MaxAttempts {
			break
		}

		delay := d.policy.Delay(attempt)
		d.logger.Warn("backend attempt failed, retrying",
			slog.String("path", req.Path),
			slog.Int("attempt", attempt),
			slog.Int("status", last.Status),
			slog.Duration("backoff", delay))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
	}

	last.ExecutionTime = d.now().Sub(start)
	return last
}

func (d *Dispatcher) attempt(ctx context.Context, req Request, body []byte) Outcome {
	base := d.baseURL
	if req.Endpoint != "" {
		base = strings.TrimSuffix(req.Endpoint, "/")
	}

	attemptCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, base+req.Path, bytes.NewReader(body))
	if err != nil {
		return Outcome{Kind: KindTransportError, Message: fmt.Sprintf("create request: %v", err)}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if req.TenantID != "" {
		httpReq.Header.Set(TenantHeader, req.TenantID)
	}
	credential := req.Credential
	if credential == "" {
		credential = d.credential
	}
	if credential != "" {
		httpReq.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return Outcome{Kind: KindTransportError, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{Kind: KindTransportError, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Outcome{
			Kind:    KindDownstreamError,
			Status:  resp.StatusCode,
			Message: downstreamMessage(resp.StatusCode, respBody),
		}
	}

	return Outcome{Kind: KindSuccess, Body: respBody}
}

// downstreamMessage extracts a human-readable message from an error body,
// falling back to the raw body or status text.
func downstreamMessage(status int, body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, m := range []string{parsed.Error, parsed.Message, parsed.Detail} {
			if m != "" {
				return m
			}
		}
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}
	return http.StatusText(status)
}
