package safety

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.safeguard.dev"

// DefaultMaxRetries applies when New is given a nil Config.
const DefaultMaxRetries = 3

// Config holds optional client settings. Zero fields take defaults, except
// MaxRetries where zero disables retries.
type Config struct {
	BaseURL              string
	Timeout              time.Duration
	MaxRetries           int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	UserAgent            string
}

func (c *Config) withDefaults() Config {
	out := Config{MaxRetries: DefaultMaxRetries}
	if c != nil {
		out = *c
	}
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if out.Timeout <= 0 {
		out.Timeout = 30 * time.Second
	}
	if out.MaxRetries < 0 {
		out.MaxRetries = 0
	}
	if out.RetryInitialInterval <= 0 {
		out.RetryInitialInterval = 500 * time.Millisecond
	}
	if out.RetryMaxInterval <= 0 {
		out.RetryMaxInterval = 10 * time.Second
	}
	if out.UserAgent == "" {
		out.UserAgent = "safeguard-go"
	}
	out.BaseURL = strings.TrimRight(out.BaseURL, "/")
	return out
}

// HTTPClient implements the Client interface over the REST API.
type HTTPClient struct {
	credential string
	cfg        Config
	http       *http.Client
	logger     *zap.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// WithLogger attaches a logger for request and retry events.
func WithLogger(l *zap.Logger) Option {
	return func(c *HTTPClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the given credential. It performs no I/O.
// A nil cfg uses the defaults.
func New(credential string, cfg *Config, opts ...Option) (*HTTPClient, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrMissingCredential
	}
	resolved := cfg.withDefaults()
	c := &HTTPClient{
		credential: credential,
		cfg:        resolved,
		http:       &http.Client{Timeout: resolved.Timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the resolved configuration.
func (c *HTTPClient) Config() Config { return c.cfg }

// DetectBullying calls POST /api/v1/safety/bullying.
func (c *HTTPClient) DetectBullying(ctx context.Context, in DetectBullyingInput) (*BullyingResult, error) {
	var out BullyingResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/safety/bullying", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DetectGrooming calls POST /api/v1/safety/grooming.
func (c *HTTPClient) DetectGrooming(ctx context.Context, in DetectGroomingInput) (*GroomingResult, error) {
	var out GroomingResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/safety/grooming", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DetectUnsafe calls POST /api/v1/safety/unsafe.
func (c *HTTPClient) DetectUnsafe(ctx context.Context, in DetectUnsafeInput) (*UnsafeResult, error) {
	var out UnsafeResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/safety/unsafe", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analyze calls POST /api/v1/analysis/quick.
func (c *HTTPClient) Analyze(ctx context.Context, in AnalyzeInput) (*AnalyzeResult, error) {
	var out AnalyzeResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/analysis/quick", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeEmotions calls POST /api/v1/analysis/emotions.
func (c *HTTPClient) AnalyzeEmotions(ctx context.Context, in AnalyzeEmotionsInput) (*EmotionsResult, error) {
	var out EmotionsResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/analysis/emotions", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetActionPlan calls POST /api/v1/guidance/action-plan.
func (c *HTTPClient) GetActionPlan(ctx context.Context, in ActionPlanInput) (*ActionPlanResult, error) {
	var out ActionPlanResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/guidance/action-plan", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateReport calls POST /api/v1/reports/incident.
func (c *HTTPClient) GenerateReport(ctx context.Context, in ReportInput) (*ReportResult, error) {
	var out ReportResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/reports/incident", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAccountData calls DELETE /api/v1/account/data.
func (c *HTTPClient) DeleteAccountData(ctx context.Context) (*AccountDeletionResult, error) {
	var out AccountDeletionResult
	if err := c.call(ctx, http.MethodDelete, "/api/v1/account/data", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportAccountData calls GET /api/v1/account/export.
func (c *HTTPClient) ExportAccountData(ctx context.Context) (*AccountExportResult, error) {
	var out AccountExportResult
	if err := c.call(ctx, http.MethodGet, "/api/v1/account/export", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordConsent calls POST /api/v1/account/consent.
func (c *HTTPClient) RecordConsent(ctx context.Context, in RecordConsentInput) (*ConsentResult, error) {
	var out ConsentResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/account/consent", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConsentStatus calls GET /api/v1/account/consent.
func (c *HTTPClient) GetConsentStatus(ctx context.Context, filter *ConsentStatusFilter) (*ConsentStatusResult, error) {
	q := url.Values{}
	if filter != nil && filter.Type != "" {
		q.Set("type", string(filter.Type))
	}
	var out ConsentStatusResult
	if err := c.call(ctx, http.MethodGet, "/api/v1/account/consent", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WithdrawConsent calls DELETE /api/v1/account/consent/{type}.
func (c *HTTPClient) WithdrawConsent(ctx context.Context, in WithdrawConsentInput) (*ConsentResult, error) {
	path := "/api/v1/account/consent/" + url.PathEscape(string(in.ConsentType))
	var out ConsentResult
	if err := c.call(ctx, http.MethodDelete, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RectifyData calls PATCH /api/v1/account/data.
func (c *HTTPClient) RectifyData(ctx context.Context, in RectifyDataInput) (*RectifyDataResult, error) {
	var out RectifyDataResult
	if err := c.call(ctx, http.MethodPatch, "/api/v1/account/data", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAuditLogs calls GET /api/v1/account/audit-logs.
func (c *HTTPClient) GetAuditLogs(ctx context.Context, filter *AuditLogFilter) (*AuditLogsResult, error) {
	q := url.Values{}
	if filter != nil {
		if filter.Action != "" {
			q.Set("action", filter.Action)
		}
		if filter.Limit > 0 {
			q.Set("limit", strconv.Itoa(filter.Limit))
		}
	}
	var out AuditLogsResult
	if err := c.call(ctx, http.MethodGet, "/api/v1/account/audit-logs", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LogBreach calls POST /api/v1/admin/breach.
func (c *HTTPClient) LogBreach(ctx context.Context, in LogBreachInput) (*BreachResult, error) {
	var out BreachResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/admin/breach", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBreaches calls GET /api/v1/admin/breach.
func (c *HTTPClient) ListBreaches(ctx context.Context, filter *BreachListFilter) (*BreachListResult, error) {
	q := url.Values{}
	if filter != nil {
		if filter.Status != "" {
			q.Set("status", string(filter.Status))
		}
		if filter.Limit > 0 {
			q.Set("limit", strconv.Itoa(filter.Limit))
		}
	}
	var out BreachListResult
	if err := c.call(ctx, http.MethodGet, "/api/v1/admin/breach", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBreach calls GET /api/v1/admin/breach/{id}.
func (c *HTTPClient) GetBreach(ctx context.Context, in GetBreachInput) (*BreachResult, error) {
	var out BreachResult
	if err := c.call(ctx, http.MethodGet, "/api/v1/admin/breach/"+url.PathEscape(in.ID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBreachStatus calls PATCH /api/v1/admin/breach/{id}/status.
func (c *HTTPClient) UpdateBreachStatus(ctx context.Context, in UpdateBreachStatusInput) (*BreachResult, error) {
	path := "/api/v1/admin/breach/" + url.PathEscape(in.ID) + "/status"
	var out BreachResult
	if err := c.call(ctx, http.MethodPatch, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call performs one logical request, retrying retryable failures with
// exponential backoff.
func (c *HTTPClient) call(ctx context.Context, method, path string, query url.Values, params, result any) error {
	var body []byte
	if params != nil {
		var err error
		body, err = json.Marshal(params)
		if err != nil {
			return fmt.Errorf("safety: marshal params: %w", err)
		}
	}

	endpoint := method + " " + path
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.cfg.RetryInitialInterval
	eb.MaxInterval = c.cfg.RetryMaxInterval

	respBody, err := backoff.Retry(ctx, func() ([]byte, error) {
		b, err := c.do(ctx, method, path, query, body)
		if err == nil {
			return b, nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Retryable() && ctx.Err() == nil {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries)+1),
		backoff.WithNotify(func(err error, d time.Duration) {
			c.logger.Warn("retrying request",
				zap.String("endpoint", endpoint),
				zap.Duration("backoff", d),
				zap.Error(err))
		}),
	)
	if err != nil {
		return err
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("safety: decode %s: %w", endpoint, err)
		}
	}
	return nil
}

// do performs a single HTTP attempt and classifies any failure.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	endpoint := method + " " + path

	target := c.cfg.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("safety: create request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Authorization", "Bearer "+c.credential)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("request", zap.String("endpoint", endpoint), zap.String("request_id", requestID))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		kind := KindNetwork
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			kind = KindTimeout
		}
		return nil, &APIError{
			Kind:      kind,
			Endpoint:  endpoint,
			Message:   err.Error(),
			RequestID: requestID,
			Err:       err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{
			Kind:       KindNetwork,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    "read response: " + err.Error(),
			RequestID:  requestID,
			Err:        err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Kind:       kindForStatus(resp.StatusCode),
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody, resp.Status),
			RequestID:  requestID,
		}
		if id := resp.Header.Get("X-Request-ID"); id != "" {
			apiErr.RequestID = id
		}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
		return nil, apiErr
	}
	return respBody, nil
}

// errorBody is the error envelope returned by the API.
type errorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// errorMessage extracts a human-readable message from an error response,
// falling back to the raw body and finally the HTTP status text.
func errorMessage(body []byte, status string) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Error != nil && eb.Error.Message != "" {
			return eb.Error.Message
		}
		if eb.Message != "" {
			return eb.Message
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return status
}
