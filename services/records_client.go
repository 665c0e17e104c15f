package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"records-api/models"
	"records-api/observability"

	"github.com/shopspring/decimal"
)

// AuthMode selects how RecordsClient presents its API key
type AuthMode int

const (
	// AuthAPIKeyHeader sends the key in X-API-Key
	AuthAPIKeyHeader AuthMode = iota
	// AuthBearer sends the key as "Authorization: Bearer <key>"
	AuthBearer
	// AuthNone sends no credentials
	AuthNone
)

// Record is a record as returned by the records API
type Record struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Status      string          `json:"status"`
	Value       decimal.Decimal `json:"value"`
	CreatedDate string          `json:"created_date"`
	Owner       string          `json:"owner"`
	Description string          `json:"description"`
}

// CreateRecordRequest is the body of a create call. Empty optional fields are
// omitted so incomplete payloads can be sent on purpose.
type CreateRecordRequest struct {
	Name        string      `json:"name"`
	Category    string      `json:"category,omitempty"`
	Value       json.Number `json:"value,omitempty"`
	Owner       string      `json:"owner,omitempty"`
	Description string      `json:"description,omitempty"`
}

// ValueOf renders a decimal as an unquoted JSON number
func ValueOf(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// CreateRecordResponse is the body returned by a successful create
type CreateRecordResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Record  Record `json:"record"`
}

// Summary holds the aggregate statistics returned by the records API
type Summary struct {
	TotalRecords       int             `json:"total_records"`
	TotalValue         decimal.Decimal `json:"total_value"`
	AverageValue       decimal.Decimal `json:"average_value"`
	StatusBreakdown    map[string]int  `json:"status_breakdown"`
	CategoryBreakdown  map[string]int  `json:"category_breakdown"`
	MostValuableRecord *Record         `json:"most_valuable_record"`
	LatestRecord       *Record         `json:"latest_record"`
}

// Health is the body of GET /health
type Health struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	TotalRecords int    `json:"total_records"`
}

// Welcome is the body of GET /
type Welcome struct {
	Message        string            `json:"message"`
	Endpoints      map[string]string `json:"endpoints"`
	Authentication string            `json:"authentication"`
	ValidAPIKeys   []string          `json:"valid_api_keys"`
}

// APIError is a non-success response from the records API
type APIError struct {
	StatusCode int
	Detail     string              `json:"detail"`
	Errors     []models.FieldError `json:"errors"`
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("records API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("records API returned status %d: %s", e.StatusCode, e.Detail)
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not an *APIError
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// isClientError reports whether err is a 4xx answer, which retrying cannot fix
// and which says nothing about upstream health
func isClientError(err error) bool {
	code := StatusCode(err)
	return code >= 400 && code < 500
}

// RecordsClient handles communication with a records API server
type RecordsClient struct {
	baseURL    string
	apiKey     string
	authMode   AuthMode
	httpClient *http.Client
	retry      RetryConfig
	breakers   *CircuitBreakerRegistry
	metrics    *observability.Metrics
}

// ClientOption configures a RecordsClient
type ClientOption func(*RecordsClient)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(rc *RecordsClient) { rc.httpClient = c }
}

// WithAuthMode selects how the API key is sent
func WithAuthMode(mode AuthMode) ClientOption {
	return func(rc *RecordsClient) { rc.authMode = mode }
}

// WithRetryConfig replaces the retry policy used for idempotent calls
func WithRetryConfig(cfg RetryConfig) ClientOption {
	return func(rc *RecordsClient) { rc.retry = cfg }
}

// WithBreakerRegistry shares a breaker registry between clients
func WithBreakerRegistry(r *CircuitBreakerRegistry) ClientOption {
	return func(rc *RecordsClient) { rc.breakers = r }
}

// WithClientMetrics replaces the metrics sink
func WithClientMetrics(m *observability.Metrics) ClientOption {
	return func(rc *RecordsClient) { rc.metrics = m }
}

// NewRecordsClient creates a client for the records API at baseURL
func NewRecordsClient(baseURL, apiKey string, opts ...ClientOption) *RecordsClient {
	c := &RecordsClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		authMode:   AuthAPIKeyHeader,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      DefaultRetryConfig,
		metrics:    observability.GetMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.retry.Retryable == nil {
		c.retry.Retryable = func(err error) bool { return !isClientError(err) }
	}
	if c.breakers == nil {
		c.breakers = NewClientBreakerRegistry(c.metrics)
	}
	return c
}

// NewClientBreakerRegistry creates a registry whose breakers ignore 4xx answers,
// suitable for sharing between RecordsClients
func NewClientBreakerRegistry(metrics *observability.Metrics) *CircuitBreakerRegistry {
	cfg := DefaultCircuitBreakerConfig
	cfg.IsSuccessful = func(err error) bool { return err == nil || isClientError(err) }
	return NewCircuitBreakerRegistry(cfg, metrics)
}

// Index fetches the welcome payload
func (c *RecordsClient) Index(ctx context.Context) (*Welcome, error) {
	var out Welcome
	if err := c.do(ctx, "index", http.MethodGet, "/", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health fetches the health payload
func (c *RecordsClient) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, "health", http.MethodGet, "/health", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRecords fetches every record
func (c *RecordsClient) ListRecords(ctx context.Context) ([]Record, error) {
	var out []Record
	if err := c.do(ctx, "list_records", http.MethodGet, "/records", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRecord fetches a single record by id
func (c *RecordsClient) GetRecord(ctx context.Context, id string) (*Record, error) {
	var out Record
	path := "/records/" + url.PathEscape(id)
	if err := c.do(ctx, "get_record", http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRecord creates a record. It is never retried.
func (c *RecordsClient) CreateRecord(ctx context.Context, req CreateRecordRequest) (*CreateRecordResponse, error) {
	var out CreateRecordResponse
	if err := c.do(ctx, "create_record", http.MethodPost, "/records", req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Summary fetches the summary statistics
func (c *RecordsClient) Summary(ctx context.Context) (*Summary, error) {
	var out Summary
	if err := c.do(ctx, "summary", http.MethodGet, "/summary", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BreakerState returns the state of the client's circuit breaker
func (c *RecordsClient) BreakerState() string {
	return c.breakers.State(BreakerRecordsAPI)
}

func (c *RecordsClient) do(ctx context.Context, operation, method, path string, body any, want int, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode %s request: %w", operation, err)
		}
	}

	retry := c.retry
	if method != http.MethodGet {
		retry.MaxRetries = 0
	}

	timer := c.metrics.NewTimer()
	_, err := WithCircuitBreaker(ctx, c.breakers, BreakerRecordsAPI, func() (struct{}, error) {
		return struct{}{}, WithRetry(ctx, retry, func() error {
			return c.roundTrip(ctx, method, path, payload, want, out)
		})
	})
	timer.ObserveClient(operation)

	if err != nil {
		c.metrics.RecordClientError(operation, errorType(err))
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

func (c *RecordsClient) roundTrip(ctx context.Context, method, path string, payload []byte, want int, out any) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// Best effort: a non-JSON error body still yields the status code
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *RecordsClient) authorize(req *http.Request) {
	if c.apiKey == "" {
		return
	}
	switch c.authMode {
	case AuthAPIKeyHeader:
		req.Header.Set("X-API-Key", c.apiKey)
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrServiceUnavailable):
		return "circuit_open"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case isClientError(err):
		return "client_error"
	case StatusCode(err) >= 500:
		return "server_error"
	default:
		return "transport"
	}
}
