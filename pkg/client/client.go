package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rbeezley/myk9q-scoring/internal/models"
)

// Client is a Go SDK for the myk9q scoring API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new scoring API client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Countdown mirrors the countdown block of a session response
type Countdown struct {
	PresetMs    int    `json:"preset_ms"`
	ElapsedMs   int    `json:"elapsed_ms"`
	RemainingMs int    `json:"remaining_ms"`
	Phase       string `json:"phase"`
	Display     string `json:"display"`
}

// Session represents a scoring session response
type Session struct {
	ID             string         `json:"id"`
	EntryID        string         `json:"entry_id"`
	ClassID        string         `json:"class_id"`
	Limits         [3]string      `json:"limits"`
	Values         [3]string      `json:"values"`
	State          string         `json:"state"`
	Completed      int            `json:"completed"`
	CurrentArea    int            `json:"current_area"`
	PresetMs       int            `json:"preset_ms"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	Result         *models.Result `json:"result,omitempty"`
	Disabled       bool           `json:"disabled"`
	DisabledReason string         `json:"disabled_reason,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Countdown      Countdown      `json:"countdown"`
}

// Areas is the active-area answer for a class configuration
type Areas struct {
	Active [3]bool `json:"active"`
	Count  int     `json:"count"`
}

// Preset is the countdown preset for the area currently being timed
type Preset struct {
	CurrentArea int    `json:"current_area"`
	PresetMs    int    `json:"preset_ms"`
	Preset      string `json:"preset"`
}

// Parse converts a masked time string to milliseconds
func (c *Client) Parse(ctx context.Context, text string) (int, error) {
	var out struct {
		Ms int `json:"ms"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/v1/timing/parse", map[string]string{"text": text}, &out); err != nil {
		return 0, err
	}
	return out.Ms, nil
}

// Format renders milliseconds with the requested mask
func (c *Client) Format(ctx context.Context, ms int, includeHours, includeHundredths bool) (string, error) {
	req := map[string]any{
		"ms":                 ms,
		"include_hours":      includeHours,
		"include_hundredths": includeHundredths,
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/v1/timing/format", req, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// Areas reports which areas are active for a class configuration
func (c *Client) Areas(ctx context.Context, areaCount int, element, level string) (*Areas, error) {
	req := map[string]any{
		"area_count": areaCount,
		"element":    element,
		"level":      level,
	}
	var out Areas
	if err := c.call(ctx, http.MethodPost, "/api/v1/timing/areas", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Preset resolves the countdown preset from the entered areas and limits
func (c *Client) Preset(ctx context.Context, areaCount int, areas, limits [3]string) (*Preset, error) {
	req := map[string]any{
		"area_count": areaCount,
		"areas":      areas,
		"limits":     limits,
	}
	var out Preset
	if err := c.call(ctx, http.MethodPost, "/api/v1/timing/preset", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSession opens a scoring session for an entry
func (c *Client) CreateSession(ctx context.Context, entryID string) (*Session, error) {
	return c.session(ctx, http.MethodPost, fmt.Sprintf("/api/v1/entries/%s/sessions", entryID), nil)
}

// GetSession fetches a session with its current countdown
func (c *Client) GetSession(ctx context.Context, id string) (*Session, error) {
	return c.session(ctx, http.MethodGet, fmt.Sprintf("/api/v1/sessions/%s", id), nil)
}

// Start starts the countdown for the current area
func (c *Client) Start(ctx context.Context, id string) (*Session, error) {
	return c.session(ctx, http.MethodPost, fmt.Sprintf("/api/v1/sessions/%s/start", id), nil)
}

// Stop records the running area time
func (c *Client) Stop(ctx context.Context, id string) (*Session, error) {
	return c.session(ctx, http.MethodPost, fmt.Sprintf("/api/v1/sessions/%s/stop", id), nil)
}

// SetAreaTime enters an area time by hand
func (c *Client) SetAreaTime(ctx context.Context, id string, area int, text string) (*Session, error) {
	return c.session(ctx, http.MethodPut, fmt.Sprintf("/api/v1/sessions/%s/areas/%d", id, area), map[string]string{"time": text})
}

// Submit closes the session with a result
func (c *Client) Submit(ctx context.Context, id string, result models.Result) (*Session, error) {
	return c.session(ctx, http.MethodPost, fmt.Sprintf("/api/v1/sessions/%s/submit", id), result)
}

// Health checks the health endpoint
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) session(ctx context.Context, method, path string, body any) (*Session, error) {
	var out Session
	if err := c.call(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

// call sends body as JSON and decodes the envelope data into out
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	status, respBody, err := c.doRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if status >= 400 {
			return &APIError{StatusCode: status, Code: "http_error", Message: string(respBody)}
		}
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if status >= 400 || !env.Success {
		apiErr := env.Error
		if apiErr == nil {
			apiErr = &APIError{Code: "unknown", Message: string(respBody)}
		}
		apiErr.StatusCode = status
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (int, []byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
