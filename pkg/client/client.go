// Package client is a Go client for the job status service's polling API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cuongbtq/job-status-service/internal/api/dto"
)

const (
	// DefaultPollInterval is the wait between two status queries
	DefaultPollInterval = 2 * time.Second
	// DefaultMaxRetries is the number of pending answers tolerated before giving up
	DefaultMaxRetries = 10

	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// APIError is returned when the service answers with a non-2xx status
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("job status service returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the legacy /api routes of the service
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger used for poll progress
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the service at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartJob creates a job and returns its id
func (c *Client) StartJob(ctx context.Context) (string, error) {
	var resp dto.JobStatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/start", nil, &resp); err != nil {
		return "", fmt.Errorf("failed to start job: %w", err)
	}
	return resp.JobID, nil
}

// Status returns the current status of a job
func (c *Client) Status(ctx context.Context, jobID string) (string, error) {
	if jobID == "" {
		return "", errors.New("job id is required")
	}

	var resp dto.JobStatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/status/"+url.PathEscape(jobID), nil, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch job status: %w", err)
	}
	return resp.Status, nil
}

// SetGlobalTimeout changes the default timeout of jobs created afterwards
func (c *Client) SetGlobalTimeout(ctx context.Context, timeout time.Duration) (string, error) {
	query := url.Values{"timeout": {strconv.FormatInt(timeout.Milliseconds(), 10)}}

	var resp dto.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/api/set-global-timeout", query, &resp); err != nil {
		return "", fmt.Errorf("failed to set global timeout: %w", err)
	}
	return resp.Message, nil
}

// PollOptions controls Poll. Zero values select the defaults.
type PollOptions struct {
	Interval   time.Duration
	MaxRetries int
	// OnStatus, when set, sees every status received
	OnStatus func(status string)
}

// Poll queries a job's status every Interval until it leaves pending.
// It returns the terminal status, or pending once MaxRetries pending
// answers have been seen after the first one. A failed query stops polling
// and is returned as an error.
func (c *Client) Poll(ctx context.Context, jobID string, opts PollOptions) (string, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for retries := 0; ; retries++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		status, err := c.Status(ctx, jobID)
		if err != nil {
			return "", err
		}
		if opts.OnStatus != nil {
			opts.OnStatus(status)
		}

		c.logger.Debug("Polled job status",
			slog.String("job_id", jobID),
			slog.String("status", status),
			slog.Int("retries", retries),
		)

		if status != StatusPending || retries >= maxRetries {
			return status, nil
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp dto.ErrorResponse
		if json.Unmarshal(body, &errResp) != nil || errResp.Error == "" {
			errResp.Error = strings.TrimSpace(string(body))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
