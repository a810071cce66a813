// Package api is the REST client for the patient portal backend. Every
// response uses the backend envelope {"success":bool,"message":string,...};
// business failures arrive as success=false with a user-facing message and
// are surfaced verbatim.
package api

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
	"strings"
	"time"

	"github.com/medibridge/patient-portal/pkg/logging"
)

const defaultUserAgent = "patient-portal/0.1"

// ErrUnauthorized marks responses that mean the session token is invalid or
// expired; callers react by forcing a logout.
var ErrUnauthorized = errors.New("api: unauthorized")

// TokenSource supplies the current session token, or "" when signed out.
type TokenSource func() string

// Config controls how the backend client behaves.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	Backoff     time.Duration
	HTTPClient  *http.Client
	Logger      *logging.Logger
	UserAgent   string
	TokenSource TokenSource
}

// Client wraps the portal backend's REST endpoints.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxRetries  int
	backoff     time.Duration
	logger      *logging.Logger
	userAgent   string
	tokenSource TokenSource
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api: base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	tokenSource := cfg.TokenSource
	if tokenSource == nil {
		tokenSource = func() string { return "" }
	}
	return &Client{
		baseURL:     baseURL,
		httpClient:  httpClient,
		maxRetries:  maxRetries,
		backoff:     backoff,
		logger:      logger,
		userAgent:   userAgent,
		tokenSource: tokenSource,
	}, nil
}

// Error is a failed backend call: either a non-2xx status or a success=false
// envelope. The server message is shown to the user as-is.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status=%d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("api: http status %d", e.StatusCode)
}

// Unwrap maps auth failures onto ErrUnauthorized so callers can errors.Is.
func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// envelope is the common response wrapper.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// reject converts a success=false envelope into an *Error.
func (e envelope) reject() error {
	if e.Success {
		return nil
	}
	return &Error{StatusCode: http.StatusOK, Message: e.Message}
}

func (c *Client) invoke(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("api: marshal request: %w", err)
		}
	}
	fullURL := c.buildURL(path, query)
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("api: build request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		if token := c.tokenSource(); token != "" {
			req.Header.Set("token", token)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !shouldRetry(0, err) || attempt == c.maxRetries {
				return nil, fmt.Errorf("api: http error: %w", err)
			}
			lastErr = err
			c.logRetry(path, attempt, 0, err)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("api: read response: %w", readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, nil
		}
		apiErr := decodeAPIError(resp.StatusCode, data)
		if attempt < c.maxRetries && shouldRetry(resp.StatusCode, nil) {
			lastErr = apiErr
			c.logRetry(path, attempt, resp.StatusCode, apiErr)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		return nil, apiErr
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("api: request failed without response")
}

func (c *Client) buildURL(path string, query url.Values) string {
	full := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		full = full + "?" + query.Encode()
	}
	return full
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	delay := c.backoff * time.Duration(1<<attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) logRetry(path string, attempt int, status int, err error) {
	c.logger.Warn("backend retry",
		"path", path,
		"attempt", attempt+1,
		"status", status,
		"error", err,
	)
}

func shouldRetry(status int, err error) bool {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		return !errors.Is(err, context.Canceled)
	}
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500 && status <= 599
}

func decodeAPIError(status int, body []byte) error {
	var parsed envelope
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Message == "" {
		return &Error{StatusCode: status, Message: strings.TrimSpace(string(body))}
	}
	return &Error{StatusCode: status, Message: parsed.Message}
}

func decodeInto[T any](body []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("api: decode response: %w", err)
	}
	return &out, nil
}
