// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Configuration constants for the AI gateway.
const (
	// DefaultGatewayURL is the base URL of the AI gateway.
	DefaultGatewayURL = "https://ai.gateway.lovable.dev/v1"

	// DefaultModel is the model used for docstring generation.
	DefaultModel = "google/gemini-3-flash-preview"

	// DefaultTimeout bounds connecting and waiting for response headers.
	// The body of a stream is bounded by the request context only.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the number of extra attempts for transient errors.
	DefaultMaxRetries = 2

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum error body read from the gateway.
	MaxResponseSize = 1024 * 1024

	userAgent = "docgen/1.0"
)

// Error variables for gateway failures.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("AI gateway API key not configured")

	// ErrAuthFailed indicates the gateway rejected the API key.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrInsufficientCredits indicates the account has run out of credits.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrModelNotFound indicates the configured model does not exist.
	ErrModelNotFound = errors.New("model not found")
)

// GatewayError represents a non-success response from the gateway.
type GatewayError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("gateway error (HTTP %d): %s", e.Status, e.Message)
}

// RateLimitError is a rate limit response that carried a Retry-After hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %v", e.RetryAfter)
	}
	return "rate limited"
}

// Is allows RateLimitError to be compared with ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`    // "user", "assistant", or "system"
	Content string `json:"content"` // The message content
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: "system", Content: content}
}

// ChatRequest represents a request to the chat completions endpoint.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// apiErrorResponse is the OpenAI error envelope.
type apiErrorResponse struct {
	Error struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
	} `json:"error"`
}

// GatewayClient talks to an OpenAI-compatible chat completions endpoint.
// It is safe for concurrent use once configured.
type GatewayClient struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	httpClient *http.Client
	logger     *log.Logger
}

// NewGatewayClient creates a client with the given API key.
//
// If the API key is empty the client is still created, but OpenStream
// fails with ErrNotConfigured.
func NewGatewayClient(apiKey string) *GatewayClient {
	return &GatewayClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultGatewayURL,
		model:      DefaultModel,
		maxRetries: DefaultMaxRetries,
		httpClient: newStreamingClient(DefaultTimeout),
		logger:     log.Default(),
	}
}

// newStreamingClient builds an HTTP client without an overall timeout so
// long generations are bounded by the caller's context alone.
func newStreamingClient(headerTimeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: headerTimeout,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *GatewayClient) WithBaseURL(url string) *GatewayClient {
	if url != "" {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
	return c
}

// WithModel sets the model used for completions.
func (c *GatewayClient) WithModel(model string) *GatewayClient {
	if model != "" {
		c.model = model
	}
	return c
}

// WithTimeout sets how long to wait for the gateway's response headers.
func (c *GatewayClient) WithTimeout(timeout time.Duration) *GatewayClient {
	if timeout > 0 {
		c.httpClient = newStreamingClient(timeout)
	}
	return c
}

// WithMaxRetries sets the number of retries for transient failures.
func (c *GatewayClient) WithMaxRetries(maxRetries int) *GatewayClient {
	if maxRetries >= 0 {
		c.maxRetries = maxRetries
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *GatewayClient) WithHTTPClient(hc *http.Client) *GatewayClient {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithLogger sets the logger used for request records.
func (c *GatewayClient) WithLogger(logger *log.Logger) *GatewayClient {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Model returns the configured model.
func (c *GatewayClient) Model() string {
	return c.model
}

// BaseURL returns the configured base URL.
func (c *GatewayClient) BaseURL() string {
	return c.baseURL
}

// IsConfigured returns true if the client has an API key configured.
func (c *GatewayClient) IsConfigured() bool {
	return c.apiKey != ""
}

// APIKeyMasked returns a masked version of the API key for display.
// No fragment of the key is ever shown.
func (c *GatewayClient) APIKeyMasked() string {
	if c.apiKey == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%s]", len(c.apiKey), c.KeyFingerprint())
}

// KeyFingerprint returns the first 8 hex characters of the key's SHA-256.
func (c *GatewayClient) KeyFingerprint() string {
	if c.apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(h[:4])
}

// =============================================================================
// REQUESTS
// =============================================================================

// setHeaders sets the required headers for gateway requests.
func (c *GatewayClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
}

// OpenStream starts a streaming completion and returns once the gateway has
// answered with a success status. Non-success statuses are returned as
// errors before any content is read:
//
//   - 401: ErrAuthFailed
//   - 402: ErrInsufficientCredits
//   - 404: ErrModelNotFound
//   - 429: ErrRateLimited, as *RateLimitError when Retry-After is set
//   - otherwise: *GatewayError
//
// Connection failures and 5xx responses are retried with exponential
// backoff. The caller must Close the returned stream.
func (c *GatewayClient) OpenStream(ctx context.Context, messages []ChatMessage) (*Stream, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(calculateBackoff(attempt)):
			}
		}

		stream, err := c.open(ctx, url, body)
		if err == nil {
			return stream, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
		c.logger.Printf("GATEWAY_RETRY | attempt=%d error=%v", attempt+1, err)
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// open performs a single request attempt.
func (c *GatewayClient) open(ctx context.Context, url string, body []byte) (*Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	c.logger.Printf("GATEWAY_RESPONSE | status=%d model=%s key=%s duration=%v",
		resp.StatusCode, c.model, c.KeyFingerprint(), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errBody, _ := readLimited(resp.Body)
		return nil, handleErrorResponse(resp.StatusCode, resp.Header, errBody)
	}

	return NewStream(resp.Body), nil
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// readLimited reads at most MaxResponseSize bytes.
func readLimited(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to Go errors.
func handleErrorResponse(statusCode int, header http.Header, body []byte) error {
	message := strings.TrimSpace(string(body))
	code := ""

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
		code = strings.Trim(string(apiErr.Error.Code), `"`)
		if code == "null" {
			code = ""
		}
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return wrapMessage(ErrAuthFailed, message)
	case http.StatusPaymentRequired:
		return wrapMessage(ErrInsufficientCredits, message)
	case http.StatusNotFound:
		return wrapMessage(ErrModelNotFound, message)
	case http.StatusTooManyRequests:
		if rl := parseRetryAfter(header.Get("Retry-After")); rl != nil {
			return rl
		}
		return wrapMessage(ErrRateLimited, message)
	default:
		return &GatewayError{Code: code, Message: message, Status: statusCode}
	}
}

func wrapMessage(sentinel error, message string) error {
	if message == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, message)
}

// parseRetryAfter reads a Retry-After value given in seconds or as an
// HTTP date. It returns nil when the header is absent or unparseable.
func parseRetryAfter(value string) *RateLimitError {
	if value == "" {
		return nil
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return &RateLimitError{RetryAfter: time.Duration(seconds) * time.Second}
	}
	if t, err := http.ParseTime(value); err == nil {
		return &RateLimitError{RetryAfter: time.Until(t)}
	}
	return nil
}

// isRetryable reports whether an OpenStream attempt should be repeated.
// Only connection failures and 5xx responses qualify.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Status >= 500 && gwErr.Status < 600
	}

	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrAuthFailed) ||
		errors.Is(err, ErrInsufficientCredits) || errors.Is(err, ErrModelNotFound) {
		return false
	}

	return true
}

// calculateBackoff returns the delay before the given retry attempt.
func calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
