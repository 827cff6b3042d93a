// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Navyasridurga/docstring/internal/cloud"
	"github.com/Navyasridurga/docstring/internal/docstyle"
	"github.com/Navyasridurga/docstring/internal/stream"
)

// maxErrorBody caps how much of a failed response is read.
const maxErrorBody = 64 * 1024

// =============================================================================
// STATE
// =============================================================================

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateDone
	StateFailed
	StateCancelled
)

// String returns the string representation of a state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}

// =============================================================================
// REQUEST AND CALLBACKS
// =============================================================================

// Request is the payload sent to the generation endpoint.
type Request struct {
	Code  string         `json:"code"`
	Style docstyle.Style `json:"style"`
}

// Callbacks receive session progress. Nil callbacks are skipped.
type Callbacks struct {
	// OnDelta receives the whole cleaned text after every fragment
	OnDelta func(text string)
	// OnDone fires once when the stream ends gracefully
	OnDone func()
	// OnError fires once with a human-readable message on failure
	OnError func(message string)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client starts generation sessions against one endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a client for the given generation endpoint URL.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		logger:     log.New(io.Discard, "", 0),
	}
}

// WithHTTPClient replaces the HTTP client used for requests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithLogger sets the logger for session records. Sessions are silent by
// default so they never interfere with a terminal UI.
func (c *Client) WithLogger(logger *log.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Endpoint returns the generation endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Run starts a session and returns immediately. Progress is reported via
// cb from a goroutine owned by the session.
func (c *Client) Run(ctx context.Context, req Request, cb Callbacks) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:      uuid.NewString(),
		client:  c,
		req:     req,
		cb:      cb,
		acc:     stream.NewAccumulator(),
		cancel:  cancel,
		done:    make(chan struct{}),
		state:   StateIdle,
		started: time.Now(),
	}
	go s.run(ctx)
	return s
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one generation request and its stream.
type Session struct {
	id     string
	client *Client
	req    Request
	cb     Callbacks
	acc    *stream.Accumulator
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	state    State
	err      *Error
	started  time.Time
	finished time.Time
}

// ID returns the session's unique identifier. It is also sent to the
// endpoint as X-Request-ID.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the failure once the session is in StateFailed.
func (s *Session) Err() *Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Output returns the cleaned text accumulated so far.
func (s *Session) Output() string {
	return s.acc.Output()
}

// Raw returns the unmodified text received so far.
func (s *Session) Raw() string {
	return s.acc.Raw()
}

// Duration returns how long the session ran, or has been running.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished.IsZero() {
		return time.Since(s.started)
	}
	return s.finished.Sub(s.started)
}

// Cancel stops the session. No terminal callback fires afterwards, and a
// callback already running is the last one delivered. Cancel is a no-op
// once the session has finished.
func (s *Session) Cancel() {
	s.mu.Lock()
	if !s.state.Terminal() {
		s.state = StateCancelled
		s.finished = time.Now()
	}
	s.mu.Unlock()
	s.cancel()
}

// Wait blocks until the session goroutine has exited.
func (s *Session) Wait() {
	<-s.done
}

// Done returns a channel closed when the session goroutine exits.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// active reports whether callbacks may still be delivered.
func (s *Session) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.state.Terminal()
}

// transition moves to a terminal state. It returns false if the session
// already reached one, which is how a cancelled session stays silent.
func (s *Session) transition(to State, err *Error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	s.state = to
	s.err = err
	s.finished = time.Now()
	return true
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.cancel()

	s.mu.Lock()
	if s.state == StateIdle {
		s.state = StateStreaming
	}
	s.mu.Unlock()

	logger := s.client.logger
	logger.Printf("SESSION_START | id=%s style=%s bytes=%d", s.id, s.req.Style, len(s.req.Code))

	if err := s.generate(ctx); err != nil {
		if ctx.Err() != nil && errors.Is(err.Cause, ctx.Err()) {
			s.transition(StateCancelled, nil)
			logger.Printf("SESSION_CANCELLED | id=%s", s.id)
			return
		}
		if s.transition(StateFailed, err) {
			logger.Printf("SESSION_FAILED | id=%s kind=%s status=%d error=%v", s.id, err.Kind, err.Status, err.Cause)
			if s.cb.OnError != nil {
				s.cb.OnError(err.Message)
			}
		}
		return
	}

	if s.transition(StateDone, nil) {
		logger.Printf("SESSION_DONE | id=%s fragments=%d duration=%v", s.id, s.acc.Len(), s.Duration())
		if s.cb.OnDone != nil {
			s.cb.OnDone()
		}
		return
	}
	logger.Printf("SESSION_CANCELLED | id=%s", s.id)
}

// generate performs the request and delivers fragments.
func (s *Session) generate(ctx context.Context) *Error {
	if strings.TrimSpace(s.req.Code) == "" {
		return &Error{Kind: KindValidation, Message: MsgCodeRequired}
	}
	if !s.req.Style.Valid() {
		return &Error{
			Kind:    KindValidation,
			Message: fmt.Sprintf("Unsupported docstring style. Choose one of: %s", strings.Join(docstyle.Names(), ", ")),
			Cause:   docstyle.ErrUnknownStyle,
		}
	}

	body, err := json.Marshal(s.req)
	if err != nil {
		return &Error{Kind: KindValidation, Message: "Could not encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.endpoint, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindTransport, Message: MsgConnect, Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("X-Request-ID", s.id)

	resp, err := s.client.httpClient.Do(httpReq)
	if err != nil {
		return &Error{Kind: KindTransport, Message: MsgConnect, Cause: contextCause(ctx, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError(resp.StatusCode, errBody)
	}

	chunks := cloud.NewStream(resp.Body)
	defer chunks.Close()

	for {
		chunk, err := chunks.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return streamError(contextCause(ctx, err))
		}

		content := chunk.GetContent()
		if content == "" {
			continue
		}
		text := s.acc.Append(content)
		if !s.active() {
			return &Error{Kind: KindTransport, Message: MsgInterrupted, Cause: context.Canceled}
		}
		if s.cb.OnDelta != nil {
			s.cb.OnDelta(text)
		}
	}
}

// contextCause prefers the context's error when the context is done, so
// cancellation is recognised however the transport reports it.
func contextCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// FormatDuration returns a short human-readable duration such as "850ms",
// "12s" or "1m 5s".
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm %ds", mins, secs)
}
