// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// =============================================================================
// STREAMING CONSTANTS
// =============================================================================

// MaxChunkSize is the maximum allowed size for a single SSE line (64KB).
const MaxChunkSize = 64 * 1024

// doneMarker terminates an OpenAI-style stream.
var doneMarker = []byte("[DONE]")

// ErrMalformedChunk is returned when an SSE data payload is not a valid
// completion chunk.
var ErrMalformedChunk = errors.New("malformed stream chunk")

// ErrChunkTooLarge is returned when a single SSE line exceeds MaxChunkSize.
var ErrChunkTooLarge = errors.New("stream chunk too large")

// =============================================================================
// STREAMING TYPES
// =============================================================================

// ChunkDelta is the incremental message content of a choice.
type ChunkDelta struct {
	Content string `json:"content"`
	Role    string `json:"role,omitempty"`
}

// ChunkChoice is one choice of a streaming chunk.
type ChunkChoice struct {
	Delta        ChunkDelta `json:"delta"`
	FinishReason string     `json:"finish_reason,omitempty"`
}

// ChunkError is an error object sent in-band on the stream.
type ChunkError struct {
	Code    json.RawMessage `json:"code,omitempty"`
	Message string          `json:"message"`
}

// StreamChunk represents a single chunk of a streaming completion.
type StreamChunk struct {
	ID      string        `json:"id,omitempty"`
	Model   string        `json:"model,omitempty"`
	Choices []ChunkChoice `json:"choices"`
	Error   *ChunkError   `json:"error,omitempty"`
}

// ContentChunk builds a chunk carrying a single content delta.
func ContentChunk(content string) StreamChunk {
	return StreamChunk{Choices: []ChunkChoice{{Delta: ChunkDelta{Content: content}}}}
}

// GetContent returns the content from the first choice's delta.
func (c *StreamChunk) GetContent() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.Content
	}
	return ""
}

// GetFinishReason returns the finish reason if streaming is complete.
func (c *StreamChunk) GetFinishReason() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].FinishReason
	}
	return ""
}

// IsDone returns true if the chunk carries a finish reason.
func (c *StreamChunk) IsDone() bool {
	return c.GetFinishReason() != ""
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	scanner *bufio.Scanner
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), MaxChunkSize)
	return &SSEReader{scanner: scanner}
}

// ReadEvent reads the next SSE event from the stream.
// Returns the event type, joined data lines, and any error.
// Returns io.EOF when the stream ends with no pending event.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var eventType string
	var dataLines [][]byte

	for s.scanner.Scan() {
		line := bytes.TrimRight(s.scanner.Bytes(), "\r")

		// Empty line signals end of event
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		switch {
		case line[0] == ':':
			// Comment / keep-alive
		case bytes.HasPrefix(line, []byte("event:")):
			eventType = string(bytes.TrimSpace(line[len("event:"):]))
		case bytes.HasPrefix(line, []byte("data:")):
			data := line[len("data:"):]
			if len(data) > 0 && data[0] == ' ' {
				data = data[1:]
			}
			dataLines = append(dataLines, append([]byte(nil), data...))
		}
		// Ignore other fields (id:, retry:)
	}

	if err := s.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return "", nil, ErrChunkTooLarge
		}
		return "", nil, err
	}

	// Flush an event that was not followed by a blank line
	if len(dataLines) > 0 {
		return eventType, bytes.Join(dataLines, []byte("\n")), nil
	}
	return "", nil, io.EOF
}

// =============================================================================
// STREAM
// =============================================================================

// Stream is an open streaming completion. Next must be called from a
// single goroutine; Close may be called from any goroutine.
type Stream struct {
	body      io.ReadCloser
	reader    *SSEReader
	done      bool
	closeOnce sync.Once
}

// NewStream wraps a response body carrying OpenAI-style SSE chunks.
func NewStream(body io.ReadCloser) *Stream {
	return &Stream{
		body:   body,
		reader: NewSSEReader(body),
	}
}

// Next returns the next chunk that carries content or a finish reason.
// It returns io.EOF after "data: [DONE]" or when the body ends. A data
// payload that is not valid chunk JSON yields ErrMalformedChunk, and an
// in-band error object yields a *GatewayError.
func (s *Stream) Next() (StreamChunk, error) {
	for {
		if s.done {
			return StreamChunk{}, io.EOF
		}

		_, data, err := s.reader.ReadEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.done = true
			}
			return StreamChunk{}, err
		}

		if bytes.Equal(bytes.TrimSpace(data), doneMarker) {
			s.done = true
			return StreamChunk{}, io.EOF
		}

		var chunk StreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return StreamChunk{}, fmt.Errorf("%w: %v", ErrMalformedChunk, err)
		}

		if chunk.Error != nil {
			return StreamChunk{}, &GatewayError{
				Code:    string(bytes.Trim(chunk.Error.Code, `"`)),
				Message: chunk.Error.Message,
			}
		}

		if chunk.GetContent() == "" && !chunk.IsDone() {
			// Role announcements and empty keep-alive deltas
			continue
		}
		return chunk, nil
	}
}

// Close releases the underlying response body.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}
