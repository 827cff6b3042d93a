// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generate

import (
	"sync"
	"time"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// DefaultMaxFPS caps how often streamed output is redrawn.
const DefaultMaxFPS = 30

// StreamingBuffer holds the latest cleaned output between frames. The
// session goroutine calls Set for every fragment; the Bubble Tea loop calls
// Take once per frame, so a burst of fragments costs a single redraw.
type StreamingBuffer struct {
	mu       sync.Mutex
	text     string
	dirty    bool
	updates  int
	interval time.Duration
}

// NewStreamingBuffer creates a buffer flushed at most maxFPS times per
// second. Out of range values select DefaultMaxFPS.
func NewStreamingBuffer(maxFPS int) *StreamingBuffer {
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = DefaultMaxFPS
	}
	return &StreamingBuffer{interval: time.Second / time.Duration(maxFPS)}
}

// Set records the latest output.
func (b *StreamingBuffer) Set(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	b.dirty = true
	b.updates++
}

// Take returns the latest output and whether it changed since the last Take.
func (b *StreamingBuffer) Take() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	changed := b.dirty
	b.dirty = false
	return b.text, changed
}

// Latest returns the latest output without consuming the change.
func (b *StreamingBuffer) Latest() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// Updates returns how many times Set was called.
func (b *StreamingBuffer) Updates() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updates
}

// Interval returns the time between frames.
func (b *StreamingBuffer) Interval() time.Duration {
	return b.interval
}
