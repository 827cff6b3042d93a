// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generate

import (
	"sync"
	"testing"
	"time"
)

func TestStreamingBuffer_TakeOnce(t *testing.T) {
	b := NewStreamingBuffer(DefaultMaxFPS)

	if _, changed := b.Take(); changed {
		t.Error("new buffer should not report a change")
	}

	b.Set("a")
	b.Set("ab")
	text, changed := b.Take()
	if !changed || text != "ab" {
		t.Errorf("Take() = %q, %v; want %q, true", text, changed, "ab")
	}
	if _, changed := b.Take(); changed {
		t.Error("second Take should not report a change")
	}
	if b.Latest() != "ab" {
		t.Errorf("Latest() = %q", b.Latest())
	}
	if b.Updates() != 2 {
		t.Errorf("Updates() = %d, want 2", b.Updates())
	}
}

func TestStreamingBuffer_Interval(t *testing.T) {
	tests := []struct {
		fps  int
		want time.Duration
	}{
		{30, time.Second / 30},
		{60, time.Second / 60},
		{0, time.Second / DefaultMaxFPS},
		{500, time.Second / DefaultMaxFPS},
	}
	for _, tt := range tests {
		if got := NewStreamingBuffer(tt.fps).Interval(); got != tt.want {
			t.Errorf("NewStreamingBuffer(%d).Interval() = %v, want %v", tt.fps, got, tt.want)
		}
	}
}

func TestStreamingBuffer_Concurrent(t *testing.T) {
	b := NewStreamingBuffer(DefaultMaxFPS)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Set("x")
				b.Take()
			}
		}()
	}
	wg.Wait()

	if b.Updates() != 400 {
		t.Errorf("Updates() = %d, want 400", b.Updates())
	}
}
