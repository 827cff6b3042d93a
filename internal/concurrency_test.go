// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Race detection tests for concurrent generation sessions.
//
// Run with: go test -race -v ./internal/...

package internal

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Navyasridurga/docstring/internal/docstyle"
	"github.com/Navyasridurga/docstring/internal/session"
)

const (
	// Number of concurrent sessions for race tests
	raceConcurrency = 20
	// Timeout for race tests
	raceTimeout = 10 * time.Second
)

// waitAll waits for wg or fails the test after raceTimeout.
func waitAll(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(raceTimeout):
		t.Fatal("timed out waiting for sessions")
	}
}

// TestConcurrency_ParallelSessions runs many sessions on one client at
// once. Every session gets its own complete output.
func TestConcurrency_ParallelSessions(t *testing.T) {
	base := startStack(t, &fakeGateway{})
	client := session.NewClient(base + "/generate-docstrings")

	sessions := make([]*session.Session, raceConcurrency)
	var wg sync.WaitGroup
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := client.Run(context.Background(),
				session.Request{Code: sourceCode, Style: docstyle.All()[i%3]}, session.Callbacks{})
			// Readers race with the session's own writes
			_ = s.Output()
			_ = s.State()
			s.Wait()
			sessions[i] = s
		}(i)
	}
	waitAll(t, &wg)

	ids := make(map[string]bool)
	for _, s := range sessions {
		require.Equal(t, session.StateDone, s.State(), "err: %v", s.Err())
		assert.Equal(t, documentedCode, s.Output())
		ids[s.ID()] = true
	}
	assert.Len(t, ids, raceConcurrency, "session IDs must be unique")
}

// TestConcurrency_CancelMidStream cancels sessions while their streams are
// open. No terminal callback may fire after Cancel.
func TestConcurrency_CancelMidStream(t *testing.T) {
	gw := &fakeGateway{release: make(chan struct{})}
	base := startStack(t, gw)
	t.Cleanup(func() { close(gw.release) })
	client := session.NewClient(base + "/generate-docstrings")

	var terminal atomic.Int32
	sessions := make([]*session.Session, raceConcurrency)
	started := make(chan struct{}, raceConcurrency)
	for i := range sessions {
		var once sync.Once
		sessions[i] = client.Run(context.Background(),
			session.Request{Code: sourceCode, Style: docstyle.Google},
			session.Callbacks{
				OnDelta: func(string) { once.Do(func() { started <- struct{}{} }) },
				OnDone:  func() { terminal.Add(1) },
				OnError: func(string) { terminal.Add(1) },
			})
	}

	for range sessions {
		select {
		case <-started:
		case <-time.After(raceTimeout):
			t.Fatal("sessions did not start streaming")
		}
	}

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *session.Session) {
			defer wg.Done()
			s.Cancel()
			s.Cancel() // Idempotent
			s.Wait()
		}(s)
	}
	waitAll(t, &wg)

	for _, s := range sessions {
		assert.Equal(t, session.StateCancelled, s.State())
		assert.Nil(t, s.Err())
	}
	assert.Equal(t, int32(0), terminal.Load())
}

// TestConcurrency_ContextCancel stops sessions through their parent
// context instead of Cancel.
func TestConcurrency_ContextCancel(t *testing.T) {
	gw := &fakeGateway{release: make(chan struct{})}
	base := startStack(t, gw)
	t.Cleanup(func() { close(gw.release) })
	client := session.NewClient(base + "/generate-docstrings")

	ctx, cancel := context.WithCancel(context.Background())
	sessions := make([]*session.Session, raceConcurrency/2)
	for i := range sessions {
		sessions[i] = client.Run(ctx, session.Request{Code: sourceCode, Style: docstyle.NumPy}, session.Callbacks{})
	}

	require.Eventually(t, func() bool {
		return len(gw.received()) == len(sessions)
	}, raceTimeout, 10*time.Millisecond)
	cancel()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *session.Session) {
			defer wg.Done()
			s.Wait()
		}(s)
	}
	waitAll(t, &wg)

	for _, s := range sessions {
		assert.Equal(t, session.StateCancelled, s.State())
	}
}
