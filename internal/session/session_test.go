// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Navyasridurga/docstring/internal/cloud"
	"github.com/Navyasridurga/docstring/internal/docstyle"
)

// recorder captures callback invocations in order.
type recorder struct {
	mu     sync.Mutex
	events []string
	delta  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{delta: make(chan struct{}, 16)}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnDelta: func(text string) {
			r.add("delta:" + text)
			r.delta <- struct{}{}
		},
		OnDone:  func() { r.add("done") },
		OnError: func(msg string) { r.add("error:" + msg) },
	}
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// writeChunks streams fragments as SSE chunks without a [DONE] marker.
func writeChunks(w http.ResponseWriter, fragments ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	for _, f := range fragments {
		data, _ := json.Marshal(cloud.ContentChunk(f))
		fmt.Fprintf(w, "data: %s\n\n", data)
		if fl, ok := w.(http.Flusher); ok {
			fl.Flush()
		}
	}
}

func runAndWait(t *testing.T, url string, req Request) (*Session, *recorder) {
	t.Helper()
	rec := newRecorder()
	s := NewClient(url).Run(context.Background(), req, rec.callbacks())

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
	}
	return s, rec
}

var pyReq = Request{Code: "def f():\n    pass\n", Style: docstyle.Google}

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestRun_DeliversWholeTextThenDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChunks(w, "Hello", " world")
	}))
	defer srv.Close()

	s, rec := runAndWait(t, srv.URL, pyReq)

	assert.Equal(t, []string{"delta:Hello", "delta:Hello world", "done"}, rec.snapshot())
	assert.Equal(t, StateDone, s.State())
	assert.Nil(t, s.Err())
	assert.Equal(t, "Hello world", s.Output())
}

func TestRun_DoneMarkerEndsStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChunks(w, "a")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	_, rec := runAndWait(t, srv.URL, pyReq)

	assert.Equal(t, []string{"delta:a", "done"}, rec.snapshot())
}

func TestRun_StripsFencesAcrossFragments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChunks(w, "```python\n", "def f():\n    pass\n", "```")
	}))
	defer srv.Close()

	s, rec := runAndWait(t, srv.URL, pyReq)

	events := rec.snapshot()
	require.Len(t, events, 4)
	assert.Equal(t, "delta:def f():\n    pass\n", events[2])
	assert.Equal(t, "done", events[3])
	assert.Equal(t, "```python\ndef f():\n    pass\n```", s.Raw())
}

func TestRun_SendsRequest(t *testing.T) {
	var got Request
	var gotID, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeChunks(w, "ok")
	}))
	defer srv.Close()

	s, _ := runAndWait(t, srv.URL, Request{Code: "x = 1", Style: docstyle.NumPy})

	assert.Equal(t, "x = 1", got.Code)
	assert.Equal(t, docstyle.NumPy, got.Style)
	assert.Equal(t, s.ID(), gotID)
	assert.Equal(t, "application/json", gotType)
}

// =============================================================================
// FAILURES
// =============================================================================

func TestRun_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":"Rate limit exceeded. Please try again in a moment."}`)
	}))
	defer srv.Close()

	s, rec := runAndWait(t, srv.URL, pyReq)

	assert.Equal(t, []string{"error:" + MsgRateLimited}, rec.snapshot())
	assert.Equal(t, StateFailed, s.State())
	require.NotNil(t, s.Err())
	assert.Equal(t, KindRateLimited, s.Err().Kind)
	assert.Equal(t, http.StatusTooManyRequests, s.Err().Status)
}

func TestRun_StatusWithoutBodyUsesDefaultMessage(t *testing.T) {
	tests := []struct {
		status int
		kind   ErrorKind
		msg    string
	}{
		{http.StatusTooManyRequests, KindRateLimited, MsgRateLimited},
		{http.StatusPaymentRequired, KindQuotaExhausted, MsgQuotaExhausted},
		{http.StatusInternalServerError, KindService, MsgService},
		{http.StatusBadRequest, KindValidation, "Bad Request"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			s, rec := runAndWait(t, srv.URL, pyReq)

			assert.Equal(t, []string{"error:" + tt.msg}, rec.snapshot())
			assert.Equal(t, tt.kind, s.Err().Kind)
		})
	}
}

func TestRun_ServerMessagePreferred(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"Python code is required"}`)
	}))
	defer srv.Close()

	_, rec := runAndWait(t, srv.URL, pyReq)

	assert.Equal(t, []string{"error:Python code is required"}, rec.snapshot())
}

func TestRun_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChunks(w, "partial")
		fmt.Fprint(w, "data: {not json}\n\n")
	}))
	defer srv.Close()

	s, rec := runAndWait(t, srv.URL, pyReq)

	assert.Equal(t, []string{"delta:partial", "error:" + MsgMalformed}, rec.snapshot())
	assert.Equal(t, KindTransport, s.Err().Kind)
	assert.True(t, errors.Is(s.Err(), cloud.ErrMalformedChunk))
}

func TestRun_InBandErrorChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChunks(w, "x")
		fmt.Fprint(w, `data: {"error":{"message":"AI service error"}}`+"\n\n")
	}))
	defer srv.Close()

	s, rec := runAndWait(t, srv.URL, pyReq)

	assert.Equal(t, []string{"delta:x", "error:AI service error"}, rec.snapshot())
	assert.Equal(t, KindService, s.Err().Kind)
}

func TestRun_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s, rec := runAndWait(t, url, pyReq)

	assert.Equal(t, []string{"error:" + MsgConnect}, rec.snapshot())
	assert.Equal(t, KindTransport, s.Err().Kind)
}

func TestRun_ValidationSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	s, rec := runAndWait(t, srv.URL, Request{Code: "  \n\t"})
	assert.Equal(t, []string{"error:" + MsgCodeRequired}, rec.snapshot())
	assert.Equal(t, KindValidation, s.Err().Kind)

	s, _ = runAndWait(t, srv.URL, Request{Code: "x", Style: docstyle.Style(9)})
	assert.Equal(t, KindValidation, s.Err().Kind)
	assert.True(t, errors.Is(s.Err(), docstyle.ErrUnknownStyle))

	assert.Equal(t, int32(0), calls.Load())
}

// =============================================================================
// CANCELLATION
// =============================================================================

func TestCancel_StopsDelivery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChunks(w, "first")
		<-r.Context().Done()
	}))
	defer srv.Close()

	rec := newRecorder()
	s := NewClient(srv.URL).Run(context.Background(), pyReq, rec.callbacks())

	select {
	case <-rec.delta:
	case <-time.After(5 * time.Second):
		t.Fatal("no delta received")
	}
	assert.Equal(t, StateStreaming, s.State())

	s.Cancel()
	s.Wait()

	assert.Equal(t, []string{"delta:first"}, rec.snapshot())
	assert.Equal(t, StateCancelled, s.State())
	assert.Nil(t, s.Err())

	// Cancel after the fact is harmless
	s.Cancel()
	assert.Equal(t, StateCancelled, s.State())
}

func TestCancel_ParentContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChunks(w, "first")
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	rec := newRecorder()
	s := NewClient(srv.URL).Run(ctx, pyReq, rec.callbacks())

	<-rec.delta
	cancel()
	s.Wait()

	assert.Equal(t, StateCancelled, s.State())
	assert.Equal(t, []string{"delta:first"}, rec.snapshot())
}

func TestCancel_AfterDoneKeepsDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChunks(w, "a")
	}))
	defer srv.Close()

	s, _ := runAndWait(t, srv.URL, pyReq)
	s.Cancel()

	assert.Equal(t, StateDone, s.State())
}

// =============================================================================
// HELPERS
// =============================================================================

func TestSessionIDsAreUnique(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChunks(w, "a")
	}))
	defer srv.Close()

	a, _ := runAndWait(t, srv.URL, pyReq)
	b, _ := runAndWait(t, srv.URL, pyReq)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Len(t, a.ID(), 36)
}

func TestStateAndKindStrings(t *testing.T) {
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.True(t, StateCancelled.Terminal())
	assert.False(t, StateIdle.Terminal())
	assert.Equal(t, "rate_limited", KindRateLimited.String())
	assert.Equal(t, "quota_exhausted", KindQuotaExhausted.String())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "850ms", FormatDuration(850*time.Millisecond))
	assert.Equal(t, "12s", FormatDuration(12*time.Second))
	assert.Equal(t, "2m", FormatDuration(2*time.Minute))
	assert.Equal(t, "1m 5s", FormatDuration(65*time.Second))
}
