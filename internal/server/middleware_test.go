// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Navyasridurga/docstring/internal/config"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// =============================================================================
// CORS TESTS
// =============================================================================

func TestCORS_PreflightWildcard(t *testing.T) {
	handler := CORSMiddleware(DefaultCORSConfig())(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/generate-docstrings", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	headers := rec.Header().Get("Access-Control-Allow-Headers")
	for _, h := range []string{"authorization", "x-client-info", "apikey", "content-type"} {
		if !strings.Contains(headers, h) {
			t.Errorf("Allow-Headers %q missing %s", headers, h)
		}
	}
}

func TestCORS_Allowlist(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://docs.example.com", "https://*.preview.dev"}
	handler := CORSMiddleware(cfg)(okHandler)

	tests := []struct {
		origin string
		want   string
	}{
		{"https://docs.example.com", "https://docs.example.com"},
		{"https://pr-7.preview.dev", "https://pr-7.preview.dev"},
		{"http://pr-7.preview.dev", ""},
		{"https://evil.com", ""},
		{"", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/generate-docstrings", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %q: Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("origin %q: status = %d, want 200", tt.origin, rec.Code)
		}
	}
}

// =============================================================================
// RATE LIMIT TESTS
// =============================================================================

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("1.2.3.4"); !ok {
			t.Fatalf("request %d should be allowed by burst", i+1)
		}
	}

	ok, retry := rl.Allow("1.2.3.4")
	if ok {
		t.Fatal("third request should be limited")
	}
	if retry <= 0 || retry > time.Second {
		t.Errorf("retry = %v, want (0, 1s]", retry)
	}

	// Other clients have their own bucket
	if ok, _ := rl.Allow("5.6.7.8"); !ok {
		t.Error("a different client should not be limited")
	}

	now = now.Add(time.Second)
	if ok, _ := rl.Allow("1.2.3.4"); !ok {
		t.Error("a token should be available after one second")
	}
}

func TestRateLimiter_CleansUpIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("1.1.1.1")
	rl.Allow("2.2.2.2")
	if rl.Clients() != 2 {
		t.Fatalf("Clients() = %d, want 2", rl.Clients())
	}

	now = now.Add(2 * limiterIdleTTL)
	rl.Allow("3.3.3.3")
	if rl.Clients() != 1 {
		t.Errorf("Clients() = %d after cleanup, want 1", rl.Clients())
	}
}

func TestRateLimitMiddleware_LogsToInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	limiter := NewRateLimiter(0.01, 1)
	handler := RateLimitMiddleware(limiter, log.New(&buf, "", 0))(okHandler)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/generate-docstrings", nil)
		req.RemoteAddr = "10.0.0.9:4242"
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if !strings.Contains(buf.String(), "RATE_LIMITED | ip=10.0.0.9 path=/generate-docstrings") {
		t.Errorf("log = %q, want RATE_LIMITED record", buf.String())
	}
}

func TestRateLimitMiddleware_Rejects(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RateLimitRPS = 0.01
	cfg.Server.RateLimitBurst = 1
	handler := NewServer(cfg, nil).WithLogger(discard).Handler()

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/health", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/health", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("429 should carry Retry-After")
	}
	if !strings.Contains(second.Body.String(), MsgRateLimited) {
		t.Errorf("body = %q", second.Body.String())
	}

	// Preflight is exempt
	pre := httptest.NewRecorder()
	handler.ServeHTTP(pre, httptest.NewRequest(http.MethodOptions, "/generate-docstrings", nil))
	if pre.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", pre.Code)
	}
}

// =============================================================================
// REQUEST ID, HEADERS AND RECOVERY TESTS
// =============================================================================

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-id-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen != "client-id-1" || rec.Header().Get("X-Request-ID") != "client-id-1" {
		t.Errorf("client id not propagated: seen=%q header=%q", seen, rec.Header().Get("X-Request-ID"))
	}

	for _, bad := range []string{"", "has space", strings.Repeat("x", maxRequestIDLen+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if bad != "" {
			req.Header.Set("X-Request-ID", bad)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if seen == bad || len(seen) != 36 {
			t.Errorf("expected a generated UUID for %q, got %q", bad, seen)
		}
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeadersMiddleware()(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(mark("a"), mark("b"), mark("c"))(okHandler).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, "") != "abc" {
		t.Errorf("order = %v, want a b c", order)
	}
}

func TestLoggingResponseWriter_Flushes(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	var w http.ResponseWriter = rw
	f, ok := w.(http.Flusher)
	if !ok {
		t.Fatal("wrapped writer must implement http.Flusher for SSE")
	}
	rw.Write([]byte("data: x\n\n"))
	f.Flush()

	if !rec.Flushed {
		t.Error("Flush was not forwarded")
	}
	if rw.bytes != 9 {
		t.Errorf("bytes = %d, want 9", rw.bytes)
	}
}

// =============================================================================
// CLIENT IP TESTS
// =============================================================================

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct", "203.0.113.5:4000", "", "", "203.0.113.5"},
		{"untrusted peer spoofing", "203.0.113.5:4000", "1.1.1.1", "", "203.0.113.5"},
		{"trusted proxy xff", "10.0.0.2:4000", "198.51.100.7, 10.0.0.2", "", "198.51.100.7"},
		{"trusted proxy xri", "127.0.0.1:4000", "", "198.51.100.8", "198.51.100.8"},
		{"trusted proxy garbage", "127.0.0.1:4000", "not-an-ip", "", "127.0.0.1"},
		{"ipv6", "[2001:db8::1]:4000", "", "", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
