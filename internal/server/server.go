// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Navyasridurga/docstring/internal/cloud"
	"github.com/Navyasridurga/docstring/internal/config"
)

// ============================================================================
// CONSTANTS
// ============================================================================

// Version is the server version.
const Version = "1.0.0"

// Error messages returned to clients. They are shown to users verbatim.
const (
	MsgCodeRequired   = "Python code is required"
	MsgRateLimited    = "Rate limit exceeded. Please try again in a moment."
	MsgQuotaExhausted = "Usage limit reached. Please add credits to continue."
	MsgService        = "AI service error"
	MsgNotConfigured  = "AI gateway API key is not configured"
	MsgBodyTooLarge   = "Request body too large"
	MsgInvalidJSON    = "Invalid JSON body"
)

// Gateway opens completion streams upstream. *cloud.GatewayClient
// implements it.
type Gateway interface {
	OpenStream(ctx context.Context, messages []cloud.ChatMessage) (*cloud.Stream, error)
	IsConfigured() bool
	Model() string
}

// ============================================================================
// SERVER STATS
// ============================================================================

// ServerStats counts generation requests.
type ServerStats struct {
	Generations   atomic.Int64
	Failures      atomic.Int64
	Uploads       atomic.Int64
	StreamedBytes atomic.Int64
	StartTime     time.Time
}

// NewServerStats creates stats starting now.
func NewServerStats() *ServerStats {
	return &ServerStats{StartTime: time.Now()}
}

// Uptime returns how long the server has been running.
func (s *ServerStats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the docstring generation HTTP server.
type Server struct {
	cfg     config.ServerConfig
	gateway Gateway
	router  *http.ServeMux
	server  *http.Server
	handler http.Handler
	limiter *RateLimiter
	stats   *ServerStats
	logger  *log.Logger

	readTimeout  time.Duration
	writeTimeout time.Duration

	mu sync.Mutex
}

// NewServer creates a server from cfg that generates through gateway.
func NewServer(cfg *config.Config, gateway Gateway) *Server {
	s := &Server{
		cfg:          cfg.Server,
		gateway:      gateway,
		router:       http.NewServeMux(),
		stats:        NewServerStats(),
		logger:       log.Default(),
		readTimeout:  cfg.ReadTimeout(),
		writeTimeout: cfg.WriteTimeout(),
	}
	if s.cfg.RateLimitRPS > 0 {
		s.limiter = NewRateLimiter(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst)
	}

	s.setupRoutes()
	s.handler = s.buildHandler()
	return s
}

// WithLogger sets the logger for request and stream records.
func (s *Server) WithLogger(logger *log.Logger) *Server {
	if logger != nil {
		s.logger = logger
		s.handler = s.buildHandler()
	}
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// Stats returns the live server counters.
func (s *Server) Stats() *ServerStats {
	return s.stats
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ============================================================================
// ROUTES
// ============================================================================

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /generate-docstrings", s.handleGenerate)
	s.router.HandleFunc("OPTIONS /generate-docstrings", handlePreflight)

	s.router.HandleFunc("POST /upload", s.handleUpload)
	s.router.HandleFunc("POST /diff", s.handleDiff)

	s.router.HandleFunc("GET /styles", s.handleStyles)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

func (s *Server) buildHandler() http.Handler {
	cors := DefaultCORSConfig()
	if len(s.cfg.AllowedOrigins) > 0 {
		cors.AllowedOrigins = s.cfg.AllowedOrigins
	}

	middlewares := []func(http.Handler) http.Handler{
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		RequestIDMiddleware(),
		LoggingMiddleware(s.logger),
		CORSMiddleware(cors),
	}
	if s.limiter != nil {
		middlewares = append(middlewares, RateLimitMiddleware(s.limiter, s.logger))
	}
	return Chain(middlewares...)(s.router)
}

// handlePreflight answers OPTIONS when CORS middleware is not in front.
func handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on the configured address and serves until Shutdown.
// It returns http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.readTimeout,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          s.logger,
	}
	srv := s.server
	s.mu.Unlock()

	model := ""
	if s.gateway != nil {
		model = s.gateway.Model()
	}
	s.logger.Printf("SERVER_START | addr=%s version=%s model=%s", ln.Addr(), Version, model)
	return srv.Serve(ln)
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// streams until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.logger.Printf("SERVER_SHUTDOWN | generations=%d failures=%d uptime=%v",
		s.stats.Generations.Load(), s.stats.Failures.Load(), s.stats.Uptime().Round(time.Second))
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorResponse is the body of every error reply.
type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
