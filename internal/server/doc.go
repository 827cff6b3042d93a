// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the docstring generation HTTP endpoint.
//
// # Endpoints
//
//   - POST /generate-docstrings - stream documented code as SSE chunks
//   - POST /upload              - validate and decode a Python file
//   - POST /diff                - line diff between two texts
//   - GET  /styles              - supported docstring styles
//   - GET  /health              - health check
//
// # Middleware
//
//   - Panic recovery
//   - Security headers (X-Content-Type-Options, X-Frame-Options, etc.)
//   - Request IDs (X-Request-ID, generated when absent)
//   - Request logging
//   - CORS with an origin allowlist
//   - Per-client token bucket rate limiting
//
// # Usage
//
//	gw := cloud.NewGatewayClient(cfg.Gateway.APIKey)
//	srv := server.NewServer(cfg, gw)
//	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
//		log.Fatal(err)
//	}
package server
