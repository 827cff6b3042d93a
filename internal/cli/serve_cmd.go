// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve_cmd.go - The serve command: runs the generation endpoint.
package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Navyasridurga/docstring/internal/cloud"
	"github.com/Navyasridurga/docstring/internal/server"
)

// shutdownTimeout bounds how long in-flight streams may finish after a
// stop signal.
const shutdownTimeout = 10 * time.Second

func (a *App) runServe(ctx context.Context, args *Args) error {
	cfg, err := a.loadConfig(args)
	if err != nil {
		return err
	}
	if args.Addr != "" {
		cfg.Server.Addr = args.Addr
	}

	logger := log.New(a.Stderr, "", log.LstdFlags)

	gateway := cloud.NewGatewayClient(cfg.Gateway.APIKey).
		WithBaseURL(cfg.Gateway.URL).
		WithModel(cfg.Gateway.Model).
		WithTimeout(cfg.GatewayTimeout()).
		WithMaxRetries(cfg.Gateway.MaxRetries).
		WithLogger(logger)
	if !gateway.IsConfigured() {
		logger.Printf("SERVER_WARNING | gateway API key not set, generation requests will fail")
	}

	srv := server.NewServer(cfg, gateway).WithLogger(logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return &CommandError{Command: "serve", Reason: "listen on " + cfg.Server.Addr, Err: err}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return &CommandError{Command: "serve", Reason: "shutdown", Err: err}
	}
	return nil
}
