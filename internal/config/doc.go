// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for docgen.
//
// Supports TOML and JSON configuration files, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: Listen address, CORS and rate limits for docgen serve
//   - GatewayConfig: Upstream AI gateway URL, key and model
//   - ClientConfig: Endpoint and defaults for docgen generate
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (DOCGEN_*, LOVABLE_API_KEY, NO_COLOR)
//   - The file passed with --config, else ~/.docgen/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	addr := cfg.Server.Addr
package config
