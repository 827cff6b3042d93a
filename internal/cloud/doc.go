// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the client for the OpenAI-compatible AI gateway
// that generates docstrings.
//
// The gateway exposes a streaming /chat/completions endpoint. This package
// opens that stream, maps HTTP failures onto sentinel errors, and decodes
// the Server-Sent Events that carry each content fragment. The same
// decoder reads the docgen server's own stream, which re-emits chunks in
// the gateway's format.
//
// # Key Types
//
//   - GatewayClient: HTTP client for the gateway with bearer auth and retry
//   - ChatMessage: Chat message in the OpenAI wire format
//   - Stream: Open streaming response, read with Next
//   - SSEReader: Server-Sent Events parser
//
// # Usage
//
// Open a stream and read fragments until io.EOF:
//
//	client := cloud.NewGatewayClient(apiKey)
//	s, err := client.OpenStream(ctx, []cloud.ChatMessage{
//	    cloud.NewSystemMessage(system),
//	    cloud.NewUserMessage(prompt),
//	})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	for {
//	    chunk, err := s.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
//
// # Security
//
// API keys are never logged. Only a short SHA-256 fingerprint appears in
// log records.
package cloud
