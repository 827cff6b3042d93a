// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session runs a single docstring generation against the docgen
// endpoint and delivers its progress through callbacks.
//
// A Session moves through a small state machine:
//
//	Idle -> Streaming -> Done | Failed | Cancelled
//
// Every callback runs on the session's own goroutine, in stream order.
// OnDelta always receives the whole cleaned text so far, because fence
// stripping may rewrite earlier characters once later fragments arrive.
// Exactly one of OnDone or OnError fires, unless the session is cancelled,
// in which case neither does.
//
// # Key Types
//
//   - Client: Issues generation requests to an endpoint URL
//   - Session: One in-flight generation
//   - Callbacks: OnDelta, OnDone and OnError hooks
//   - Error: Classified failure with a human-readable message
//
// # Usage
//
//	client := session.NewClient("http://localhost:8787/generate-docstrings")
//	s := client.Run(ctx, session.Request{Code: code, Style: docstyle.Google}, session.Callbacks{
//	    OnDelta: func(text string) { render(text) },
//	    OnDone:  func() { fmt.Println("done") },
//	    OnError: func(msg string) { fmt.Println(msg) },
//	})
//	s.Wait()
//
// Starting a new session while one is running is the caller's concern:
// call Cancel on the old one to supersede it.
package session
