// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package internal provides integration tests for the complete docgen system.
//
// These tests run the real pieces together against a fake AI gateway:
// the endpoint server, generation sessions, uploads, diffs, exports and
// the command line.
package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Navyasridurga/docstring/internal/cli"
	"github.com/Navyasridurga/docstring/internal/cloud"
	"github.com/Navyasridurga/docstring/internal/config"
	"github.com/Navyasridurga/docstring/internal/diff"
	"github.com/Navyasridurga/docstring/internal/docstyle"
	"github.com/Navyasridurga/docstring/internal/export"
	"github.com/Navyasridurga/docstring/internal/server"
	"github.com/Navyasridurga/docstring/internal/session"
	"github.com/Navyasridurga/docstring/internal/upload"
)

// =============================================================================
// TEST UTILITIES
// =============================================================================

const (
	sourceCode     = "def f():\n    pass\n"
	documentedCode = "def f():\n    \"\"\"Do f.\"\"\"\n    pass\n"
)

var discard = log.New(io.Discard, "", 0)

// fakeGateway is an OpenAI-compatible chat completions endpoint that
// answers every request with a fenced copy of documentedCode, split into
// small fragments.
type fakeGateway struct {
	mu       sync.Mutex
	requests []cloud.ChatRequest
	release  chan struct{} // When set, streaming waits for it to close
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req cloud.ChatRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	flusher, _ := w.(http.Flusher)

	reply := "```python\n" + documentedCode + "```"
	for i := 0; i < len(reply); i += 7 {
		end := min(i+7, len(reply))
		data, _ := json.Marshal(cloud.ContentChunk(reply[i:end]))
		fmt.Fprintf(w, "data: %s\n\n", data)
		if flusher != nil {
			flusher.Flush()
		}
		if i == 0 && g.release != nil {
			select {
			case <-g.release:
			case <-r.Context().Done():
				return
			}
		}
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func (g *fakeGateway) received() []cloud.ChatRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]cloud.ChatRequest(nil), g.requests...)
}

// startStack runs a fake gateway and a docgen server in front of it and
// returns the generation endpoint URL.
func startStack(t *testing.T, gw *fakeGateway) (serverURL string) {
	t.Helper()
	upstream := httptest.NewServer(gw)
	t.Cleanup(upstream.Close)

	cfg := config.Default()
	cfg.Server.RateLimitRPS = 0
	client := cloud.NewGatewayClient("test-key").
		WithBaseURL(upstream.URL).
		WithMaxRetries(0).
		WithLogger(discard)

	srv := httptest.NewServer(server.NewServer(cfg, client).WithLogger(discard).Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func createTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return path
}

// =============================================================================
// END-TO-END GENERATION
// =============================================================================

// TestEndToEndGeneration streams through server and gateway and checks
// the prompt the model saw and the cleaned result.
func TestEndToEndGeneration(t *testing.T) {
	gw := &fakeGateway{}
	base := startStack(t, gw)

	var deltas []string
	var done bool
	sess := session.NewClient(base+"/generate-docstrings").Run(context.Background(),
		session.Request{Code: sourceCode, Style: docstyle.NumPy},
		session.Callbacks{
			OnDelta: func(text string) { deltas = append(deltas, text) },
			OnDone:  func() { done = true },
		})
	sess.Wait()

	require.Equal(t, session.StateDone, sess.State(), "err: %v", sess.Err())
	assert.True(t, done)
	assert.Equal(t, documentedCode, sess.Output())
	require.NotEmpty(t, deltas)
	assert.Equal(t, documentedCode, deltas[len(deltas)-1])
	for _, d := range deltas {
		assert.NotContains(t, d, "```", "fence leaked into a delta")
	}

	reqs := gw.received()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Messages, 2)
	assert.Equal(t, docstyle.SystemPrompt(docstyle.NumPy), reqs[0].Messages[0].Content)
	assert.Equal(t, docstyle.UserPrompt(sourceCode), reqs[0].Messages[1].Content)
	assert.True(t, reqs[0].Stream)
}

// TestUploadGenerateDiffExport follows a file from upload to saved result.
func TestUploadGenerateDiffExport(t *testing.T) {
	base := startStack(t, &fakeGateway{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "calc.py")
	require.NoError(t, err)
	_, _ = part.Write([]byte("\xef\xbb\xbf" + sourceCode))
	require.NoError(t, mw.Close())

	resp, err := http.Post(base+"/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var file upload.File
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&file))
	assert.Equal(t, sourceCode, file.Content, "BOM should be stripped")

	sess := session.NewClient(base+"/generate-docstrings").Run(context.Background(),
		session.Request{Code: file.Content, Style: docstyle.Google}, session.Callbacks{})
	sess.Wait()
	require.Equal(t, session.StateDone, sess.State())

	stats := diff.Stats(diff.Compute(file.Content, sess.Output()))
	assert.Equal(t, diff.DiffStats{Additions: 1, Deletions: 0, Unchanged: 3}, stats)

	dir := t.TempDir()
	path, err := export.Save(dir, file.Name, sess.Output())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "documented_calc.py"), path)
	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, documentedCode, string(saved))
}

// TestServerDiffMatchesEngine compares POST /diff with the local engine.
func TestServerDiffMatchesEngine(t *testing.T) {
	base := startStack(t, &fakeGateway{})

	data, _ := json.Marshal(server.DiffRequest{Original: sourceCode, Modified: documentedCode})
	resp, err := http.Post(base+"/diff", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Lines []struct {
			Number int    `json:"number"`
			Kind   string `json:"kind"`
			Text   string `json:"text"`
		} `json:"lines"`
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &got))

	want := diff.Render(diff.Compute(sourceCode, documentedCode))
	require.Len(t, got.Lines, len(want))
	for i := range want {
		assert.Equal(t, want[i].Number, got.Lines[i].Number)
		assert.Equal(t, want[i].Text, got.Lines[i].Text)
		assert.Equal(t, want[i].Kind.String(), got.Lines[i].Kind)
	}
}

// TestCLIAgainstServer runs docgen generate --diff through the stack.
func TestCLIAgainstServer(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DOCGEN_ENDPOINT", "")
	t.Setenv("DOCGEN_STYLE", "")
	cli.DisableColors()

	base := startStack(t, &fakeGateway{})
	file := createTempFile(t, "calc.py", sourceCode)

	var stdout, stderr bytes.Buffer
	app := &cli.App{Stdin: strings.NewReader(""), Stdout: &stdout, Stderr: &stderr}
	err := app.Run(context.Background(), []string{
		"generate", file, "--endpoint", base + "/generate-docstrings", "--diff", "--plain",
	})

	require.NoError(t, err, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), `+ 2      """Do f."""`)
	assert.Contains(t, stdout.String(), "  3      pass")
}
