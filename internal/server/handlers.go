// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Navyasridurga/docstring/internal/cloud"
	"github.com/Navyasridurga/docstring/internal/diff"
	"github.com/Navyasridurga/docstring/internal/docstyle"
	"github.com/Navyasridurga/docstring/internal/upload"
)

// maxUploadBody leaves room for multipart framing around a file that is
// itself over the limit, so oversize files are reported as such.
const maxUploadBody = 4 * upload.MaxSize

// ============================================================================
// GENERATE HANDLER
// ============================================================================

// GenerateRequest is the body of POST /generate-docstrings. Code stays raw
// so a non-string value is reported like a missing one.
type GenerateRequest struct {
	Code  json.RawMessage `json:"code"`
	Style string          `json:"style"`
}

// handleGenerate handles POST /generate-docstrings.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id := RequestID(r.Context())

	var req GenerateRequest
	if status, msg := s.decodeBody(w, r, s.cfg.MaxBodyBytes, &req); status != 0 {
		writeError(w, status, msg)
		return
	}

	var code string
	if err := json.Unmarshal(req.Code, &code); err != nil || strings.TrimSpace(code) == "" {
		writeError(w, http.StatusBadRequest, MsgCodeRequired)
		return
	}

	style, err := docstyle.Parse(req.Style)
	if err != nil {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Unsupported docstring style %q. Choose one of: %s", req.Style, strings.Join(docstyle.Names(), ", ")))
		return
	}

	if s.gateway == nil || !s.gateway.IsConfigured() {
		s.logger.Printf("GENERATE_REJECTED | id=%s error=%v", id, cloud.ErrNotConfigured)
		writeError(w, http.StatusInternalServerError, MsgNotConfigured)
		return
	}

	s.logger.Printf("GENERATE_START | id=%s style=%s bytes=%d", id, style, len(code))

	messages := []cloud.ChatMessage{
		cloud.NewSystemMessage(docstyle.SystemPrompt(style)),
		cloud.NewUserMessage(docstyle.UserPrompt(code)),
	}

	stream, err := s.gateway.OpenStream(r.Context(), messages)
	if err != nil {
		s.stats.Failures.Add(1)
		if r.Context().Err() != nil {
			s.logger.Printf("GENERATE_CLIENT_GONE | id=%s", id)
			return
		}
		status, msg := gatewayStatus(err)
		var rle *cloud.RateLimitError
		if errors.As(err, &rle) && rle.RetryAfter > 0 {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rle.RetryAfter.Seconds()+0.999)))
		}
		s.logger.Printf("GATEWAY_ERROR | id=%s status=%d error=%v", id, status, err)
		writeError(w, status, msg)
		return
	}
	defer stream.Close()

	s.stats.Generations.Add(1)
	s.proxyStream(r.Context(), w, id, stream)
}

// gatewayStatus maps an upstream failure to the status and message sent
// to the client.
func gatewayStatus(err error) (int, string) {
	switch {
	case errors.Is(err, cloud.ErrRateLimited):
		return http.StatusTooManyRequests, MsgRateLimited
	case errors.Is(err, cloud.ErrInsufficientCredits):
		return http.StatusPaymentRequired, MsgQuotaExhausted
	case errors.Is(err, cloud.ErrNotConfigured):
		return http.StatusInternalServerError, MsgNotConfigured
	default:
		return http.StatusInternalServerError, MsgService
	}
}

// proxyStream re-emits upstream content as SSE chunks and ends with
// [DONE]. An upstream failure mid-stream is reported as one in-band error
// chunk in place of [DONE].
func (s *Server) proxyStream(ctx context.Context, w http.ResponseWriter, id string, stream *cloud.Stream) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	start := time.Now()
	var fragments int
	var total int64

	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			fmt.Fprint(w, "data: [DONE]\n\n")
			flusher.Flush()
			s.stats.StreamedBytes.Add(total)
			s.logger.Printf("GENERATE_DONE | id=%s fragments=%d bytes=%d duration=%v",
				id, fragments, total, time.Since(start).Round(time.Millisecond))
			return
		}
		if err != nil {
			s.stats.Failures.Add(1)
			if ctx.Err() != nil {
				s.logger.Printf("STREAM_CLIENT_GONE | id=%s fragments=%d", id, fragments)
				return
			}
			s.logger.Printf("STREAM_ERROR | id=%s fragments=%d error=%v", id, fragments, err)
			writeEvent(w, flusher, cloud.StreamChunk{Error: &cloud.ChunkError{Message: MsgService}})
			return
		}

		content := chunk.GetContent()
		if content == "" {
			continue
		}
		if err := writeEvent(w, flusher, cloud.ContentChunk(content)); err != nil {
			s.logger.Printf("STREAM_CLIENT_GONE | id=%s fragments=%d error=%v", id, fragments, err)
			return
		}
		fragments++
		total += int64(len(content))
	}
}

// writeEvent sends a single SSE data event.
func writeEvent(w http.ResponseWriter, flusher http.Flusher, chunk cloud.StreamChunk) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// decodeBody reads a JSON body of at most limit bytes. It returns a zero
// status on success.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v interface{}) (int, string) {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return http.StatusRequestEntityTooLarge, MsgBodyTooLarge
		}
		return http.StatusBadRequest, MsgInvalidJSON
	}
	return 0, ""
}

// ============================================================================
// UPLOAD HANDLER
// ============================================================================

// handleUpload handles POST /upload with a multipart "file" field.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error:  upload.ReasonTooLarge.Message(),
				Reason: upload.ReasonTooLarge.String(),
			})
			return
		}
		writeError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	f, err := upload.Read(header.Filename, header.Size, file)
	if err != nil {
		reason, _ := upload.ReasonOf(err)
		status := http.StatusBadRequest
		if reason == upload.ReasonTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		s.logger.Printf("UPLOAD_REJECTED | id=%s reason=%s error=%v", RequestID(r.Context()), reason, err)
		writeJSON(w, status, errorResponse{Error: reason.Message(), Reason: reason.String()})
		return
	}

	s.stats.Uploads.Add(1)
	writeJSON(w, http.StatusOK, f)
}

// ============================================================================
// DIFF HANDLER
// ============================================================================

// DiffRequest is the body of POST /diff.
type DiffRequest struct {
	Original string `json:"original"`
	Modified string `json:"modified"`
}

// DiffResponse is the reply of POST /diff.
type DiffResponse struct {
	Lines   []diff.DisplayLine `json:"lines"`
	Stats   diff.DiffStats     `json:"stats"`
	Unified string             `json:"unified"`
}

// handleDiff handles POST /diff.
func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	var req DiffRequest
	if status, msg := s.decodeBody(w, r, s.cfg.MaxBodyBytes, &req); status != 0 {
		writeError(w, status, msg)
		return
	}

	script := diff.Compute(req.Original, req.Modified)
	writeJSON(w, http.StatusOK, DiffResponse{
		Lines:   diff.Render(script),
		Stats:   diff.Stats(script),
		Unified: diff.Unified("original", "documented", req.Original, req.Modified),
	})
}

// ============================================================================
// STYLES AND HEALTH HANDLERS
// ============================================================================

// StyleInfo describes one docstring style.
type StyleInfo struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Example string `json:"example"`
	Default bool   `json:"default,omitempty"`
}

// handleStyles handles GET /styles.
func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	all := docstyle.All()
	styles := make([]StyleInfo, len(all))
	for i, st := range all {
		styles[i] = StyleInfo{
			Name:    st.String(),
			Label:   st.Label(),
			Example: st.Example(),
			Default: st == docstyle.Default,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"styles": styles})
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status             string `json:"status"`
	Version            string `json:"version"`
	UpstreamConfigured bool   `json:"upstream_configured"`
	Model              string `json:"model,omitempty"`
	Uptime             string `json:"uptime"`
	Generations        int64  `json:"generations"`
}

// handleHealth handles GET /health. The status is "degraded" when no
// gateway key is configured.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:      "ok",
		Version:     Version,
		Uptime:      s.stats.Uptime().Round(time.Second).String(),
		Generations: s.stats.Generations.Load(),
	}
	if s.gateway != nil {
		health.UpstreamConfigured = s.gateway.IsConfigured()
		health.Model = s.gateway.Model()
	}
	if !health.UpstreamConfigured {
		health.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, health)
}
