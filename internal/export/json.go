// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/Navyasridurga/docstring/internal/diff"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports the rendered diff and the documented text as JSON.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Report is the JSON document written by JSONExporter.
type Report struct {
	Filename    string             `json:"filename"`
	Style       string             `json:"style"`
	GeneratedAt *time.Time         `json:"generated_at,omitempty"`
	Added       int                `json:"added"`
	Removed     int                `json:"removed"`
	Documented  string             `json:"documented"`
	Lines       []diff.DisplayLine `json:"lines"`
}

// NewReport builds the report for a document.
func NewReport(doc *Document) *Report {
	script := doc.Script()
	stats := diff.Stats(script)

	r := &Report{
		Filename:   DownloadName(doc.Name),
		Style:      doc.Style.String(),
		Added:      stats.Additions,
		Removed:    stats.Deletions,
		Documented: doc.Documented,
		Lines:      diff.Render(script),
	}
	if !doc.GeneratedAt.IsZero() {
		t := doc.GeneratedAt.UTC()
		r.GeneratedAt = &t
	}
	return r
}

// Export converts a document to indented JSON.
func (e *JSONExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return json.MarshalIndent(NewReport(doc), "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
