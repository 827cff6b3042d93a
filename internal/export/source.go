// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"github.com/Navyasridurga/docstring/internal/diff"
)

// =============================================================================
// SOURCE EXPORTER
// =============================================================================

// SourceExporter writes the documented source as is.
type SourceExporter struct{}

// NewSourceExporter creates a new source exporter.
func NewSourceExporter() *SourceExporter {
	return &SourceExporter{}
}

// Export returns the documented text.
func (e *SourceExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return []byte(doc.Documented), nil
}

// FileExtension keeps the original extension.
func (e *SourceExporter) FileExtension() string {
	return ""
}

// MimeType returns the MIME type for Python source.
func (e *SourceExporter) MimeType() string {
	return "text/x-python"
}

// =============================================================================
// PATCH EXPORTER
// =============================================================================

// PatchExporter writes a unified diff from the original to the documented
// source, suitable for git apply or patch -p1.
type PatchExporter struct{}

// NewPatchExporter creates a new patch exporter.
func NewPatchExporter() *PatchExporter {
	return &PatchExporter{}
}

// Export returns the unified diff. Identical texts give an empty patch.
func (e *PatchExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	name := doc.Name
	if name == "" {
		name = DefaultName
	}
	return []byte(diff.Unified("a/"+name, "b/"+name, doc.Original, doc.Documented)), nil
}

// FileExtension returns the file extension for patches.
func (e *PatchExporter) FileExtension() string {
	return ".patch"
}

// MimeType returns the MIME type for patches.
func (e *PatchExporter) MimeType() string {
	return "text/x-diff"
}
