// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export saves, copies and renders documented source.
//
// # Key Types
//
//   - Document: the original file, its documented version and the style used
//   - Exporter: renders a Document in one Format
//   - Options: output directory and post-export behavior
//
// # Supported Formats
//
//   - py: the documented source, named documented_<file>
//   - patch: a unified diff against the original
//   - html: a self-contained diff report for browsers
//   - json: the rendered diff lines with counts
//
// # Usage
//
//	doc := &export.Document{Name: "utils.py", Original: src, Documented: out}
//	path, err := export.ExportToFile(doc, export.NewSourceExporter(), opts)
//
// Copy the documented text to the system clipboard:
//
//	err := export.Copy(out)
package export
