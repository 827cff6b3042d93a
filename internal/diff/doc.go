// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff provides line-level diff computation and display rendering.
//
// This package computes an edit script between an original and a modified
// text, and flattens that script into a display model with gutter numbering
// that matches the modified file.
//
// # Key Types
//
//   - OpKind: Kind of an edit run (unchanged, added, removed)
//   - EditOp: A contiguous run of lines sharing one kind
//   - Script: Ordered edit script
//   - DisplayLine: Single rendered line with optional line number
//
// # Usage
//
// Compute and render a diff between two strings:
//
//	script := diff.Compute(original, modified)
//	for _, line := range diff.Render(script) {
//		fmt.Println(line.Kind.Prefix(), line.Text)
//	}
//
// Produce a unified patch:
//
//	patch := diff.Unified("original.py", "documented.py", original, modified)
package diff
