// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import (
	"fmt"
	"strings"

	udiff "github.com/aymanbagabas/go-udiff"
)

// =============================================================================
// DISPLAY LINE TYPES
// =============================================================================

// LineKind represents the display classification of a diff line.
type LineKind int

const (
	// LineContext represents unchanged context lines
	LineContext LineKind = iota
	// LineAdded represents added lines
	LineAdded
	// LineRemoved represents removed lines
	LineRemoved
)

// String returns the string representation of a line kind.
func (k LineKind) String() string {
	switch k {
	case LineContext:
		return "context"
	case LineAdded:
		return "added"
	case LineRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Prefix returns the gutter marker for this line kind.
func (k LineKind) Prefix() string {
	switch k {
	case LineAdded:
		return "+"
	case LineRemoved:
		return "-"
	default:
		return " "
	}
}

// MarshalText encodes the kind by name so JSON clients see "added" etc.
func (k LineKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DisplayLine is a single line of the rendered diff.
type DisplayLine struct {
	Number int      `json:"number,omitempty"` // Line number in the modified text (0 for removed lines)
	Kind   LineKind `json:"kind"`
	Text   string   `json:"text"`
}

// HasNumber reports whether the line carries a gutter number.
func (l DisplayLine) HasNumber() bool {
	return l.Number > 0
}

// =============================================================================
// RENDERING
// =============================================================================

// Render flattens an edit script into display lines. Unchanged and added
// lines are numbered by their position in the modified text; removed lines
// carry no number. The script is not modified.
func Render(script Script) []DisplayLine {
	total := 0
	for _, op := range script {
		total += len(op.Lines)
	}

	lines := make([]DisplayLine, 0, total)
	number := 0
	for _, op := range script {
		kind := lineKindOf(op.Kind)
		for _, text := range op.Lines {
			line := DisplayLine{Kind: kind, Text: text}
			if kind != LineRemoved {
				number++
				line.Number = number
			}
			lines = append(lines, line)
		}
	}
	return lines
}

func lineKindOf(k OpKind) LineKind {
	switch k {
	case OpAdded:
		return LineAdded
	case OpRemoved:
		return LineRemoved
	default:
		return LineContext
	}
}

// =============================================================================
// DIFF STATS
// =============================================================================

// DiffStats holds statistics about an edit script.
type DiffStats struct {
	Additions int `json:"additions"` // Number of added lines
	Deletions int `json:"deletions"` // Number of removed lines
	Unchanged int `json:"unchanged"` // Number of unchanged lines
}

// Stats counts the lines of each kind in the script.
func Stats(script Script) DiffStats {
	var s DiffStats
	for _, op := range script {
		switch op.Kind {
		case OpAdded:
			s.Additions += len(op.Lines)
		case OpRemoved:
			s.Deletions += len(op.Lines)
		default:
			s.Unchanged += len(op.Lines)
		}
	}
	return s
}

// Summary returns a human-readable summary of the stats.
func (s DiffStats) Summary() string {
	if s.Additions == 0 && s.Deletions == 0 {
		return "No changes"
	}

	parts := []string{"Modified"}
	if s.Additions > 0 {
		parts = append(parts, fmt.Sprintf("+%d", s.Additions))
	}
	if s.Deletions > 0 {
		parts = append(parts, fmt.Sprintf("-%d", s.Deletions))
	}
	return strings.Join(parts, " ")
}

// =============================================================================
// UNIFIED DIFF FORMAT
// =============================================================================

// Unified returns a standard unified patch between original and modified.
// Identical inputs produce an empty string.
func Unified(oldLabel, newLabel, original, modified string) string {
	return udiff.Unified(oldLabel, newLabel, original, modified)
}

// FormatPlain renders display lines as text with a marker and a
// right-aligned number gutter, one line per display line.
func FormatPlain(lines []DisplayLine) string {
	width := 1
	for _, l := range lines {
		if w := len(fmt.Sprint(l.Number)); w > width {
			width = w
		}
	}

	var sb strings.Builder
	for _, l := range lines {
		num := ""
		if l.HasNumber() {
			num = fmt.Sprint(l.Number)
		}
		fmt.Fprintf(&sb, "%s %*s  %s\n", l.Kind.Prefix(), width, num, l.Text)
	}
	return sb.String()
}
