// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"github.com/Navyasridurga/docstring/internal/diff"
	"github.com/Navyasridurga/docstring/internal/ui/styles"
)

func plainTheme() *styles.Theme {
	return styles.NewThemeWithProfile(termenv.Ascii, true)
}

func TestNewDiffViewer(t *testing.T) {
	dv := NewDiffViewer(plainTheme(), "a\nb", "a\nx\nb")

	lines := dv.Lines()
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[1].Kind != diff.LineAdded || lines[1].Text != "x" || lines[1].Number != 2 {
		t.Errorf("unexpected added line: %+v", lines[1])
	}

	stats := dv.Stats()
	if stats.Additions != 1 || stats.Deletions != 0 || stats.Unchanged != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestDiffViewer_View(t *testing.T) {
	dv := NewDiffViewer(plainTheme(), "def f():\n    pass", "def f():\n    \"\"\"Do f.\"\"\"\n    pass")
	dv.SetWidth(60)

	view := dv.View()

	if !strings.Contains(view, "Modified") || !strings.Contains(view, "+1") {
		t.Errorf("stats missing from view:\n%s", view)
	}
	if !strings.Contains(view, `+     """Do f."""`) {
		t.Errorf("added line missing from view:\n%s", view)
	}
	if !strings.Contains(view, "1   def f():") {
		t.Errorf("numbered context line missing from view:\n%s", view)
	}
}

func TestDiffViewer_RemovedLineHasNoNumber(t *testing.T) {
	dv := NewDiffViewer(plainTheme(), "old\nsame", "same")
	dv.SetWidth(0)

	rows := strings.Split(dv.View(), "\n")
	// Stats, blank line, then the diff.
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4:\n%s", len(rows), dv.View())
	}
	if rows[2] != "  - old" {
		t.Errorf("removed row = %q, want %q", rows[2], "  - old")
	}
	if rows[3] != "1   same" {
		t.Errorf("context row = %q, want %q", rows[3], "1   same")
	}
}

func TestDiffViewer_NoChanges(t *testing.T) {
	dv := NewDiffViewer(plainTheme(), "x = 1", "x = 1")

	if !strings.HasPrefix(dv.View(), "No changes") {
		t.Errorf("identical inputs should report no changes:\n%s", dv.View())
	}
}

func TestDiffViewer_TruncatesLongLines(t *testing.T) {
	dv := NewDiffViewer(plainTheme(), "", strings.Repeat("y", 200))
	dv.SetWidth(40)

	for _, row := range strings.Split(dv.View(), "\n") {
		if len(row) > 40 {
			t.Errorf("row wider than 40 columns: %q", row)
		}
	}
}
