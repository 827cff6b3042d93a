// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/Navyasridurga/docstring/internal/diff"
	"github.com/Navyasridurga/docstring/internal/ui/styles"
	"github.com/Navyasridurga/docstring/internal/util"
)

// =============================================================================
// DIFF VIEWER
// =============================================================================

// DiffViewer displays the line diff between an original and a modified text.
type DiffViewer struct {
	lines []diff.DisplayLine
	stats diff.DiffStats
	width int
	theme *styles.Theme
}

// NewDiffViewer computes the diff of original against modified.
func NewDiffViewer(theme *styles.Theme, original, modified string) *DiffViewer {
	script := diff.Compute(original, modified)
	return &DiffViewer{
		lines: diff.Render(script),
		stats: diff.Stats(script),
		width: 80,
		theme: theme,
	}
}

// SetWidth sets the width lines are padded or truncated to.
func (dv *DiffViewer) SetWidth(width int) {
	dv.width = width
}

// Lines returns the rendered display lines.
func (dv *DiffViewer) Lines() []diff.DisplayLine {
	return dv.lines
}

// Stats returns the line counts of the diff.
func (dv *DiffViewer) Stats() diff.DiffStats {
	return dv.stats
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the stats line followed by every diff line.
func (dv *DiffViewer) View() string {
	var content strings.Builder
	content.WriteString(dv.renderStats())
	content.WriteString("\n\n")
	gutter := dv.gutterWidth()
	for i, line := range dv.lines {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(dv.renderLine(line, gutter))
	}
	return content.String()
}

// renderStats renders the addition and deletion counts.
func (dv *DiffViewer) renderStats() string {
	if dv.stats.Additions == 0 && dv.stats.Deletions == 0 {
		return dv.theme.Muted.Render("No changes")
	}

	parts := []string{dv.theme.Muted.Render("Modified")}
	if dv.stats.Additions > 0 {
		parts = append(parts, dv.theme.Success.Render(fmt.Sprintf("+%d", dv.stats.Additions)))
	}
	if dv.stats.Deletions > 0 {
		parts = append(parts, dv.theme.Error.Render(fmt.Sprintf("-%d", dv.stats.Deletions)))
	}

	lineText := "lines"
	if dv.stats.Additions+dv.stats.Deletions == 1 {
		lineText = "line"
	}
	parts = append(parts, dv.theme.Muted.Render(lineText))
	return strings.Join(parts, " ")
}

// renderLine renders one line as gutter, marker and text. Added and removed
// lines are padded so their background spans the full width.
func (dv *DiffViewer) renderLine(line diff.DisplayLine, gutter int) string {
	number := strings.Repeat(" ", gutter)
	if line.HasNumber() {
		number = fmt.Sprintf("%*d", gutter, line.Number)
	}

	body := line.Kind.Prefix() + " " + util.ExpandTabs(line.Text, tabWidth)
	if avail := dv.width - gutter - 1; avail > 0 {
		body = util.Truncate(body, avail)
		if line.Kind != diff.LineContext {
			body = util.PadRight(body, avail)
		}
	}

	style := dv.theme.DiffContext
	switch line.Kind {
	case diff.LineAdded:
		style = dv.theme.DiffAdded
	case diff.LineRemoved:
		style = dv.theme.DiffRemoved
	}

	return dv.theme.LineNumber.Render(number) + " " + style.Render(body)
}

func (dv *DiffViewer) gutterWidth() int {
	width := 1
	for _, l := range dv.lines {
		if w := len(fmt.Sprint(l.Number)); w > width {
			width = w
		}
	}
	return width
}
