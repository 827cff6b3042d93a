// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Navyasridurga/docstring/internal/docstyle"
	"github.com/Navyasridurga/docstring/internal/ui/styles"
	"github.com/Navyasridurga/docstring/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar of the generate view.
type Header struct {
	FileName string
	Style    docstyle.Style
	Endpoint string
	ShowDiff bool
	Width    int
	theme    *styles.Theme
}

// NewHeader creates a header for the given file and style.
func NewHeader(theme *styles.Theme, fileName string, style docstyle.Style) *Header {
	return &Header{
		FileName: fileName,
		Style:    style,
		Width:    80,
		theme:    theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// View renders the header.
func (h *Header) View() string {
	name := h.FileName
	if name == "" {
		name = "untitled.py"
	}

	mode := "output"
	if h.ShowDiff {
		mode = "diff"
	}

	left := h.theme.HeaderTitle.Render(name) + "  " + h.theme.Badge.Render(h.Style.Label())
	right := h.theme.HeaderSubtitle.Render(mode)

	// Border and padding take four columns.
	inner := h.Width - 4
	if inner < 20 {
		inner = 20
	}

	if h.Endpoint != "" {
		room := inner - lipgloss.Width(left) - lipgloss.Width(right) - 3
		if room > 10 {
			right = h.theme.Muted.Render(util.Truncate(h.Endpoint, room)) + "  " + right
		}
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return h.theme.Header.Width(inner + 2).Render(left + strings.Repeat(" ", gap) + right)
}
