// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generate

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/Navyasridurga/docstring/internal/session"
	"github.com/Navyasridurga/docstring/internal/ui/components"
)

// Rows taken by the header (bordered), the progress line and the status bar.
const chromeHeight = 3 + 1 + 1

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.header.SetWidth(width)
	m.status.SetWidth(width)
	m.help.Width = width

	bodyHeight := height - chromeHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(width, bodyHeight)
		// "d" toggles the diff view.
		m.viewport.KeyMap.HalfPageDown = key.NewBinding(key.WithKeys("ctrl+d"))
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = bodyHeight
	}
	m.refresh()
}

// refresh re-renders the body into the viewport.
func (m *Model) refresh() {
	m.status.State = m.state
	m.status.Lines = countLines(m.output)
	m.status.Hints = m.help.ShortHelpView(m.keys.ShortHelp())

	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderBody())
	if m.state == session.StateStreaming && !m.showDiff {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderBody() string {
	if m.output == "" {
		switch m.state {
		case session.StateStreaming:
			return m.theme.Placeholder.Render("Waiting for the first docstrings...")
		case session.StateFailed:
			return m.theme.Error.Render(m.status.Notice) + "\n\n" +
				m.theme.Placeholder.Render("Press r to try again.")
		default:
			return m.theme.Placeholder.Render("Press r to generate docstrings.")
		}
	}

	if m.showDiff {
		dv := components.NewDiffViewer(m.theme, m.opts.File.Content, m.output)
		dv.SetWidth(m.width)
		return dv.View()
	}
	return components.NewCodeView(m.theme, components.DefaultLanguage, m.output).Render()
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(s, "\n"), "\n") + 1
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the generate view.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	progress := m.spinner.View()
	if progress == "" {
		progress = m.theme.Muted.Render(m.opts.Style.Label())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		progress,
		m.viewport.View(),
		m.status.View(),
	)
}
