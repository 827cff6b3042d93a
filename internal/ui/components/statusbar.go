// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Navyasridurga/docstring/internal/session"
	"github.com/Navyasridurga/docstring/internal/ui/styles"
	"github.com/Navyasridurga/docstring/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusIcon returns the ASCII indicator for a session state.
func StatusIcon(state session.State) string {
	switch state {
	case session.StateStreaming:
		return "~"
	case session.StateDone:
		return "[OK]"
	case session.StateFailed:
		return "[ERR]"
	case session.StateCancelled:
		return "[-]"
	default:
		return "[ ]"
	}
}

// StatusBar is the bottom line of the generate view.
type StatusBar struct {
	State    session.State
	Duration time.Duration
	Lines    int    // Lines of output so far
	Notice   string // Last copy/save result or error message
	IsError  bool   // Notice is an error
	Hints    string // Rendered key hints
	Width    int
	theme    *styles.Theme
}

// NewStatusBar creates an idle status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		State: session.StateIdle,
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetNotice sets the message shown after the state.
func (s *StatusBar) SetNotice(msg string, isError bool) {
	s.Notice = msg
	s.IsError = isError
}

// View renders the status bar.
func (s *StatusBar) View() string {
	stateStyle := s.theme.Muted
	switch s.State {
	case session.StateStreaming:
		stateStyle = s.theme.Warning
	case session.StateDone:
		stateStyle = s.theme.Success
	case session.StateFailed:
		stateStyle = s.theme.Error
	}

	parts := []string{stateStyle.Render(StatusIcon(s.State) + " " + s.State.String())}
	if s.Lines > 0 {
		parts = append(parts, s.theme.Muted.Render(fmt.Sprintf("%d lines", s.Lines)))
	}
	if s.Duration > 0 {
		parts = append(parts, s.theme.Muted.Render(session.FormatDuration(s.Duration)))
	}
	left := strings.Join(parts, s.theme.Muted.Render(" | "))

	if s.Notice != "" {
		noticeStyle := s.theme.Success
		if s.IsError {
			noticeStyle = s.theme.Error
		}
		room := s.Width - lipgloss.Width(left) - lipgloss.Width(s.Hints) - 6
		if room > 8 {
			left += "  " + noticeStyle.Render(util.Truncate(s.Notice, room))
		}
	}

	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(s.Hints) - 2
	if gap < 1 {
		gap = 1
	}
	return s.theme.StatusBar.Render(left + strings.Repeat(" ", gap) + s.Hints)
}
