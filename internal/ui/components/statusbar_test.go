// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Navyasridurga/docstring/internal/session"
)

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		state session.State
		want  string
	}{
		{session.StateIdle, "[ ]"},
		{session.StateStreaming, "~"},
		{session.StateDone, "[OK]"},
		{session.StateFailed, "[ERR]"},
		{session.StateCancelled, "[-]"},
	}
	for _, tt := range tests {
		if got := StatusIcon(tt.state); got != tt.want {
			t.Errorf("StatusIcon(%v) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestStatusBar_View(t *testing.T) {
	sb := NewStatusBar(plainTheme())
	sb.SetWidth(80)
	sb.State = session.StateDone
	sb.Lines = 12
	sb.Duration = 1500 * time.Millisecond
	sb.Hints = "q quit"
	sb.SetNotice("Copied to clipboard", false)

	view := sb.View()
	for _, want := range []string{"[OK] done", "12 lines", "1s", "Copied to clipboard", "q quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("status bar missing %q: %q", want, view)
		}
	}
	if w := lipgloss.Width(view); w != 80 {
		t.Errorf("status bar width = %d, want 80", w)
	}
}

func TestStatusBar_DropsNoticeWhenNarrow(t *testing.T) {
	sb := NewStatusBar(plainTheme())
	sb.SetWidth(30)
	sb.Hints = "d diff  q quit"
	sb.SetNotice("A very long failure message that cannot fit", true)

	if strings.Contains(sb.View(), "failure") {
		t.Error("notice should be dropped when there is no room")
	}
}
