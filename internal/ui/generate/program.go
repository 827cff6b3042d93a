// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generate

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// NewProgram creates the full-screen program for one file. Extra options
// are appended after the defaults.
func NewProgram(ctx context.Context, gen Generator, opts Options, extra ...tea.ProgramOption) *tea.Program {
	options := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	}
	options = append(options, extra...)
	return tea.NewProgram(New(ctx, gen, opts), options...)
}

// FinalModel extracts the generate model returned by (*tea.Program).Run.
func FinalModel(m tea.Model) (Model, bool) {
	final, ok := m.(Model)
	return final, ok
}
