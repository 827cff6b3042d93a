// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the building blocks of the generate view.

  - Header (header.go) - File name, docstring style and endpoint.
  - CodeView (codeblock.go) - Chroma-highlighted source with a line gutter.
  - DiffViewer (diff_viewer.go) - Line diff between the original and the
    documented source.
  - Spinner (spinner.go) - Progress indicator with an elapsed timer.
  - StatusBar (statusbar.go) - Session state, output size and key hints.

Every component takes a *styles.Theme:

	theme := styles.NewTheme()
	dv := components.NewDiffViewer(theme, original, documented)
	dv.SetWidth(80)
	view := dv.View()
*/
package components
