// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the palette and theme for the docgen terminal UI.

All colors use Lip Gloss AdaptiveColor so they follow the terminal's light
or dark background. A Theme bundles the styles used by the generate view:

	theme := styles.NewTheme()
	title := theme.HeaderTitle.Render("example.py")

Color output is disabled with DisableColor, which the CLI calls when
NO_COLOR is set or stdout is not a terminal.
*/
package styles
