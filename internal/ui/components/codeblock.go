// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/Navyasridurga/docstring/internal/ui/styles"
	"github.com/Navyasridurga/docstring/internal/util"
)

// DefaultLanguage is the lexer used for generated output.
const DefaultLanguage = "python"

// tabWidth is the number of columns a tab expands to.
const tabWidth = 4

// =============================================================================
// CODE VIEW
// =============================================================================

// CodeView renders source text with a line number gutter.
type CodeView struct {
	Language string
	Code     string
	theme    *styles.Theme
}

// NewCodeView creates a code view. An empty language selects Python.
func NewCodeView(theme *styles.Theme, language, code string) CodeView {
	if language == "" {
		language = DefaultLanguage
	}
	return CodeView{Language: language, Code: code, theme: theme}
}

// Render returns the numbered, highlighted code. Highlighting is skipped
// when the theme has no color.
func (c CodeView) Render() string {
	code := util.ExpandTabs(strings.TrimSuffix(c.Code, "\n"), tabWidth)
	if code == "" {
		return ""
	}

	if c.theme.HasColor() {
		code = Highlight(code, c.Language, c.theme.ChromaStyle())
	}
	lines := strings.Split(strings.TrimSuffix(code, "\n"), "\n")

	gutter := len(fmt.Sprint(len(lines)))
	numStyle := c.theme.LineNumber.Width(gutter)

	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(numStyle.Render(fmt.Sprint(i + 1)))
		sb.WriteString("  ")
		sb.WriteString(line)
	}
	return sb.String()
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// Highlight applies terminal syntax highlighting. An unknown language falls
// back to content detection; failures return the code unchanged.
func Highlight(code, language, styleName string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}
