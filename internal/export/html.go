// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/Navyasridurga/docstring/internal/diff"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports a self-contained diff report with embedded CSS.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a document to an HTML report.
func (e *HTMLExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	title := DownloadName(doc.Name)
	script := doc.Script()
	stats := diff.Stats(script)

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(title)))
	sb.WriteString("    <meta name=\"generator\" content=\"docgen\">\n")
	if !doc.GeneratedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", doc.GeneratedAt.Format(time.RFC3339)))
	}
	sb.WriteString(getCSS())
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString("    <div class=\"container\">\n")

	// Header
	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(title)))
	sb.WriteString("            <div class=\"metadata\">\n")
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Style:</strong> %s</span>\n", html.EscapeString(doc.Style.Label())))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item added\">+%d</span>\n", stats.Additions))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item removed\">-%d</span>\n", stats.Deletions))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")

	// Diff
	sb.WriteString("        <main>\n")
	sb.WriteString("            <h2>Changes</h2>\n")
	sb.WriteString(renderDiffTable(diff.Render(script)))
	sb.WriteString("            <h2>Documented source</h2>\n")
	sb.WriteString(e.renderSource(doc.Documented))
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>%s</p>\n", html.EscapeString(stats.Summary())))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

// renderDiffTable renders display lines as a table with a number gutter.
func renderDiffTable(lines []diff.DisplayLine) string {
	var sb strings.Builder
	sb.WriteString("            <table class=\"diff\">\n")
	for _, l := range lines {
		number := ""
		if l.HasNumber() {
			number = fmt.Sprint(l.Number)
		}
		sb.WriteString(fmt.Sprintf("                <tr class=\"%s\"><td class=\"marker\">%s</td><td class=\"num\">%s</td><td class=\"code\">%s</td></tr>\n",
			l.Kind, html.EscapeString(strings.TrimSpace(l.Kind.Prefix())), number, html.EscapeString(l.Text)))
	}
	sb.WriteString("            </table>\n")
	return sb.String()
}

// renderSource highlights Python source with inline styles. Falls back to
// an escaped block if highlighting fails.
func (e *HTMLExporter) renderSource(code string) string {
	lexer := lexers.Get("python")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "monokai"
	if e.options.Theme == "light" {
		styleName = "github"
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	formatter := chromahtml.New(chromahtml.WithLineNumbers(true), chromahtml.TabWidth(4))

	iterator, err := lexer.Tokenise(nil, code)
	if err == nil {
		var sb strings.Builder
		if err = formatter.Format(&sb, style, iterator); err == nil {
			return "            <div class=\"source\">" + sb.String() + "</div>\n"
		}
	}
	return "            <pre class=\"source\"><code>" + html.EscapeString(code) + "</code></pre>\n"
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

// getCSS returns the embedded CSS for the report.
func getCSS() string {
	return `    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", "Source Code Pro", monospace;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #414868;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --added-bg: rgba(158, 206, 106, 0.15);
            --removed-bg: rgba(247, 118, 142, 0.15);
            --accent-green: #9ece6a;
            --accent-red: #f7768e;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-tertiary: #e1e4e8;
            --text-primary: #24292e;
            --text-muted: #6a737d;
            --added-bg: #e6ffed;
            --removed-bg: #ffeef0;
            --accent-green: #22863a;
            --accent-red: #d73a49;
        }

        body {
            font-family: var(--font-sans);
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 1100px;
            margin: 0 auto;
            background: var(--bg-secondary);
            border-radius: 12px;
            overflow: hidden;
        }

        .header {
            padding: 24px 32px;
            background: var(--bg-tertiary);
        }

        .metadata {
            display: flex;
            gap: 16px;
            font-size: 14px;
        }

        .added { color: var(--accent-green); }
        .removed { color: var(--accent-red); }

        main { padding: 24px 32px; }
        h2 { font-size: 18px; margin: 16px 0 8px; }

        table.diff {
            width: 100%;
            border-collapse: collapse;
            font-family: var(--font-mono);
            font-size: 13px;
        }

        table.diff td { padding: 0 8px; white-space: pre; }
        table.diff td.num, table.diff td.marker { color: var(--text-muted); text-align: right; width: 1%; }
        tr.added { background: var(--added-bg); }
        tr.removed { background: var(--removed-bg); }

        .source pre { padding: 12px; overflow-x: auto; font-size: 13px; }

        .footer {
            padding: 16px 32px;
            font-size: 13px;
            color: var(--text-muted);
        }
    </style>
`
}
