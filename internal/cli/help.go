// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// help.go - Markdown help text, rendered with glamour on a terminal.
package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"

	"github.com/Navyasridurga/docstring/internal/config"
)

const usageText = `# docgen

Generate Python docstrings with an AI model, review them as a diff, and
save or copy the result.

## Usage

    docgen generate FILE [flags]   Document a Python file
    docgen serve [flags]           Run the generation endpoint
    docgen diff OLD NEW [flags]    Compare two files line by line
    docgen styles                  List docstring styles
    docgen version                 Show version information
    docgen help [COMMAND]          Show help for a command

## Common flags

    -c, --config PATH   Config file (default ~/.docgen/config.toml)
        --no-color      Disable colored output
    -v, --verbose       Log diagnostic records to stderr

Run ` + "`docgen help generate`" + ` for the flags of a command.
`

const generateHelp = `# docgen generate

Stream documented code for FILE from the generation endpoint.

    docgen generate FILE [flags]
    docgen generate --sample [flags]

On a terminal this opens an interactive viewer. Keys: **d** toggle diff,
**c** copy, **s** save, **r** regenerate, **esc** cancel, **q** quit.
Piped, or with ` + "`--plain`" + `, progress goes to stderr and the
documented code (or the diff) to stdout.

## Flags

    -s, --style NAME      google, numpy or restructuredtext (default google)
    -e, --endpoint URL    Generation endpoint
    -d, --diff            Show a diff against the input
    -o, --out DIR         Write the documented file to DIR
    -f, --format NAME     py, patch, html or json (with --out)
        --copy            Copy the documented code to the clipboard
    -w, --watch           Regenerate whenever FILE is written
        --plain           Never open the interactive viewer
        --sample          Document built-in sample code
`

const serveHelp = `# docgen serve

Serve the generation endpoint, forwarding requests to the AI gateway.

    docgen serve [--addr ADDR]

The gateway key comes from ` + "`DOCGEN_API_KEY`" + ` (or
` + "`LOVABLE_API_KEY`" + `) or the ` + "`[gateway]`" + ` config section.

## Flags

    -a, --addr ADDR   Listen address (default ` + config.DefaultAddr + `)

## Routes

    POST /generate-docstrings   Stream docstrings as server-sent events
    POST /upload                Validate and decode a Python file
    POST /diff                  Line diff of two texts
    GET  /styles                Supported styles
    GET  /health                Service status
`

const diffHelp = `# docgen diff

Compare OLD and NEW line by line.

    docgen diff OLD NEW [flags]

## Flags

    -u, --unified   Print a unified patch
        --json      Output the diff lines as JSON
`

// helpTopics maps command names to their help text.
var helpTopics = map[string]string{
	"generate": generateHelp,
	"gen":      generateHelp,
	"serve":    serveHelp,
	"server":   serveHelp,
	"diff":     diffHelp,
}

// helpText returns the markdown help for topic, or the general usage.
func helpText(topic string) string {
	if text, ok := helpTopics[topic]; ok {
		return text
	}
	return usageText
}

func (a *App) runHelp(topic string) error {
	if topic != "" {
		if _, ok := helpTopics[topic]; !ok {
			if _, isCmd := commandNames[topic]; !isCmd {
				return ErrUnknownCommand(topic)
			}
		}
	}
	fmt.Fprint(a.Stdout, renderMarkdown(a.Stdout, helpText(topic)))
	return nil
}

// renderMarkdown renders markdown for a terminal. Returns the original
// content when w is not a terminal or rendering fails.
func renderMarkdown(w io.Writer, content string) string {
	if !isTerminalWriter(w) || !ColorsEnabled() {
		return content
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(terminalWidth(w), 100)),
	)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
