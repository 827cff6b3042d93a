// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// diff_cmd.go - The diff, styles and version commands.
package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/Navyasridurga/docstring/internal/diff"
	"github.com/Navyasridurga/docstring/internal/docstyle"
	"github.com/Navyasridurga/docstring/internal/ui/components"
	"github.com/Navyasridurga/docstring/internal/ui/styles"
	"github.com/Navyasridurga/docstring/internal/upload"
)

// =============================================================================
// DIFF
// =============================================================================

// diffReport is the --json output of diff.
type diffReport struct {
	Old   string             `json:"old"`
	New   string             `json:"new"`
	Stats diff.DiffStats     `json:"stats"`
	Lines []diff.DisplayLine `json:"lines"`
}

func (a *App) runDiff(args *Args) error {
	original, err := readText(args.OldFile)
	if err != nil {
		return err
	}
	modified, err := readText(args.NewFile)
	if err != nil {
		return err
	}

	return OutputJSON(a.Stdout, args.JSON, "diff", func() (interface{}, error) {
		script := diff.Compute(original, modified)
		lines := diff.Render(script)
		if args.JSON {
			return diffReport{Old: args.OldFile, New: args.NewFile, Stats: diff.Stats(script), Lines: lines}, nil
		}

		switch {
		case args.Unified:
			a.printf("%s", diff.Unified(args.OldFile, args.NewFile, original, modified))
		case isTerminalWriter(a.Stdout) && !args.NoColor:
			viewer := components.NewDiffViewer(styles.NewThemeWithProfile(GetColorProfile(), true), original, modified)
			viewer.SetWidth(terminalWidth(a.Stdout))
			a.printf("%s\n", viewer.View())
		default:
			a.printf("%s", renderPlainDiff(lines))
			a.progressf("%s\n%s\n", RenderSeparator(min(terminalWidth(a.Stderr), 70)), DimStyle.Render(diff.Stats(script).Summary()))
		}
		return nil, nil
	})
}

// readText reads a whole file for diffing, decoding it like an upload.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &NotFoundError{Resource: "file", ID: path}
		}
		return "", &CommandError{Command: "diff", Reason: "read " + path, Err: err}
	}
	return upload.Decode(data)
}

// =============================================================================
// STYLES
// =============================================================================

type styleInfo struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
}

func (a *App) runStyles(args *Args) error {
	return OutputJSON(a.Stdout, args.JSON, "styles", func() (interface{}, error) {
		all := docstyle.All()
		infos := make([]styleInfo, 0, len(all))
		for _, s := range all {
			infos = append(infos, styleInfo{Name: s.String(), Label: s.Label(), Default: s == docstyle.Default})
		}
		if args.JSON {
			return infos, nil
		}

		a.printf("%s\n\n", TitleStyle.Render("Docstring styles"))
		for _, info := range infos {
			marker := ""
			if info.Default {
				marker = DimStyle.Render(" (default)")
			}
			a.printf("  %s%s%s\n", RenderLabel(info.Name), ValueStyle.Render(info.Label), marker)
		}
		return nil, nil
	})
}

// =============================================================================
// VERSION
// =============================================================================

type versionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func (a *App) runVersion(args *Args) error {
	return OutputJSON(a.Stdout, args.JSON, "version", func() (interface{}, error) {
		info := versionInfo{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		}
		if args.JSON {
			return info, nil
		}
		a.printf("docgen %s\n", info.Version)
		a.printf("  %s%s\n", RenderLabel("Git commit:"), info.GitCommit)
		a.printf("  %s%s\n", RenderLabel("Build date:"), info.BuildDate)
		a.printf("  %s%s\n", RenderLabel("Go version:"), info.GoVersion)
		a.printf("  %s%s\n", RenderLabel("Platform:"), info.Platform)
		return nil, nil
	})
}
