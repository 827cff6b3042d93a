// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// generate_cmd.go - The generate command: interactive viewer or plain stream.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/Navyasridurga/docstring/internal/config"
	"github.com/Navyasridurga/docstring/internal/diff"
	"github.com/Navyasridurga/docstring/internal/docstyle"
	"github.com/Navyasridurga/docstring/internal/export"
	"github.com/Navyasridurga/docstring/internal/session"
	"github.com/Navyasridurga/docstring/internal/ui/generate"
	"github.com/Navyasridurga/docstring/internal/ui/styles"
	"github.com/Navyasridurga/docstring/internal/upload"
	"github.com/Navyasridurga/docstring/internal/watch"
)

// SampleName is the file name shown for --sample.
const SampleName = "sample.py"

// SampleCode is documented by generate --sample.
const SampleCode = `def add_numbers(a, b):
    return a + b

def calculate_average(numbers):
    total = sum(numbers)
    count = len(numbers)
    return total / count

class Calculator:
    def __init__(self):
        self.history = []

    def multiply(self, x, y):
        result = x * y
        self.history.append(result)
        return result

    def get_history(self):
        return self.history
`

// generateJob is a resolved generate invocation.
type generateJob struct {
	args   *Args
	cfg    *config.Config
	style  docstyle.Style
	file   *upload.File
	client *session.Client
	format export.Format
}

func (a *App) runGenerate(ctx context.Context, args *Args) error {
	cfg, err := a.loadConfig(args)
	if err != nil {
		return err
	}

	job := &generateJob{args: args, cfg: cfg, style: cfg.Style()}
	if args.Style != "" {
		job.style, err = docstyle.Parse(args.Style)
		if err != nil {
			return &ValidationError{
				Field:   "style",
				Value:   args.Style,
				Reason:  "expected one of " + strings.Join(docstyle.Names(), ", "),
				Example: "docgen generate --style numpy calc.py",
			}
		}
	}

	formatName := args.Format
	if formatName == "" {
		formatName = cfg.Client.Format
	}
	if job.format, err = export.ParseFormat(formatName); err != nil {
		return &ValidationError{Field: "format", Value: formatName, Reason: err.Error()}
	}

	if args.Sample {
		job.file = &upload.File{Name: SampleName, Content: SampleCode, Size: int64(len(SampleCode))}
	} else if job.file, err = upload.Open(args.File); err != nil {
		return err
	}

	endpoint := args.Endpoint
	if endpoint == "" {
		endpoint = cfg.Client.Endpoint
	}
	job.client = session.NewClient(endpoint).WithLogger(a.logger)

	a.logger.Printf("GENERATE | file=%s style=%s endpoint=%s interactive=%t watch=%t",
		job.file.Name, job.style, endpoint, a.Interactive && !args.Plain, args.Watch)

	if a.Interactive && !args.Plain {
		return a.runInteractive(ctx, job)
	}
	return a.runPlain(ctx, job)
}

// =============================================================================
// INTERACTIVE
// =============================================================================

func (a *App) runInteractive(ctx context.Context, job *generateJob) error {
	isDark := job.cfg.Client.Theme != "light"
	theme := styles.NewThemeWithProfile(GetColorProfile(), isDark)
	if job.args.NoColor {
		theme = styles.NewThemeWithProfile(termenv.Ascii, isDark)
	}

	outDir := job.args.OutDir
	if outDir == "" {
		outDir = job.cfg.Client.OutputDir
	}

	p := generate.NewProgram(ctx, job.client, generate.Options{
		File:      job.file,
		Style:     job.style,
		Endpoint:  job.client.Endpoint(),
		OutputDir: outDir,
		ShowDiff:  job.args.ShowDiff,
		Theme:     theme,
	}, tea.WithInput(a.Stdin), tea.WithOutput(a.Stdout))

	if job.args.Watch {
		w, err := watch.Start([]string{job.args.File}, func(path string) {
			f, err := upload.Open(path)
			if err != nil {
				a.logger.Printf("WATCH_RELOAD_FAILED | path=%s error=%v", path, err)
				return
			}
			p.Send(generate.ReloadMsg{File: f})
		}, watch.Options{Logger: a.logger})
		if err != nil {
			return &CommandError{Command: "generate", Reason: "watch " + job.args.File, Err: err}
		}
		defer w.Close()
	}

	final, err := p.Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return &CommandError{Command: "generate", Reason: "terminal UI", Err: err}
	}

	m, ok := generate.FinalModel(final)
	if !ok || m.Output() == "" {
		return nil
	}
	if job.args.Copy {
		return a.copyResult(m.Output())
	}
	return nil
}

// =============================================================================
// PLAIN
// =============================================================================

// runPlain streams progress to stderr and writes the result to stdout.
// With --watch it keeps going, superseding the running session whenever
// the file changes.
func (a *App) runPlain(ctx context.Context, job *generateJob) error {
	if !job.args.Watch {
		return a.finishPlain(job, a.startPlain(ctx, job))
	}

	changes := make(chan string, 1)
	w, err := watch.Start([]string{job.args.File}, func(path string) {
		select {
		case changes <- path:
		default:
		}
	}, watch.Options{Logger: a.logger})
	if err != nil {
		return &CommandError{Command: "generate", Reason: "watch " + job.args.File, Err: err}
	}
	defer w.Close()

	s := a.startPlain(ctx, job)
	for {
		// A nil session is idle, waiting for the next change.
		var done <-chan struct{}
		if s != nil {
			done = s.Done()
		}

		select {
		case <-ctx.Done():
			if s != nil {
				s.Cancel()
				s.Wait()
			}
			return nil
		case <-done:
			if err := a.finishPlain(job, s); err != nil {
				DisplayError(a.Stderr, err, false)
			}
			s = nil
			a.progressf("%s\n", DimStyle.Render("Watching "+job.args.File+" for changes (Ctrl+C to stop)"))
			continue
		case <-changes:
			if s != nil {
				s.Cancel()
				s.Wait()
			}
		}

		f, err := upload.Open(job.args.File)
		if err != nil {
			DisplayError(a.Stderr, err, false)
			s = nil
			continue
		}
		job.file = f
		a.progressf("%s\n", DimStyle.Render(job.file.Name+" changed, regenerating"))
		s = a.startPlain(ctx, job)
	}
}

func (a *App) startPlain(ctx context.Context, job *generateJob) *session.Session {
	a.progressf("%s\n", DimStyle.Render(fmt.Sprintf("Generating %s docstrings for %s", job.style.Label(), job.file.Name)))

	live := isTerminalWriter(a.Stderr)
	return job.client.Run(ctx, session.Request{Code: job.file.Content, Style: job.style}, session.Callbacks{
		OnDelta: func(text string) {
			if live {
				a.progressf("\r%s", DimStyle.Render(fmt.Sprintf("  %d lines received", strings.Count(text, "\n")+1)))
			}
		},
	})
}

// finishPlain waits for s and reports its outcome.
func (a *App) finishPlain(job *generateJob, s *session.Session) error {
	s.Wait()
	if isTerminalWriter(a.Stderr) {
		a.progressf("\r\033[K")
	}

	switch s.State() {
	case session.StateCancelled:
		return context.Canceled
	case session.StateFailed:
		if e := s.Err(); e != nil {
			return e
		}
		return &CommandError{Command: "generate", Reason: "generation failed"}
	}

	output := s.Output()
	a.progressf("%s\n", SuccessStyle.Render("Generated in "+session.FormatDuration(s.Duration())))

	if job.args.ShowDiff {
		a.printf("%s", renderPlainDiff(diff.Render(diff.Compute(job.file.Content, output))))
	} else {
		a.printf("%s", output)
		if output != "" && !strings.HasSuffix(output, "\n") {
			a.printf("\n")
		}
	}

	if job.args.OutDir != "" || job.args.Format != "" {
		path, err := a.exportResult(job, output)
		if err != nil {
			return err
		}
		a.progressf("%s\n", SuccessStyle.Render("Saved "+path))
	}
	if job.args.Copy {
		if err := a.copyResult(output); err != nil {
			return err
		}
		a.progressf("%s\n", SuccessStyle.Render("Copied to clipboard"))
	}
	return nil
}

func (a *App) exportResult(job *generateJob, output string) (string, error) {
	opts := export.DefaultOptions()
	opts.OutputDir = job.args.OutDir
	if opts.OutputDir == "" {
		opts.OutputDir = job.cfg.Client.OutputDir
	}
	opts.Theme = job.cfg.Client.Theme
	opts.Logger = a.logger

	exporter, err := export.NewExporter(job.format, opts)
	if err != nil {
		return "", err
	}
	doc := &export.Document{
		Name:        job.file.Name,
		Original:    job.file.Content,
		Documented:  output,
		Style:       job.style,
		GeneratedAt: time.Now(),
	}
	path, err := export.ExportToFile(doc, exporter, opts)
	if err != nil {
		return "", &CommandError{Command: "generate", Reason: "export", Err: err}
	}
	return path, nil
}

func (a *App) copyResult(output string) error {
	copyFn := a.copyFn
	if copyFn == nil {
		copyFn = export.Copy
	}
	if err := copyFn(output); err != nil {
		return &CommandError{Command: "generate", Reason: "copy", Err: err}
	}
	return nil
}

// renderPlainDiff formats display lines, coloring added and removed lines
// when colors are on.
func renderPlainDiff(lines []diff.DisplayLine) string {
	if len(lines) == 0 {
		return ""
	}
	rows := strings.Split(strings.TrimSuffix(diff.FormatPlain(lines), "\n"), "\n")

	var sb strings.Builder
	for i, line := range lines {
		row := rows[i]
		switch line.Kind {
		case diff.LineAdded:
			row = AddedStyle.Render(row)
		case diff.LineRemoved:
			row = RemovedStyle.Render(row)
		}
		sb.WriteString(row)
		sb.WriteString("\n")
	}
	return sb.String()
}
