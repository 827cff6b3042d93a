// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Argument parsing and dispatch for docgen.
//
// Every command gets its own pflag set sharing the common flags
// (--config, --no-color, --verbose, --json).
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Navyasridurga/docstring/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdGenerate Command = iota
	CmdServe
	CmdDiff
	CmdStyles
	CmdVersion
	CmdHelp
)

// String returns the primary name of a command.
func (c Command) String() string {
	switch c {
	case CmdGenerate:
		return "generate"
	case CmdServe:
		return "serve"
	case CmdDiff:
		return "diff"
	case CmdStyles:
		return "styles"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// commandNames maps every accepted name, aliases included, to a command.
var commandNames = map[string]Command{
	"generate": CmdGenerate,
	"gen":      CmdGenerate,
	"serve":    CmdServe,
	"server":   CmdServe,
	"diff":     CmdDiff,
	"styles":   CmdStyles,
	"version":  CmdVersion,
	"help":     CmdHelp,
}

// Args holds parsed CLI arguments.
type Args struct {
	Command Command

	// Common flags
	ConfigPath string
	NoColor    bool
	Verbose    bool
	JSON       bool

	// generate
	File     string
	Sample   bool
	Style    string
	Endpoint string
	ShowDiff bool
	OutDir   string
	Copy     bool
	Watch    bool
	Plain    bool
	Format   string

	// serve
	Addr string

	// diff
	OldFile string
	NewFile string
	Unified bool

	// help
	Topic string
}

// =============================================================================
// PARSING
// =============================================================================

// Parse converts command-line arguments (without the program name) into
// Args. No arguments, -h and --help select help.
func Parse(argv []string) (*Args, error) {
	if len(argv) == 0 {
		return &Args{Command: CmdHelp}, nil
	}

	first := argv[0]
	switch first {
	case "-h", "--help":
		return &Args{Command: CmdHelp}, nil
	case "-V", "--version":
		return &Args{Command: CmdVersion}, nil
	}
	if strings.HasPrefix(first, "-") {
		return nil, &ValidationError{
			Field:   "command",
			Value:   first,
			Reason:  "expected a command before flags",
			Example: "docgen generate FILE",
		}
	}

	cmd, ok := commandNames[first]
	if !ok {
		return nil, ErrUnknownCommand(first)
	}

	args := &Args{Command: cmd}
	fs := newFlagSet(cmd, args)
	if err := fs.Parse(argv[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return &Args{Command: CmdHelp, Topic: cmd.String()}, nil
		}
		return nil, &ValidationError{Field: "flags", Reason: err.Error(), Example: "docgen help " + cmd.String()}
	}

	if err := args.bindPositional(fs.Args()); err != nil {
		return nil, err
	}
	return args, nil
}

func newFlagSet(cmd Command, args *Args) *pflag.FlagSet {
	fs := pflag.NewFlagSet(cmd.String(), pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVarP(&args.ConfigPath, "config", "c", "", "Path to the config file")
	fs.BoolVar(&args.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVarP(&args.Verbose, "verbose", "v", false, "Log diagnostic records to stderr")

	switch cmd {
	case CmdGenerate:
		fs.BoolVar(&args.Sample, "sample", false, "Document the built-in sample code instead of a file")
		fs.StringVarP(&args.Style, "style", "s", "", "Docstring style: google, numpy or restructuredtext")
		fs.StringVarP(&args.Endpoint, "endpoint", "e", "", "Generation endpoint URL")
		fs.BoolVarP(&args.ShowDiff, "diff", "d", false, "Show the result as a diff against the input")
		fs.StringVarP(&args.OutDir, "out", "o", "", "Write the documented file to this directory")
		fs.BoolVar(&args.Copy, "copy", false, "Copy the documented code to the clipboard")
		fs.BoolVarP(&args.Watch, "watch", "w", false, "Regenerate whenever the file is written")
		fs.BoolVar(&args.Plain, "plain", false, "Stream plain text instead of the interactive view")
		fs.StringVarP(&args.Format, "format", "f", "", "Output format for --out: py, patch, html or json")
	case CmdServe:
		fs.StringVarP(&args.Addr, "addr", "a", "", "Listen address (default "+config.DefaultAddr+")")
	case CmdDiff:
		fs.BoolVarP(&args.Unified, "unified", "u", false, "Print a unified diff")
		fs.BoolVar(&args.JSON, "json", false, "Output in JSON format")
	case CmdStyles, CmdVersion:
		fs.BoolVar(&args.JSON, "json", false, "Output in JSON format")
	}
	return fs
}

func (a *Args) bindPositional(rest []string) error {
	switch a.Command {
	case CmdGenerate:
		if a.Sample {
			if len(rest) > 0 {
				return &ValidationError{Field: "FILE", Value: rest[0], Reason: "cannot be combined with --sample"}
			}
			if a.Watch {
				return &ValidationError{Field: "--watch", Reason: "needs a FILE to watch"}
			}
			return nil
		}
		if len(rest) == 0 {
			return ErrMissingArgument("FILE", "docgen generate calc.py")
		}
		if len(rest) > 1 {
			return &ValidationError{Field: "FILE", Value: strings.Join(rest, " "), Reason: "exactly one file expected"}
		}
		a.File = rest[0]
	case CmdDiff:
		if len(rest) != 2 {
			return &ValidationError{
				Field:   "arguments",
				Value:   strings.Join(rest, " "),
				Reason:  "expected OLD and NEW files",
				Example: "docgen diff calc.py documented_calc.py",
			}
		}
		a.OldFile, a.NewFile = rest[0], rest[1]
	case CmdHelp:
		if len(rest) > 0 {
			a.Topic = rest[0]
		}
	default:
		if len(rest) > 0 {
			return &ValidationError{Field: "arguments", Value: strings.Join(rest, " "), Reason: "unexpected argument"}
		}
	}
	return nil
}

// =============================================================================
// APP
// =============================================================================

// App runs commands against a set of standard streams.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Interactive selects the full-screen viewer for generate
	Interactive bool

	logger *log.Logger
	copyFn func(string) error // Clipboard writer, export.Copy when nil
}

// NewApp creates an App bound to the process's standard streams.
func NewApp() *App {
	return &App{
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Interactive: IsTTY() && IsStdoutTTY(),
	}
}

// Run parses argv and executes the selected command.
func (a *App) Run(ctx context.Context, argv []string) error {
	args, err := Parse(argv)
	if err != nil {
		return err
	}

	a.logger = log.New(io.Discard, "", 0)
	if args.Verbose {
		a.logger = log.New(a.Stderr, "", log.LstdFlags)
	}
	if args.NoColor {
		DisableColors()
	}

	switch args.Command {
	case CmdGenerate:
		return a.runGenerate(ctx, args)
	case CmdServe:
		return a.runServe(ctx, args)
	case CmdDiff:
		return a.runDiff(args)
	case CmdStyles:
		return a.runStyles(args)
	case CmdVersion:
		return a.runVersion(args)
	default:
		return a.runHelp(args.Topic)
	}
}

// loadConfig loads the config file and applies --no-color from it.
func (a *App) loadConfig(args *Args) (*config.Config, error) {
	cfg, err := config.Load(args.ConfigPath)
	if err != nil {
		return nil, &ConfigError{Path: args.ConfigPath, Err: err}
	}
	if cfg.Client.NoColor && !args.NoColor {
		args.NoColor = true
		DisableColors()
	}
	return cfg, nil
}

// Main runs docgen with the process's streams and returns the exit code.
// SIGINT and SIGTERM cancel the running command.
func Main(argv []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp()
	err := app.Run(ctx, argv)
	if errors.Is(err, context.Canceled) {
		return ExitSuccess
	}
	if err != nil {
		DisplayError(app.Stderr, err, slices.Contains(argv, "--json"))
	}
	return GetExitCode(err)
}

// printf writes formatted text to stdout, ignoring write errors like fmt.Printf.
func (a *App) printf(format string, v ...interface{}) {
	fmt.Fprintf(a.Stdout, format, v...)
}

// progressf writes progress text to stderr.
func (a *App) progressf(format string, v ...interface{}) {
	fmt.Fprintf(a.Stderr, format, v...)
}
