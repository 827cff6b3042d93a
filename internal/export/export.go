// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/Navyasridurga/docstring/internal/diff"
	"github.com/Navyasridurga/docstring/internal/docstyle"
	"github.com/Navyasridurga/docstring/internal/util"
)

// DefaultName is used when the source had no file name, e.g. pasted code.
const DefaultName = "code.py"

// DownloadPrefix is prepended to the original file name.
const DownloadPrefix = "documented_"

// ErrNothingToExport is returned when there is no documented text yet.
var ErrNothingToExport = errors.New("nothing to export")

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is one generation result ready for export.
type Document struct {
	Name        string // Original file name, may be empty
	Original    string
	Documented  string
	Style       docstyle.Style
	GeneratedAt time.Time
}

// Script returns the line diff from the original to the documented text.
func (d *Document) Script() diff.Script {
	return diff.Compute(d.Original, d.Documented)
}

func (d *Document) validate() error {
	if d == nil {
		return fmt.Errorf("document is nil")
	}
	if d.Documented == "" {
		return ErrNothingToExport
	}
	return nil
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for document exporters.
type Exporter interface {
	// Export renders the document in the target format.
	Export(doc *Document) ([]byte, error)

	// FileExtension returns the file extension, including the dot.
	// An empty extension keeps the original file's extension.
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Format names an export format.
type Format string

const (
	FormatSource Format = "py"
	FormatPatch  Format = "patch"
	FormatHTML   Format = "html"
	FormatJSON   Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatSource, FormatPatch, FormatHTML, FormatJSON}

// ParseFormat converts a format name, case-insensitively. Empty selects
// FormatSource.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatSource, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (expected py, patch, html or json)", s)
}

// NewExporter returns the exporter for a format.
func NewExporter(f Format, opts *Options) (Exporter, error) {
	switch f {
	case FormatSource:
		return NewSourceExporter(), nil
	case FormatPatch:
		return NewPatchExporter(), nil
	case FormatHTML:
		return NewHTMLExporter(opts), nil
	case FormatJSON:
		return NewJSONExporter(), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", f)
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// Theme for HTML export ("light" or "dark").
	// Default: "dark"
	Theme string

	// Logger receives non-fatal warnings. Nil uses the standard logger.
	Logger *log.Logger
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir: ".",
		Theme:     "dark",
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// DownloadName returns the name offered for the documented file:
// "documented_" plus the original name, or "documented_code.py" when the
// code had no name.
func DownloadName(original string) string {
	if original == "" {
		return DownloadPrefix + DefaultName
	}
	return DownloadPrefix + original
}

// OutputName is DownloadName with the extension replaced by ext, or kept
// when ext is empty.
func OutputName(original, ext string) string {
	base := ""
	if original != "" {
		base = filepath.Base(filepath.Clean("/" + original))
		if base == string(filepath.Separator) {
			base = ""
		}
	}
	name := sanitizeFilename(DownloadName(base))
	if ext == "" {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

// Save writes content to dir under its download name and returns the path.
func Save(dir, original, content string) (string, error) {
	if content == "" {
		return "", ErrNothingToExport
	}
	return writeFile(dir, OutputName(original, ""), []byte(content))
}

// ExportToFile renders doc with exporter and writes it to opts.OutputDir.
// Returns the output file path or an error.
func ExportToFile(doc *Document, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	outputPath, err := writeFile(opts.OutputDir, OutputName(doc.Name, exporter.FileExtension()), content)
	if err != nil {
		return "", err
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			// Non-fatal, the file was still written
			logger := opts.Logger
			if logger == nil {
				logger = log.Default()
			}
			logger.Printf("EXPORT_OPEN_FAILED | path=%s error=%v", outputPath, err)
		}
	}

	return outputPath, nil
}

func writeFile(dir, name string, content []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(dir, name)
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// Copy places content on the system clipboard.
func Copy(content string) error {
	if content == "" {
		return ErrNothingToExport
	}
	if clipboard.Unsupported {
		return fmt.Errorf("copy to clipboard: no clipboard utility available")
	}
	if err := writeClipboard(content); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// maxFilenameLen keeps names within common filesystem limits.
const maxFilenameLen = 200

// sanitizeFilename replaces characters that are invalid in filenames on
// Windows or Unix.
func sanitizeFilename(s string) string {
	runes := []rune(s)
	if len(runes) > maxFilenameLen {
		// Keep the extension when cutting
		ext := []rune(filepath.Ext(s))
		if len(ext) < maxFilenameLen {
			runes = append(runes[:maxFilenameLen-len(ext)], ext...)
		} else {
			runes = runes[:maxFilenameLen]
		}
	}

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return DownloadPrefix + DefaultName
	}
	return string(result)
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
