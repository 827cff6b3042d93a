// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Navyasridurga/docstring/internal/docstyle"
)

const (
	original   = "def add(a, b):\n    return a + b\n"
	documented = "def add(a, b):\n    \"\"\"Add two numbers.\"\"\"\n    return a + b\n"
)

func testDocument() *Document {
	return &Document{
		Name:        "utils.py",
		Original:    original,
		Documented:  documented,
		Style:       docstyle.Google,
		GeneratedAt: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestDownloadName(t *testing.T) {
	assert.Equal(t, "documented_utils.py", DownloadName("utils.py"))
	assert.Equal(t, "documented_code.py", DownloadName(""))
	assert.Equal(t, "documented_my file.py", DownloadName("my file.py"))
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		original string
		ext      string
		expected string
	}{
		{"utils.py", "", "documented_utils.py"},
		{"utils.pyi", "", "documented_utils.pyi"},
		{"utils.py", ".patch", "documented_utils.patch"},
		{"", ".html", "documented_code.html"},
		{"../../etc/evil.py", "", "documented_evil.py"},
		{"a:b?.py", "", "documented_a-b-.py"},
	}

	for _, tt := range tests {
		t.Run(tt.original+tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.expected, OutputName(tt.original, tt.ext))
		})
	}
}

func TestSanitizeFilename_KeepsExtensionWhenTruncating(t *testing.T) {
	long := strings.Repeat("x", 300) + ".py"

	got := sanitizeFilename(long)

	assert.Len(t, []rune(got), maxFilenameLen)
	assert.True(t, strings.HasSuffix(got, ".py"))
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := Save(dir, "utils.py", documented)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "documented_utils.py"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, documented, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm()&0644)
}

func TestSave_Empty(t *testing.T) {
	_, err := Save(t.TempDir(), "utils.py", "")
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestCopy(t *testing.T) {
	var got string
	restore := writeClipboard
	writeClipboard = func(s string) error {
		got = s
		return nil
	}
	defer func() { writeClipboard = restore }()

	assert.ErrorIs(t, Copy(""), ErrNothingToExport)

	err := Copy(documented)
	if err != nil {
		// No clipboard utility on this machine
		t.Skipf("clipboard unsupported: %v", err)
	}
	assert.Equal(t, documented, got)
}

func TestCopy_WrapsFailure(t *testing.T) {
	restore := writeClipboard
	writeClipboard = func(string) error { return errors.New("xclip missing") }
	defer func() { writeClipboard = restore }()

	err := Copy("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy to clipboard")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatSource, f)

	f, err = ParseFormat(" HTML ")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestNewExporter_AllFormats(t *testing.T) {
	for _, f := range Formats {
		exp, err := NewExporter(f, nil)
		require.NoError(t, err, f)
		assert.NotEmpty(t, exp.MimeType(), f)
	}
}

func TestSourceExporter(t *testing.T) {
	exp := NewSourceExporter()

	out, err := exp.Export(testDocument())

	require.NoError(t, err)
	assert.Equal(t, documented, string(out))
	assert.Equal(t, "text/x-python", exp.MimeType())

	_, err = exp.Export(&Document{Name: "x.py"})
	assert.ErrorIs(t, err, ErrNothingToExport)
	_, err = exp.Export(nil)
	assert.Error(t, err)
}

func TestPatchExporter(t *testing.T) {
	out, err := NewPatchExporter().Export(testDocument())

	require.NoError(t, err)
	patch := string(out)
	assert.Contains(t, patch, "--- a/utils.py")
	assert.Contains(t, patch, "+++ b/utils.py")
	assert.Contains(t, patch, "+    \"\"\"Add two numbers.\"\"\"")
}

func TestJSONExporter(t *testing.T) {
	out, err := NewJSONExporter().Export(testDocument())
	require.NoError(t, err)

	var report struct {
		Filename string `json:"filename"`
		Style    string `json:"style"`
		Added    int    `json:"added"`
		Removed  int    `json:"removed"`
		Lines    []struct {
			Number int    `json:"number"`
			Kind   string `json:"kind"`
			Text   string `json:"text"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(out, &report))

	assert.Equal(t, "documented_utils.py", report.Filename)
	assert.Equal(t, "google", report.Style)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 0, report.Removed)
	require.Len(t, report.Lines, 4)
	assert.Equal(t, "added", report.Lines[1].Kind)
	assert.Equal(t, 2, report.Lines[1].Number)
}

func TestHTMLExporter(t *testing.T) {
	doc := testDocument()
	doc.Original = "x = '<b>'\n"
	doc.Documented = "\"\"\"Module.\"\"\"\nx = '<b>'\n"

	out, err := NewHTMLExporter(nil).Export(doc)

	require.NoError(t, err)
	page := string(out)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>documented_utils.py</title>")
	assert.Contains(t, page, "dark-theme")
	assert.Contains(t, page, "Google Style")
	assert.Contains(t, page, "<tr class=\"added\">")
	assert.Contains(t, page, "&lt;b&gt;")
	assert.NotContains(t, page, "x = '<b>'")
}

func TestHTMLExporter_LightTheme(t *testing.T) {
	out, err := NewHTMLExporter(&Options{Theme: "light"}).Export(testDocument())

	require.NoError(t, err)
	assert.Contains(t, string(out), "<body class=\"light-theme\">")
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	opts := &Options{OutputDir: dir}

	path, err := ExportToFile(testDocument(), NewPatchExporter(), opts)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "documented_utils.patch"), path)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestExportToFile_PropagatesExportError(t *testing.T) {
	_, err := ExportToFile(&Document{}, NewSourceExporter(), &Options{OutputDir: t.TempDir()})

	assert.ErrorIs(t, err, ErrNothingToExport)
	assert.Contains(t, err.Error(), "export failed")
}
