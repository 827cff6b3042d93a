// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects change callbacks.
type recorder struct {
	mu    sync.Mutex
	paths []string
	ch    chan string
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan string, 16)}
}

func (r *recorder) onChange(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.ch <- path
}

func (r *recorder) wait(t *testing.T) string {
	t.Helper()
	select {
	case p := <-r.ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
		return ""
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFsnotifyWatcher_ReportsWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "calc.py")
	writeFile(t, target, "x = 1\n")

	rec := newRecorder()
	fw, err := NewFsnotifyWatcher([]string{target}, rec.onChange, Options{Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, fw.Watch())
	defer fw.Close()

	writeFile(t, target, "x = 2\n")

	got := rec.wait(t)
	want, _ := filepath.Abs(target)
	assert.Equal(t, want, got)
}

func TestFsnotifyWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "calc.py")
	writeFile(t, target, "x = 1\n")

	rec := newRecorder()
	fw, err := NewFsnotifyWatcher([]string{target}, rec.onChange, Options{Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, fw.Watch())
	defer fw.Close()

	writeFile(t, filepath.Join(dir, "other.py"), "y = 1\n")
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, 0, rec.count())
}

func TestFsnotifyWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "calc.py")
	writeFile(t, target, "x = 1\n")

	rec := newRecorder()
	fw, err := NewFsnotifyWatcher([]string{target}, rec.onChange, Options{Debounce: 150 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, fw.Watch())
	defer fw.Close()

	for i := 0; i < 5; i++ {
		writeFile(t, target, "x = 2\n")
		time.Sleep(10 * time.Millisecond)
	}

	rec.wait(t)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestPollingWatcher_CheckChanges(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "calc.py")
	writeFile(t, target, "x = 1\n")

	pw, err := NewPollingWatcher([]string{target}, func(string) {}, Options{PollInterval: time.Hour})
	require.NoError(t, err)
	require.NoError(t, pw.Watch())
	defer pw.Close()

	assert.Empty(t, pw.checkChanges())

	writeFile(t, target, "x = 22\n")
	changed := pw.checkChanges()
	require.Len(t, changed, 1)
	assert.Equal(t, "calc.py", filepath.Base(changed[0]))
	assert.Empty(t, pw.checkChanges())

	require.NoError(t, os.Remove(target))
	assert.Empty(t, pw.checkChanges())

	writeFile(t, target, "x = 3\n")
	assert.Len(t, pw.checkChanges(), 1)
}

func TestPollingWatcher_ReportsChange(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "calc.py")
	writeFile(t, target, "x = 1\n")

	rec := newRecorder()
	pw, err := NewPollingWatcher([]string{target}, rec.onChange, Options{PollInterval: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, pw.Watch())
	defer pw.Close()

	writeFile(t, target, "x = 1234\n")
	assert.Equal(t, "calc.py", filepath.Base(rec.wait(t)))
}

func TestStart_NoFiles(t *testing.T) {
	_, err := Start(nil, func(string) {}, Options{})
	assert.Error(t, err)
}

func TestStart(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "calc.py")
	writeFile(t, target, "x = 1\n")

	rec := newRecorder()
	w, err := Start([]string{target}, rec.onChange, Options{Debounce: 20 * time.Millisecond, PollInterval: 20 * time.Millisecond})
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, target, "x = 12345\n")
	assert.Equal(t, "calc.py", filepath.Base(rec.wait(t)))
}

func TestTickInterval(t *testing.T) {
	assert.Equal(t, 10*time.Millisecond, tickInterval(time.Millisecond))
	assert.Equal(t, 50*time.Millisecond, tickInterval(100*time.Millisecond))
	assert.Equal(t, 100*time.Millisecond, tickInterval(time.Second))
}
