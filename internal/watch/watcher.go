// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch reports when source files are rewritten.
package watch

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Defaults for Options.
const (
	DefaultDebounce     = 200 * time.Millisecond
	DefaultPollInterval = time.Second
)

// ChangeFunc is called with the path of a file that changed. It runs on a
// watcher goroutine.
type ChangeFunc func(path string)

// Options configures a watcher.
type Options struct {
	Debounce     time.Duration // Quiet period before a change is reported
	PollInterval time.Duration // Used by the polling fallback
	Logger       *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard, "", 0)
	}
	return o
}

// =============================================================================
// FILE WATCHER INTERFACE
// =============================================================================

// FileWatcher is the interface for file watching implementations.
type FileWatcher interface {
	// Watch starts watching for file changes
	Watch() error

	// Close stops watching and releases resources
	Close() error
}

// =============================================================================
// FSNOTIFY WATCHER
// =============================================================================

// FsnotifyWatcher implements FileWatcher using fsnotify. It watches the
// parent directories so files replaced by rename, as many editors save
// them, are still seen.
type FsnotifyWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	onChange ChangeFunc
	opts     Options
	mu       sync.Mutex
	pending  map[string]time.Time // File path -> last change time
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewFsnotifyWatcher creates a new fsnotify-based watcher for files.
func NewFsnotifyWatcher(files []string, onChange ChangeFunc, opts Options) (*FsnotifyWatcher, error) {
	targets, err := absPaths(files)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &FsnotifyWatcher{
		watcher:  watcher,
		files:    targets,
		onChange: onChange,
		opts:     opts.withDefaults(),
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching for file changes.
func (fw *FsnotifyWatcher) Watch() error {
	dirs := make(map[string]bool)
	for path := range fw.files {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	go fw.processEvents()
	go fw.processPending()
	return nil
}

// processEvents processes file system events.
func (fw *FsnotifyWatcher) processEvents() {
	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			path := filepath.Clean(event.Name)
			if !fw.files[path] {
				continue
			}
			fw.mu.Lock()
			fw.pending[path] = time.Now()
			fw.mu.Unlock()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.opts.Logger.Printf("WATCH_ERROR | error=%v", err)
		}
	}
}

// processPending reports changes once they have been quiet for the
// debounce period, so a burst of writes yields one call.
func (fw *FsnotifyWatcher) processPending() {
	ticker := time.NewTicker(tickInterval(fw.opts.Debounce))
	defer ticker.Stop()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()

			fw.mu.Lock()
			var ready []string
			for path, changed := range fw.pending {
				if now.Sub(changed) >= fw.opts.Debounce {
					ready = append(ready, path)
					delete(fw.pending, path)
				}
			}
			fw.mu.Unlock()

			for _, path := range ready {
				fw.opts.Logger.Printf("WATCH_CHANGE | path=%s", path)
				fw.onChange(path)
			}
		}
	}
}

// Close stops watching and releases resources.
func (fw *FsnotifyWatcher) Close() error {
	fw.cancel()
	if fw.watcher != nil {
		return fw.watcher.Close()
	}
	return nil
}

// =============================================================================
// POLLING WATCHER (FALLBACK)
// =============================================================================

// PollingWatcher implements FileWatcher by comparing modification times
// and sizes at a fixed interval.
type PollingWatcher struct {
	files    []string
	onChange ChangeFunc
	opts     Options
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	seen     map[string]fileState
}

type fileState struct {
	modTime time.Time
	size    int64
}

// NewPollingWatcher creates a new polling-based watcher.
func NewPollingWatcher(files []string, onChange ChangeFunc, opts Options) (*PollingWatcher, error) {
	targets, err := absPaths(files)
	if err != nil {
		return nil, err
	}

	list := make([]string, 0, len(targets))
	for path := range targets {
		list = append(list, path)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &PollingWatcher{
		files:    list,
		onChange: onChange,
		opts:     opts.withDefaults(),
		ctx:      ctx,
		cancel:   cancel,
		seen:     make(map[string]fileState),
	}, nil
}

// Watch records the current state and starts polling.
func (pw *PollingWatcher) Watch() error {
	pw.mu.Lock()
	for _, path := range pw.files {
		if st, ok := stat(path); ok {
			pw.seen[path] = st
		}
	}
	pw.mu.Unlock()

	go pw.poll()
	return nil
}

func (pw *PollingWatcher) poll() {
	ticker := time.NewTicker(pw.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-pw.ctx.Done():
			return

		case <-ticker.C:
			for _, path := range pw.checkChanges() {
				pw.opts.Logger.Printf("WATCH_CHANGE | path=%s", path)
				pw.onChange(path)
			}
		}
	}
}

// checkChanges returns the files whose state differs from the last poll.
// Files that disappear are forgotten and reported once they return.
func (pw *PollingWatcher) checkChanges() []string {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	var changed []string
	for _, path := range pw.files {
		st, ok := stat(path)
		if !ok {
			delete(pw.seen, path)
			continue
		}
		if old, exists := pw.seen[path]; !exists || old != st {
			changed = append(changed, path)
		}
		pw.seen[path] = st
	}
	return changed
}

// Close stops watching.
func (pw *PollingWatcher) Close() error {
	pw.cancel()
	return nil
}

// =============================================================================
// WATCHER FACTORY
// =============================================================================

// Start watches files with fsnotify, falling back to polling when the
// platform watcher is unavailable.
func Start(files []string, onChange ChangeFunc, opts Options) (FileWatcher, error) {
	opts = opts.withDefaults()

	fw, err := NewFsnotifyWatcher(files, onChange, opts)
	if err == nil {
		if err = fw.Watch(); err == nil {
			return fw, nil
		}
		fw.Close()
	}
	opts.Logger.Printf("WATCH_FALLBACK | reason=%v", err)

	pw, err := NewPollingWatcher(files, onChange, opts)
	if err != nil {
		return nil, err
	}
	if err := pw.Watch(); err != nil {
		return nil, err
	}
	return pw, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func absPaths(files []string) (map[string]bool, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	out := make(map[string]bool, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		out[filepath.Clean(abs)] = true
	}
	return out, nil
}

func stat(path string) (fileState, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}, false
	}
	return fileState{modTime: info.ModTime(), size: info.Size()}, true
}

func tickInterval(debounce time.Duration) time.Duration {
	tick := debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	if tick > 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	return tick
}
