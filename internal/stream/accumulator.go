// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream accumulates streamed model output and strips the code
// fences models tend to wrap around it.
package stream

import (
	"strings"
	"sync"
)

// =============================================================================
// FENCE MARKERS
// =============================================================================

const fence = "```"

// fenceTags are the language tags recognised on an opening fence, checked
// in order. A bare "```\n" opener is tried after all of them.
var fenceTags = []string{"python", "python3", "py", "pycon"}

// Clean strips a leading opening fence and a trailing closing fence from
// text. Markers are only removed when fully present: a partial fence such
// as "``" or "```py" without its line break is returned untouched.
//
// A closing fence may start a line or follow code on the last line. The
// line break ending the last line of code is kept, so
// "```python\ndef f(): pass\n```" becomes "def f(): pass\n".
func Clean(text string) string {
	out := stripOpener(text)
	return stripCloser(out)
}

func stripOpener(s string) string {
	for _, tag := range fenceTags {
		if opener := fence + tag + "\n"; strings.HasPrefix(s, opener) {
			return s[len(opener):]
		}
	}
	if strings.HasPrefix(s, fence+"\n") {
		return s[len(fence)+1:]
	}
	return s
}

func stripCloser(s string) string {
	switch {
	case s == fence || s == fence+"\n":
		return ""
	case strings.HasSuffix(s, "\n"+fence+"\n"):
		return s[:len(s)-len(fence)-1]
	case strings.HasSuffix(s, "\n"+fence):
		return s[:len(s)-len(fence)]
	case strings.HasSuffix(s, fence):
		return s[:len(s)-len(fence)]
	default:
		return s
	}
}

// =============================================================================
// ACCUMULATOR
// =============================================================================

// Accumulator holds the raw text of one generation and its cleaned form.
//
// Each Append recomputes the cleaned output from the whole raw buffer, so a
// fence that is completed by a later fragment is stripped retroactively.
// The raw buffer itself is never trimmed.
//
// Thread-safety: safe for concurrent use, although a session only feeds it
// from its delivery goroutine.
type Accumulator struct {
	mu      sync.Mutex
	raw     strings.Builder
	cleaned string
	appends int
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append adds a fragment and returns the cleaned text accumulated so far.
func (a *Accumulator) Append(fragment string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.raw.WriteString(fragment)
	a.appends++
	a.cleaned = Clean(a.raw.String())
	return a.cleaned
}

// Raw returns every fragment received, concatenated and unmodified.
func (a *Accumulator) Raw() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.raw.String()
}

// Output returns the current cleaned text.
func (a *Accumulator) Output() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cleaned
}

// Len returns the number of fragments appended since the last reset.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.appends
}

// Reset discards all state so the accumulator can serve a new generation.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.raw.Reset()
	a.cleaned = ""
	a.appends = 0
}
