// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff provides line-level diff computation and display rendering.
package diff

import (
	"strings"
)

// =============================================================================
// EDIT SCRIPT TYPES
// =============================================================================

// OpKind represents the kind of an edit run.
type OpKind int

const (
	// OpUnchanged marks lines present in both texts
	OpUnchanged OpKind = iota
	// OpAdded marks lines only present in the modified text
	OpAdded
	// OpRemoved marks lines only present in the original text
	OpRemoved
)

// String returns the string representation of an op kind.
func (k OpKind) String() string {
	switch k {
	case OpUnchanged:
		return "unchanged"
	case OpAdded:
		return "added"
	case OpRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// EditOp is a contiguous run of lines that share one kind.
type EditOp struct {
	Kind  OpKind
	Lines []string
}

// Script is an ordered edit script transforming one text into another.
type Script []EditOp

// =============================================================================
// LINE SPLITTING
// =============================================================================

// SplitLines splits text on newlines. An empty string is a single empty
// line, and a trailing newline yields a trailing empty line, so that
// JoinLines(SplitLines(s)) == s for every s.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// OldSide returns the lines of the original text described by the script.
func OldSide(script Script) []string {
	var lines []string
	for _, op := range script {
		if op.Kind != OpAdded {
			lines = append(lines, op.Lines...)
		}
	}
	return lines
}

// NewSide returns the lines of the modified text described by the script.
func NewSide(script Script) []string {
	var lines []string
	for _, op := range script {
		if op.Kind != OpRemoved {
			lines = append(lines, op.Lines...)
		}
	}
	return lines
}

// =============================================================================
// DIFF COMPUTATION
// =============================================================================

// Compute returns the line edit script between original and modified.
//
// Common leading and trailing lines are peeled off first, and the
// remaining middle is diffed with the Myers O(ND) algorithm. Within every
// change region the removed lines precede the added lines.
func Compute(original, modified string) Script {
	a := SplitLines(original)
	b := SplitLines(modified)

	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}

	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix &&
		a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}

	var out builder
	out.emit(OpUnchanged, a[:prefix]...)
	for _, e := range myers(a[prefix:len(a)-suffix], b[prefix:len(b)-suffix]) {
		out.emit(e.kind, e.line)
	}
	out.emit(OpUnchanged, a[len(a)-suffix:]...)

	return out.finish()
}

// edit is a single-line edit produced by the Myers backtrack.
type edit struct {
	kind OpKind
	line string
}

// myers computes a shortest edit script between a and b.
// Each V snapshot only keeps the diagonals reachable at that depth, so
// memory grows with D squared rather than D times (N+M).
func myers(a, b []string) []edit {
	n, m := len(a), len(b)
	if n == 0 && m == 0 {
		return nil
	}

	maxD := n + m
	offset := maxD + 1
	v := make([]int, 2*maxD+3)

	var trace [][]int
	depth := -1

search:
	for d := 0; d <= maxD; d++ {
		lo := offset - d - 1
		hi := offset + d + 2
		snapshot := make([]int, hi-lo)
		copy(snapshot, v[lo:hi])
		trace = append(trace, snapshot)

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[offset+k] = x
			if x >= n && y >= m {
				depth = d
				break search
			}
		}
	}

	// Backtrack from (n, m) to (0, 0), collecting edits in reverse.
	edits := make([]edit, 0, n+m)
	x, y := n, m
	for d := depth; d >= 0; d-- {
		snapshot := trace[d]
		at := func(k int) int { return snapshot[k+d+1] }

		k := x - y
		var prevK int
		if k == -d || (k != d && at(k-1) < at(k+1)) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := at(prevK)
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			edits = append(edits, edit{kind: OpUnchanged, line: a[x-1]})
			x--
			y--
		}
		if d > 0 {
			if x == prevX {
				edits = append(edits, edit{kind: OpAdded, line: b[y-1]})
			} else {
				edits = append(edits, edit{kind: OpRemoved, line: a[x-1]})
			}
		}
		x, y = prevX, prevY
	}

	for i, j := 0, len(edits)-1; i < j; i, j = i+1, j-1 {
		edits[i], edits[j] = edits[j], edits[i]
	}
	return edits
}

// builder groups single-line edits into runs. Pending removed and added
// lines are held until the next unchanged line so each change region is
// emitted as one Removed run followed by one Added run.
type builder struct {
	script  Script
	removed []string
	added   []string
}

func (b *builder) emit(kind OpKind, lines ...string) {
	if len(lines) == 0 {
		return
	}
	switch kind {
	case OpRemoved:
		b.removed = append(b.removed, lines...)
	case OpAdded:
		b.added = append(b.added, lines...)
	default:
		b.flushChanges()
		b.push(OpUnchanged, lines)
	}
}

func (b *builder) flushChanges() {
	if len(b.removed) > 0 {
		b.push(OpRemoved, b.removed)
		b.removed = nil
	}
	if len(b.added) > 0 {
		b.push(OpAdded, b.added)
		b.added = nil
	}
}

func (b *builder) push(kind OpKind, lines []string) {
	if n := len(b.script); n > 0 && b.script[n-1].Kind == kind {
		b.script[n-1].Lines = append(b.script[n-1].Lines, lines...)
		return
	}
	b.script = append(b.script, EditOp{Kind: kind, Lines: append([]string(nil), lines...)})
}

func (b *builder) finish() Script {
	b.flushChanges()
	return b.script
}
