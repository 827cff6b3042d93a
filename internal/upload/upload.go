// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upload validates and decodes user-supplied source files.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxSize is the largest accepted file, in bytes.
const MaxSize = 1024 * 1024

// AllowedExtensions lists the accepted file suffixes.
var AllowedExtensions = []string{".py", ".pyw", ".pyi"}

// =============================================================================
// REJECTION
// =============================================================================

// RejectReason says why a file was refused.
type RejectReason int

const (
	ReasonWrongType RejectReason = iota
	ReasonTooLarge
	ReasonUnreadable
)

// String returns the string representation of a reason.
func (r RejectReason) String() string {
	switch r {
	case ReasonWrongType:
		return "wrong_type"
	case ReasonTooLarge:
		return "too_large"
	case ReasonUnreadable:
		return "unreadable"
	default:
		return "unknown"
	}
}

// Message returns the notice shown to the user.
func (r RejectReason) Message() string {
	switch r {
	case ReasonWrongType:
		return "Please upload a Python file (.py)"
	case ReasonTooLarge:
		return "File too large. Max 1MB."
	default:
		return "Failed to read file"
	}
}

// RejectError is returned for every refused file.
type RejectError struct {
	Reason   RejectReason
	Filename string
	Size     int64
	Cause    error
}

// Error implements the error interface.
func (e *RejectError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Filename, e.Reason.Message(), e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Filename, e.Reason.Message())
}

// Unwrap returns the underlying cause.
func (e *RejectError) Unwrap() error {
	return e.Cause
}

// ReasonOf extracts the reject reason from err.
func ReasonOf(err error) (RejectReason, bool) {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return 0, false
}

// =============================================================================
// VALIDATION
// =============================================================================

// File is an accepted, decoded source file.
type File struct {
	Name    string `json:"filename"`
	Content string `json:"content"`
	Size    int64  `json:"size"`
}

// BaseName strips any directory part a client may have sent, using
// either slash convention.
func BaseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// HasAllowedExtension reports whether name ends in an accepted suffix.
func HasAllowedExtension(name string) bool {
	for _, ext := range AllowedExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Check validates a file's name and declared size before it is read.
// The type check comes first, matching what a user sees when picking a
// large file of the wrong kind.
func Check(name string, size int64) error {
	base := BaseName(name)
	if !HasAllowedExtension(base) {
		return &RejectError{Reason: ReasonWrongType, Filename: base, Size: size}
	}
	if size > MaxSize {
		return &RejectError{Reason: ReasonTooLarge, Filename: base, Size: size}
	}
	return nil
}

// Read validates and decodes a file. size is the declared size, or -1 when
// unknown; the content is capped at MaxSize either way.
func Read(name string, size int64, r io.Reader) (*File, error) {
	base := BaseName(name)
	if err := Check(base, size); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, &RejectError{Reason: ReasonUnreadable, Filename: base, Size: size, Cause: err}
	}
	if len(data) > MaxSize {
		return nil, &RejectError{Reason: ReasonTooLarge, Filename: base, Size: int64(len(data))}
	}

	content, err := Decode(data)
	if err != nil {
		return nil, &RejectError{Reason: ReasonUnreadable, Filename: base, Size: int64(len(data)), Cause: err}
	}

	return &File{Name: base, Content: content, Size: int64(len(data))}, nil
}

// Open reads and validates a file from disk.
func Open(filePath string) (*File, error) {
	base := BaseName(filePath)
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, &RejectError{Reason: ReasonUnreadable, Filename: base, Cause: err}
	}
	if info.IsDir() {
		return nil, &RejectError{Reason: ReasonUnreadable, Filename: base, Cause: errors.New("is a directory")}
	}
	if err := Check(base, info.Size()); err != nil {
		return nil, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, &RejectError{Reason: ReasonUnreadable, Filename: base, Cause: err}
	}
	defer f.Close()

	return Read(base, info.Size(), f)
}

// =============================================================================
// DECODING
// =============================================================================

// Decode converts file bytes to text. A UTF-8 or UTF-16 byte order mark
// selects the encoding and is removed; otherwise the bytes are read as
// UTF-8. Invalid sequences become U+FFFD.
func Decode(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), decoder))
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	return string(out), nil
}
