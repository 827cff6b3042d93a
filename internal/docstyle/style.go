// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package docstyle defines the supported docstring conventions and builds
// the prompts sent to the generation model for each of them.
package docstyle

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStyle is returned by Parse for a style name outside the
// supported set.
var ErrUnknownStyle = errors.New("unknown docstring style")

// Style is a docstring formatting convention.
type Style int

const (
	Google Style = iota
	NumPy
	ReStructuredText
)

// Default is the style used when none is requested.
const Default = Google

// Wire names for each style.
const (
	NameGoogle           = "google"
	NameNumPy            = "numpy"
	NameReStructuredText = "restructuredtext"
)

// All returns every supported style in display order.
func All() []Style {
	return []Style{Google, NumPy, ReStructuredText}
}

// Parse converts a wire name into a Style. The empty string selects the
// default style; any other unrecognised name is rejected.
func Parse(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Default, nil
	case NameGoogle:
		return Google, nil
	case NameNumPy:
		return NumPy, nil
	case NameReStructuredText, "rest", "rst":
		return ReStructuredText, nil
	default:
		return Default, fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownStyle, s, strings.Join(Names(), ", "))
	}
}

// Names returns the wire names of all styles.
func Names() []string {
	styles := All()
	names := make([]string, len(styles))
	for i, s := range styles {
		names[i] = s.String()
	}
	return names
}

// String returns the wire name of the style.
func (s Style) String() string {
	switch s {
	case Google:
		return NameGoogle
	case NumPy:
		return NameNumPy
	case ReStructuredText:
		return NameReStructuredText
	default:
		return "unknown"
	}
}

// Label returns the human-readable name of the style.
func (s Style) Label() string {
	switch s {
	case Google:
		return "Google Style"
	case NumPy:
		return "NumPy Style"
	case ReStructuredText:
		return "reStructuredText"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the supported styles.
func (s Style) Valid() bool {
	return s >= Google && s <= ReStructuredText
}

// MarshalText implements encoding.TextMarshaler.
func (s Style) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStyle, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Style) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
