// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package docstyle

import (
	"fmt"
	"strings"
)

// =============================================================================
// STYLE EXAMPLES
// =============================================================================

const googleExample = `"""Summary line.

Args:
    param1 (type): Description.
    param2 (type): Description.

Returns:
    type: Description.

Raises:
    ErrorType: Description.

Examples:
    >>> example_call()
    result
"""`

const numpyExample = `"""
Summary line.

Parameters
----------
param1 : type
    Description.
param2 : type
    Description.

Returns
-------
type
    Description.

Raises
------
ErrorType
    Description.

Examples
--------
>>> example_call()
result
"""`

const restExample = `"""Summary line.

:param param1: Description.
:type param1: type
:param param2: Description.
:type param2: type
:returns: Description.
:rtype: type
:raises ErrorType: Description.

Example::

    >>> example_call()
    result
"""`

// Example returns a template docstring written in the style.
func (s Style) Example() string {
	switch s {
	case NumPy:
		return numpyExample
	case ReStructuredText:
		return restExample
	default:
		return googleExample
	}
}

// Guide returns the style description embedded in the system prompt.
func (s Style) Guide() string {
	var name string
	switch s {
	case NumPy:
		name = "NumPy"
	case ReStructuredText:
		name = "reStructuredText"
	default:
		name = "Google"
	}
	return fmt.Sprintf("%s style docstrings. Example:\n%s", name, s.Example())
}

// =============================================================================
// PROMPTS
// =============================================================================

var rules = []string{
	"Analyze each function/class to understand its purpose, parameters, return values, and potential exceptions.",
	"Add docstrings ONLY to functions and classes that don't already have them.",
	"Keep existing docstrings unchanged.",
	"Do NOT modify any code logic - only add docstrings.",
	"Include parameter types when inferable from the code.",
	"Include Examples section with realistic usage examples.",
	"Return ONLY the complete Python code with docstrings added. No explanations, no markdown code fences.",
	"Preserve exact indentation and formatting of the original code.",
}

// SystemPrompt returns the instructions given to the model for style s.
func SystemPrompt(s Style) string {
	var sb strings.Builder
	sb.WriteString("You are a Python documentation expert. Your task is to add professional docstrings to Python functions and classes.\n\n")
	sb.WriteString("RULES:\n")
	fmt.Fprintf(&sb, "1. Use %s docstring format: %s\n", s, s.Guide())
	for i, rule := range rules {
		fmt.Fprintf(&sb, "%d. %s", i+2, rule)
		if i < len(rules)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// UserPrompt wraps the code to document.
func UserPrompt(code string) string {
	return "Add professional docstrings to the following Python code:\n\n" + code
}
