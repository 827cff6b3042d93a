// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package generate provides the Bubble Tea program behind
// "docgen generate". It runs a generation session for one file, streams
// the highlighted output into a viewport and offers diff, copy, save and
// regenerate actions.
package generate
