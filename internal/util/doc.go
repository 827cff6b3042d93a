// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util contains small file and text helpers shared by docgen.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writing with fsync and rename
//   - Width, Truncate, PadRight: terminal column arithmetic for East Asian
//     wide characters, backed by go-runewidth
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0644)
//	cell := util.PadRight(util.Truncate(line, 80), 80)
package util
