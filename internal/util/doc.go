// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the qa-assistant packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth: display-width truncation (CJK and emoji aware)
//   - PadRight: pad to a display width for table columns
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	display := util.TruncateRunes(question, 60)
//	cell := util.PadRight(util.TruncateWidth(value, 20), 20)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
