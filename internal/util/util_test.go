// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "store.json")

	if err := AtomicWriteFile(path, []byte(`{"a":1}`), 0600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != `{"a":1}` {
		t.Errorf("Content mismatch: got %q", string(content))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Permissions = %v, want 0600", info.Mode().Perm())
	}
}

func TestAtomicWriteFile_Overwrite(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "overwrite.txt")

	if err := AtomicWriteFile(path, []byte("original"), 0644); err != nil {
		t.Fatalf("First write failed: %v", err)
	}
	if err := AtomicWriteFile(path, []byte("updated"), 0644); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != "updated" {
		t.Errorf("Content not updated: got %q", string(content))
	}

	// No temp files should be left behind
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 file in dir, got %d", len(entries))
	}
}

func TestAtomicWriteFileWithDir(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "newdir", "test.txt")

	if err := AtomicWriteFileWithDir(path, []byte("test"), 0600, 0700); err != nil {
		t.Fatalf("AtomicWriteFileWithDir failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("File not created: %v", err)
	}
}

func TestAtomicWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "log.json")

	if err := AtomicWriteJSON(path, map[string]int{"queries": 3}); err != nil {
		t.Fatalf("AtomicWriteJSON failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "{\n  \"queries\": 3\n}" {
		t.Errorf("unexpected content %q", data)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat failed: %v", err)
		}
		if info.Mode().Perm() != PrivateFile {
			t.Errorf("mode = %v, want %v", info.Mode().Perm(), PrivateFile)
		}
	}

	if err := AtomicWriteJSON(path, func() {}); err == nil {
		t.Error("expected an encode error for a func value")
	}
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	testCases := []struct {
		input    string
		maxRunes int
		expected string
	}{
		{"hello world", 5, "he..."},
		{"hello", 5, "hello"},
		{"", 5, ""},
		{"hello world", 0, ""},
		{"abcd", 3, "abc"},
		{"¿Qué es Angular?", 7, "¿Qué..."},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := TruncateRunes(tc.input, tc.maxRunes)
			if result != tc.expected {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q",
					tc.input, tc.maxRunes, result, tc.expected)
			}
		})
	}
}

func TestTruncateWidth(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		maxWidth int
	}{
		{"ascii", "hello world", 8},
		{"cjk", "日本語のテキスト", 7},
		{"short", "hi", 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := TruncateWidth(tc.input, tc.maxWidth)
			if w := StringWidth(result); w > tc.maxWidth {
				t.Errorf("TruncateWidth(%q, %d) = %q with width %d",
					tc.input, tc.maxWidth, result, w)
			}
		})
	}

	if got := TruncateWidth("hi", 10); got != "hi" {
		t.Errorf("short string should be unchanged, got %q", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 5); got != "ab   " {
		t.Errorf("PadRight = %q", got)
	}
	if got := PadRight("日本", 6); StringWidth(got) != 6 {
		t.Errorf("PadRight width = %d, want 6", StringWidth(got))
	}
	if got := PadRight("toolong", 3); got != "toolong" {
		t.Errorf("PadRight should not truncate, got %q", got)
	}
}

func TestSingleLine(t *testing.T) {
	if got := SingleLine("a\r\nb\nc"); got != "a b c" {
		t.Errorf("SingleLine = %q", got)
	}
}
