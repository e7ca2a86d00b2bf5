package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic_ReplacesContent(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "current_user.json")

	if err := WriteFileAtomic(testFile, []byte(`{"id":"1"}`), 0600); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := WriteFileAtomic(testFile, []byte(`{"id":"2"}`), 0600); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	content, err := os.ReadFile(testFile)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != `{"id":"2"}` {
		t.Errorf("Content mismatch: got %q", string(content))
	}

	// No temp files left behind
	entries, _ := os.ReadDir(tmpDir)
	if len(entries) != 1 {
		t.Errorf("expected 1 file in dir, got %d", len(entries))
	}

	info, err := os.Stat(testFile)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "nope", "file.json")
	if err := WriteFileAtomic(testFile, []byte("x"), 0600); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestMkdirAllWithOwnership(t *testing.T) {
	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "a", "b", "c")

	err := MkdirAllWithOwnership(nested, 0755)
	if err != nil {
		t.Fatalf("MkdirAllWithOwnership failed: %v", err)
	}

	info, err := os.Stat(nested)
	if err != nil {
		t.Fatalf("Directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("Expected directory, got file")
	}
}
