package helpers

import (
	"os"
	"path/filepath"
	"testing"
)

// TestBytesToSize tests human-readable size formatting
func TestBytesToSize(t *testing.T) {
	tests := []struct {
		bytes    uint64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}
	for _, tt := range tests {
		if got := BytesToSize(tt.bytes); got != tt.expected {
			t.Errorf("BytesToSize(%d) = %q, want %q", tt.bytes, got, tt.expected)
		}
	}
}

// TestCheckAndMakeDir tests directory creation
func TestCheckAndMakeDir(t *testing.T) {
	tempDir := t.TempDir()

	nested := filepath.Join(tempDir, "a", "b")
	if !CheckAndMakeDir(nested) {
		t.Errorf("Expected CheckAndMakeDir to create %s", nested)
	}
	info, err := os.Stat(nested)
	if err != nil || !info.IsDir() {
		t.Errorf("Expected %s to exist as a directory", nested)
	}

	// Existing directory is fine.
	if !CheckAndMakeDir(nested) {
		t.Error("Expected CheckAndMakeDir to succeed on an existing directory")
	}

	// A file in the way is not a directory.
	file := filepath.Join(tempDir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if CheckAndMakeDir(file) {
		t.Error("Expected CheckAndMakeDir to fail on a regular file")
	}

	if CheckAndMakeDir("") {
		t.Error("Expected CheckAndMakeDir to fail on an empty path")
	}
}

// TestSanitizeFilename tests stripping of path components and control characters
func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"dir/name.txt", "name.txt"},
		{"bad:name.txt", "bad_name.txt"},
		{"ctrl\x01char.txt", "ctrlchar.txt"},
		{"  spaced.txt  ", "spaced.txt"},
		{"", "attachment"},
		{"..", "attachment"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.name); got != tt.expected {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.name, got, tt.expected)
		}
	}
}

// TestUniquePath tests the numeric-suffix collision policy
func TestUniquePath(t *testing.T) {
	tempDir := t.TempDir()

	path := filepath.Join(tempDir, "a.txt")
	if got := UniquePath(path); got != path {
		t.Errorf("Expected free path to be returned unchanged, got %q", got)
	}

	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	want := filepath.Join(tempDir, "a (1).txt")
	if got := UniquePath(path); got != want {
		t.Errorf("UniquePath with one collision = %q, want %q", got, want)
	}

	if err := os.WriteFile(want, []byte("x"), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	want2 := filepath.Join(tempDir, "a (2).txt")
	if got := UniquePath(path); got != want2 {
		t.Errorf("UniquePath with two collisions = %q, want %q", got, want2)
	}
}

// TestUniquePath_StatError tests that an unstattable path terminates
// the suffix search instead of looping
func TestUniquePath_StatError(t *testing.T) {
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	// Stat fails with ENOTDIR here, which is not "does not exist".
	path := filepath.Join(file, "a.txt")
	if got := UniquePath(path); got != path {
		t.Errorf("Expected unstattable path returned unchanged, got %q", got)
	}
}

// TestUniquePath_NoExtension tests collision handling for extensionless names
func TestUniquePath_NoExtension(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "README")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	want := filepath.Join(tempDir, "README (1)")
	if got := UniquePath(path); got != want {
		t.Errorf("UniquePath(%q) = %q, want %q", path, got, want)
	}
}
