package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// CreateFile creates a file with the given content in the specified directory.
// It fails the test if the file cannot be created.
func CreateFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create parent directories for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create file %s: %v", path, err)
	}
	return path
}

// CreateDir creates a directory in the specified parent directory.
// It fails the test if the directory cannot be created.
func CreateDir(t *testing.T, parent, name string) string {
	t.Helper()

	path := filepath.Join(parent, name)
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("Failed to create directory %s: %v", path, err)
	}
	return path
}

// ReadFile reads the content of a file and returns it as a string.
// It fails the test if the file cannot be read.
func ReadFile(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// WriteChunked appends chunks of size bytes to path, pausing interval
// between them, and returns the total written. It blocks until done.
func WriteChunked(t *testing.T, path string, chunks, size int, interval time.Duration) int {
	t.Helper()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	chunk := make([]byte, size)
	for i := range chunk {
		chunk[i] = byte('a' + i%26)
	}
	total := 0
	for i := 0; i < chunks; i++ {
		if i > 0 {
			time.Sleep(interval)
		}
		n, err := f.Write(chunk)
		if err != nil {
			t.Fatalf("Failed to write chunk %d to %s: %v", i, path, err)
		}
		total += n
	}
	return total
}
