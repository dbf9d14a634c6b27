package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingWriterCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "wayfind.log")

	w, err := NewRotatingWriter(path, RotationConfig{})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	defer func() {
		_ = w.Close()
	}()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestRotatingWriterWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wayfind.log")

	w, err := NewRotatingWriter(path, RotationConfig{})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}

	msg := []byte("searched root=/tmp words=2\n")
	n, err := w.Write(msg)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len(msg) {
		t.Errorf("Write() = %d, want %d", n, len(msg))
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if string(data) != string(msg) {
		t.Errorf("log content = %q, want %q", data, msg)
	}
}

func TestRotatingWriterRotatesBySize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wayfind.log")

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 64, Daily: false})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	defer func() {
		_ = w.Close()
	}()

	line := strings.Repeat("x", 40) + "\n"
	for i := 0; i < 4; i++ {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}

	var rotated int
	for _, e := range entries {
		name := e.Name()
		if name != "wayfind.log" && strings.HasPrefix(name, "wayfind.") && strings.HasSuffix(name, ".log") {
			rotated++
		}
	}

	if rotated == 0 {
		t.Error("expected at least one rotated log file")
	}
}

func TestRotatingWriterAppliesDefaultMaxSize(t *testing.T) {
	dir := t.TempDir()
	w, err := NewRotatingWriter(filepath.Join(dir, "w.log"), RotationConfig{})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	defer func() {
		_ = w.Close()
	}()

	if w.cfg.MaxSize != DefaultRotationConfig().MaxSize {
		t.Errorf("MaxSize = %d, want default %d", w.cfg.MaxSize, DefaultRotationConfig().MaxSize)
	}
}
