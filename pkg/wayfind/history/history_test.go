package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates history with valid directory", func(t *testing.T) {
		t.Parallel()
		h, err := New(t.TempDir())
		if err != nil {
			t.Fatalf("New() error = %v, want nil", err)
		}
		if h == nil {
			t.Fatal("New() returned nil")
		}
	})

	t.Run("returns error for empty directory", func(t *testing.T) {
		t.Parallel()
		if _, err := New(""); err == nil {
			t.Fatal("New() error = nil, want error for empty directory")
		}
	})
}

func TestHistory_RecordAndList(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	h, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.EnsureDir(); err != nil {
		t.Fatal(err)
	}

	recorded, err := h.Record(Entry{
		Root:    "/home/user/projects",
		Query:   []string{"api", "docs"},
		Scope:   types.ScopeFolders,
		Matches: 3,
		Elapsed: 42 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if recorded.ID == "" {
		t.Error("recorded entry has empty ID")
	}
	if recorded.Timestamp.IsZero() {
		t.Error("recorded entry has zero timestamp")
	}

	entries, err := h.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(entries))
	}
	got := entries[0]
	if got.Root != "/home/user/projects" {
		t.Errorf("Root = %q", got.Root)
	}
	if len(got.Query) != 2 || got.Query[0] != "api" {
		t.Errorf("Query = %v", got.Query)
	}
	if got.Scope != types.ScopeFolders {
		t.Errorf("Scope = %v", got.Scope)
	}
	if got.Matches != 3 {
		t.Errorf("Matches = %d", got.Matches)
	}
}

func TestHistory_ListNewestFirst(t *testing.T) {
	t.Parallel()
	h, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := h.EnsureDir(); err != nil {
		t.Fatal(err)
	}

	for _, root := range []string{"/first", "/second", "/third"} {
		if _, err := h.Record(Entry{Root: root, Query: []string{"x"}, Scope: types.ScopeBoth}); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	entries, err := h.List(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("List(2) returned %d entries", len(entries))
	}
	if entries[0].Root != "/third" || entries[1].Root != "/second" {
		t.Errorf("order = [%s, %s], want newest first", entries[0].Root, entries[1].Root)
	}
}

func TestHistory_ListSkipsCorruptEntries(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	h, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.EnsureDir(); err != nil {
		t.Fatal(err)
	}

	if _, err := h.Record(Entry{Root: "/ok", Query: []string{"x"}, Scope: types.ScopeBoth}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := h.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("List() returned %d entries, want 1 (corrupt skipped)", len(entries))
	}
}

func TestHistory_ListMissingDir(t *testing.T) {
	t.Parallel()
	h, err := New(filepath.Join(t.TempDir(), "never-created"))
	if err != nil {
		t.Fatal(err)
	}

	entries, err := h.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("List() returned %d entries, want 0", len(entries))
	}
}

func TestHistory_Clear(t *testing.T) {
	t.Parallel()
	h, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := h.EnsureDir(); err != nil {
		t.Fatal(err)
	}

	if _, err := h.Record(Entry{Root: "/a", Query: []string{"x"}, Scope: types.ScopeBoth}); err != nil {
		t.Fatal(err)
	}
	if err := h.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	entries, err := h.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("entries remain after Clear: %d", len(entries))
	}
}

func TestHistory_Cleanup(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	h, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.EnsureDir(); err != nil {
		t.Fatal(err)
	}

	old, err := h.Record(Entry{Root: "/old", Query: []string{"x"}, Scope: types.ScopeBoth})
	if err != nil {
		t.Fatal(err)
	}
	// Age the file past the retention window.
	oldPath := filepath.Join(dir, old.ID+".json")
	past := time.Now().AddDate(0, 0, -40)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatal(err)
	}

	if _, err := h.Record(Entry{Root: "/new", Query: []string{"y"}, Scope: types.ScopeBoth}); err != nil {
		t.Fatal(err)
	}

	if err := h.Cleanup(30); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	entries, err := h.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Root != "/new" {
		t.Errorf("after cleanup entries = %+v, want only /new", entries)
	}
}
