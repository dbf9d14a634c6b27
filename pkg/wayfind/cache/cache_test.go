package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func createTestTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	// root/
	//   notes.txt
	//   projects/
	//     api/
	//       readme.md

	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "projects", "api"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "projects", "api", "readme.md"), []byte("docs"), 0o644); err != nil {
		t.Fatal(err)
	}

	return root
}

// snapshotTree builds the cache entry map the walker would have collected.
func snapshotTree(t *testing.T, root string) map[string]*CachedEntry {
	t.Helper()
	entries := make(map[string]*CachedEntry)

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if relPath == "." {
			relPath = ""
		}
		relPath = filepath.ToSlash(relPath)
		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		entry := &CachedEntry{
			IsDir: d.IsDir(),
			Size:  info.Size(),
			Mtime: info.ModTime().UnixNano(),
		}
		if d.IsDir() {
			entry.Size = 0
			children, dirErr := os.ReadDir(path)
			if dirErr != nil {
				return dirErr
			}
			for _, c := range children {
				entry.Children = append(entry.Children, c.Name())
			}
		}
		entries[relPath] = entry
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir failed: %v", err)
	}
	return entries
}

func TestCacheOpenClose(t *testing.T) {
	cache, err := Open(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := cache.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestCacheEmptyIsStale(t *testing.T) {
	root := createTestTree(t)

	cache, err := Open(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	entries, staleDirs, err := cache.ValidateAndGetStale(root)
	if err != nil {
		t.Fatalf("ValidateAndGetStale failed: %v", err)
	}

	if len(staleDirs) == 0 {
		t.Error("expected stale dirs for empty cache")
	}
	if len(entries) != 0 {
		t.Error("expected no valid entries for empty cache")
	}
}

func TestCacheUpdateThenValidate(t *testing.T) {
	root := createTestTree(t)

	cache, err := Open(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	if err := cache.Update(root, snapshotTree(t, root)); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	entries, staleDirs, err := cache.ValidateAndGetStale(root)
	if err != nil {
		t.Fatalf("ValidateAndGetStale after update failed: %v", err)
	}

	if len(staleDirs) != 0 {
		t.Errorf("expected no stale dirs after update, got %v", staleDirs)
	}

	// notes.txt, projects, projects/api, projects/api/readme.md - the root
	// itself is never a candidate.
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	byRel := make(map[string]bool)
	for _, e := range entries {
		byRel[e.RelPath] = true
		if e.RelPath == "projects/api/readme.md" {
			if e.Depth != 3 {
				t.Errorf("readme.md depth = %d, want 3", e.Depth)
			}
			if e.Name != "readme.md" {
				t.Errorf("readme.md name = %q", e.Name)
			}
			if e.IsDir {
				t.Error("readme.md should not be a directory")
			}
		}
		if e.RelPath == "projects" && !e.IsDir {
			t.Error("projects should be a directory")
		}
	}
	for _, want := range []string{"notes.txt", "projects", "projects/api", "projects/api/readme.md"} {
		if !byRel[want] {
			t.Errorf("missing cached entry %q", want)
		}
	}
}

func TestCacheRootChangeInvalidates(t *testing.T) {
	root := createTestTree(t)

	cache, err := Open(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	entries := snapshotTree(t, root)
	// Pretend the root was cached with an older mtime.
	entries[""].Mtime -= int64(1e9)
	if err := cache.Update(root, entries); err != nil {
		t.Fatal(err)
	}

	valid, staleDirs, err := cache.ValidateAndGetStale(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(staleDirs) != 1 || staleDirs[0] != root {
		t.Errorf("expected root in stale dirs, got %v", staleDirs)
	}
	if len(valid) != 0 {
		t.Errorf("expected no valid entries for stale root, got %d", len(valid))
	}
}

func TestCacheClear(t *testing.T) {
	root := createTestTree(t)

	cache, err := Open(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	if err := cache.Update(root, snapshotTree(t, root)); err != nil {
		t.Fatal(err)
	}
	if err := cache.Clear(root); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	_, staleDirs, err := cache.ValidateAndGetStale(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(staleDirs) == 0 {
		t.Error("expected stale dirs after Clear")
	}
}

func TestCacheStats(t *testing.T) {
	root := createTestTree(t)

	cache, err := Open(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	if err := cache.Update(root, snapshotTree(t, root)); err != nil {
		t.Fatal(err)
	}

	stats, err := cache.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected stats for 1 root, got %d", len(stats))
	}
	if stats[0].Root != root {
		t.Errorf("stats root = %q, want %q", stats[0].Root, root)
	}
	// Root entry plus 4 descendants.
	if stats[0].Entries != 5 {
		t.Errorf("stats entries = %d, want 5", stats[0].Entries)
	}
}
