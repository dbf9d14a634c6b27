package cache

import (
	"bytes"
	"testing"
)

func TestMakeParseKey(t *testing.T) {
	tests := []struct {
		name    string
		root    string
		relPath string
	}{
		{"root only", "/home/user", ""},
		{"nested path", "/home/user", "projects/api/readme.md"},
		{"single segment", "/", "tmp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := MakeKey(tt.root, tt.relPath)
			root, relPath := ParseKey(key)
			if root != tt.root || relPath != tt.relPath {
				t.Errorf("round trip = (%q, %q), want (%q, %q)", root, relPath, tt.root, tt.relPath)
			}
		})
	}
}

func TestMakeKeyPrefix(t *testing.T) {
	prefix := MakeKeyPrefix("/home/user")
	key := MakeKey("/home/user", "projects")
	if !bytes.HasPrefix(key, prefix) {
		t.Errorf("key %q does not start with prefix %q", key, prefix)
	}

	other := MakeKey("/home/userother", "projects")
	if bytes.HasPrefix(other, prefix) {
		t.Error("prefix must not match sibling roots sharing a string prefix")
	}
}

func TestCachedEntryEncodeDecode(t *testing.T) {
	entry := &CachedEntry{
		IsDir:    true,
		Size:     0,
		Mtime:    1724400000000000000,
		Children: []string{"a", "b", "c"},
	}

	data, err := entry.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded CachedEntry
	if err := decoded.Decode(data); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded.IsDir != entry.IsDir || decoded.Mtime != entry.Mtime {
		t.Errorf("decoded = %+v, want %+v", decoded, entry)
	}
	if len(decoded.Children) != 3 {
		t.Errorf("decoded children = %v", decoded.Children)
	}
}
