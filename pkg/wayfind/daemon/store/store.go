// Package store provides Badger DB-backed storage for the path index.
//
// Entries are scoped to the search root they were indexed under. Keys use
// a NUL separator between the root and the relative path, so roots can
// never collide through prefix overlap.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// Key prefixes for different data types
const (
	prefixEntry = "e:" // Indexed file/dir entries
	prefixMeta  = "m:" // Metadata (per-root counts, schema)

	metaRootPrefix = "m:root:"
)

// keySeparator splits the root from the relative path inside entry keys.
const keySeparator = "\x00"

// IndexMeta holds per-root index metadata for fast status lookups.
type IndexMeta struct {
	Files       int64     `json:"files"`
	Dirs        int64     `json:"dirs"`
	IndexedAt   time.Time `json:"indexed_at"`
	RootModTime int64     `json:"root_mod_time"`
}

// Store is the index storage backed by Badger DB.
type Store struct {
	db *badger.DB
}

// Open opens or creates a store at the given path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// entryKey builds the key for an entry under a root.
func entryKey(root, relPath string) []byte {
	return []byte(prefixEntry + root + keySeparator + relPath)
}

// rootPrefix returns the key prefix covering all entries under a root.
func rootPrefix(root string) []byte {
	return []byte(prefixEntry + root + keySeparator)
}

// Put stores a single entry under a root.
func (s *Store) Put(root string, entry types.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(root, entry.RelPath), data)
	})
}

// PutBatch stores multiple entries under a root efficiently.
func (s *Store) PutBatch(root string, entries []types.Entry) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := wb.Set(entryKey(root, entry.RelPath), data); err != nil {
			return err
		}
	}

	return wb.Flush()
}

// Get retrieves an entry by root and relative path.
func (s *Store) Get(root, relPath string) (*types.Entry, error) {
	var entry types.Entry

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(root, relPath))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})

	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// Delete removes a single entry.
func (s *Store) Delete(root, relPath string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(entryKey(root, relPath))
	})
}

// DeleteTree removes an entry and everything beneath it.
func (s *Store) DeleteTree(root, relPath string) error {
	if relPath == "" {
		return s.deletePrefix(rootPrefix(root))
	}
	if err := s.Delete(root, relPath); err != nil && !isNotFound(err) {
		return err
	}
	return s.deletePrefix(entryKey(root, relPath+"/"))
}

// DeleteRoot removes all entries and metadata for a root.
func (s *Store) DeleteRoot(root string) error {
	if err := s.deletePrefix(rootPrefix(root)); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(metaRootPrefix + root))
	})
}

// deletePrefix removes all keys with the given prefix.
func (s *Store) deletePrefix(prefix []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var keysToDelete [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keysToDelete = append(keysToDelete, it.Item().KeyCopy(nil))
		}

		for _, key := range keysToDelete {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}

		return nil
	})
}

// Candidates returns all entries indexed under a root.
func (s *Store) Candidates(root string) ([]types.Entry, error) {
	var results []types.Entry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := rootPrefix(root)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry types.Entry
				if err := json.Unmarshal(val, &entry); err != nil {
					return nil // Skip malformed entries
				}
				results = append(results, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return results, err
}

// CountEntries returns the number of files and directories under a root.
func (s *Store) CountEntries(root string) (files, dirs int64, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := rootPrefix(root)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry types.Entry
				if err := json.Unmarshal(val, &entry); err != nil {
					return nil
				}
				if entry.IsDir {
					dirs++
				} else {
					files++
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return files, dirs, err
}

// SetIndexMeta stores per-root index metadata.
func (s *Store) SetIndexMeta(root string, meta *IndexMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(metaRootPrefix+root), data)
	})
}

// GetIndexMeta returns metadata for a root, or nil if the root is not
// indexed.
func (s *Store) GetIndexMeta(root string) *IndexMeta {
	var meta *IndexMeta

	_ = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaRootPrefix + root))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			meta = &IndexMeta{}
			return json.Unmarshal(val, meta)
		})
	})

	return meta
}

// Roots returns all indexed roots, sorted.
func (s *Store) Roots() ([]string, error) {
	var roots []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(metaRootPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			if bytes.Equal(key, []byte(schemaKey)) {
				continue
			}
			roots = append(roots, string(key[len(prefix):]))
		}
		return nil
	})

	sort.Strings(roots)
	return roots, err
}

// HasIndex checks if a root has been indexed.
func (s *Store) HasIndex(root string) bool {
	return s.GetIndexMeta(root) != nil
}

// CoveringRoot returns the indexed root that covers the given path, if
// any. A root covers a path when the path equals the root or lies beneath
// it. When several roots cover the path the deepest one wins.
func (s *Store) CoveringRoot(path string) (string, bool) {
	roots, err := s.Roots()
	if err != nil {
		return "", false
	}

	best := ""
	for _, root := range roots {
		if IsPathUnderRoot(path, root) && len(root) > len(best) {
			best = root
		}
	}
	return best, best != ""
}

// IsPathUnderRoot checks if path is root or lies under it.
func IsPathUnderRoot(path, root string) bool {
	cleanRoot := filepath.Clean(root)
	cleanPath := filepath.Clean(path)
	return strings.HasPrefix(cleanPath, cleanRoot+string(filepath.Separator)) || cleanPath == cleanRoot
}

// isNotFound reports whether err is a Badger key-not-found error.
func isNotFound(err error) bool {
	return errors.Is(err, badger.ErrKeyNotFound)
}
