package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// MigrationProgress reports migration progress.
type MigrationProgress struct {
	FromVersion  int
	ToVersion    int
	EntriesTotal int64
	EntriesDone  int64
	CurrentRoot  string
}

// MigrationProgressFunc is called with progress updates during migration.
type MigrationProgressFunc func(MigrationProgress)

// Migrate runs any pending migrations to bring the database up to current schema.
// Returns the number of migrations run, or an error.
func (s *Store) Migrate(ctx context.Context, onProgress MigrationProgressFunc) (int, error) {
	schema := s.GetSchema()
	fromVersion := 0
	if schema != nil {
		fromVersion = schema.Version
	} else if s.hasAnyEntries() {
		// Database has entries but no schema = v1 (original format)
		fromVersion = 1
	}

	if fromVersion >= CurrentSchemaVersion {
		return 0, nil // Already up to date
	}

	migrationsRun := 0

	// Run migrations in order
	for version := fromVersion + 1; version <= CurrentSchemaVersion; version++ {
		select {
		case <-ctx.Done():
			return migrationsRun, ctx.Err()
		default:
		}

		var err error
		switch version {
		case 2:
			err = s.migrateToV2(ctx, onProgress)
		}

		if err != nil {
			return migrationsRun, err
		}

		// Update schema version after each successful migration
		if err := s.SetSchema(&Schema{
			Version:   version,
			UpdatedAt: time.Now(),
		}); err != nil {
			return migrationsRun, err
		}

		migrationsRun++
	}

	return migrationsRun, nil
}

// rootCounts accumulates per-root entry counts during migration.
type rootCounts struct {
	files int64
	dirs  int64
}

// migrateToV2 rebuilds per-root metadata records from existing entries.
// Version 1 databases carry entries but no m:root: records, so index
// status lookups had to count entries on every call.
func (s *Store) migrateToV2(ctx context.Context, onProgress MigrationProgressFunc) error {
	var totalEntries int64
	if onProgress != nil {
		totalEntries = s.countAllEntries()
	}

	var entriesDone int64
	roots := make(map[string]*rootCounts)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixEntry)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			key := string(it.Item().Key())
			root, _, found := strings.Cut(key[len(prefixEntry):], keySeparator)
			if !found {
				continue
			}

			counts, ok := roots[root]
			if !ok {
				counts = &rootCounts{}
				roots[root] = counts
			}

			err := it.Item().Value(func(val []byte) error {
				var entry types.Entry
				if err := json.Unmarshal(val, &entry); err != nil {
					return nil //nolint:nilerr // intentionally skip malformed entries
				}

				if entry.IsDir {
					counts.dirs++
				} else {
					counts.files++
				}

				entriesDone++
				if onProgress != nil && entriesDone%10000 == 0 {
					onProgress(MigrationProgress{
						FromVersion:  1,
						ToVersion:    2,
						EntriesTotal: totalEntries,
						EntriesDone:  entriesDone,
						CurrentRoot:  root,
					})
				}

				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	now := time.Now()
	for root, counts := range roots {
		err := s.SetIndexMeta(root, &IndexMeta{
			Files:     counts.files,
			Dirs:      counts.dirs,
			IndexedAt: now,
		})
		if err != nil {
			return err
		}
	}

	// Final progress update
	if onProgress != nil {
		onProgress(MigrationProgress{
			FromVersion:  1,
			ToVersion:    2,
			EntriesTotal: totalEntries,
			EntriesDone:  entriesDone,
		})
	}

	return nil
}

// countAllEntries counts all entries in the store (for progress reporting).
func (s *Store) countAllEntries() int64 {
	var count int64
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixEntry)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count
}
