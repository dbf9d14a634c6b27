package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

func TestSchema_GetSet(t *testing.T) {
	s := openTestStore(t)

	assert.Nil(t, s.GetSchema())

	require.NoError(t, s.SetSchema(&Schema{Version: CurrentSchemaVersion}))

	schema := s.GetSchema()
	require.NotNil(t, schema)
	assert.Equal(t, CurrentSchemaVersion, schema.Version)
}

func TestNeedsMigration(t *testing.T) {
	t.Run("empty store needs nothing", func(t *testing.T) {
		s := openTestStore(t)
		assert.False(t, s.NeedsMigration())
	})

	t.Run("entries without schema need migration", func(t *testing.T) {
		s := openTestStore(t)
		require.NoError(t, s.Put("/root", types.Entry{RelPath: "a", Name: "a", Depth: 1}))
		assert.True(t, s.NeedsMigration())
	})

	t.Run("current schema needs nothing", func(t *testing.T) {
		s := openTestStore(t)
		require.NoError(t, s.Put("/root", types.Entry{RelPath: "a", Name: "a", Depth: 1}))
		require.NoError(t, s.SetSchema(&Schema{Version: CurrentSchemaVersion}))
		assert.False(t, s.NeedsMigration())
	})
}

func TestMigrate_RebuildsMeta(t *testing.T) {
	s := openTestStore(t)

	// Simulate a v1 database: entries present, no schema, no meta records.
	require.NoError(t, s.PutBatch("/root", sampleEntries()))
	require.NoError(t, s.PutBatch("/other", []types.Entry{
		{RelPath: "f.txt", Name: "f.txt", Depth: 1},
	}))

	run, err := s.Migrate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, run)

	meta := s.GetIndexMeta("/root")
	require.NotNil(t, meta)
	assert.Equal(t, int64(2), meta.Files)
	assert.Equal(t, int64(2), meta.Dirs)

	other := s.GetIndexMeta("/other")
	require.NotNil(t, other)
	assert.Equal(t, int64(1), other.Files)

	schema := s.GetSchema()
	require.NotNil(t, schema)
	assert.Equal(t, CurrentSchemaVersion, schema.Version)
	assert.False(t, s.NeedsMigration())
}

func TestMigrate_AlreadyCurrent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SetSchema(&Schema{Version: CurrentSchemaVersion}))

	run, err := s.Migrate(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, run)
}

func TestMigrate_Progress(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.PutBatch("/root", sampleEntries()))

	var updates []MigrationProgress
	_, err := s.Migrate(context.Background(), func(p MigrationProgress) {
		updates = append(updates, p)
	})
	require.NoError(t, err)

	require.NotEmpty(t, updates)
	final := updates[len(updates)-1]
	assert.Equal(t, int64(4), final.EntriesTotal)
	assert.Equal(t, int64(4), final.EntriesDone)
}
