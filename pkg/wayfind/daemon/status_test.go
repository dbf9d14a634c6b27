package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFile_Ready(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wayfind.status")

	require.NoError(t, WriteStatusReady(path))

	status, err := ReadStatus(path)
	require.NoError(t, err)
	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, os.Getpid(), status.PID)
	assert.Empty(t, status.Error)
}

func TestStatusFile_Error(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wayfind.status")

	require.NoError(t, WriteStatusError(path, errors.New("badger lock held")))

	status, err := ReadStatus(path)
	require.NoError(t, err)
	assert.Equal(t, "error", status.Status)
	assert.Equal(t, "badger lock held", status.Error)
	assert.Zero(t, status.PID)
}

func TestStatusFile_RemoveAndMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wayfind.status")

	require.NoError(t, WriteStatusReady(path))
	require.NoError(t, RemoveStatus(path))

	_, err := ReadStatus(path)
	assert.Error(t, err)
}

func TestStatusPath(t *testing.T) {
	assert.Equal(t, "/data/wayfind.status", StatusPath("/data"))
}
