package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIDFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wayfindd.pid")

	require.NoError(t, WritePIDFile(path))

	pid, err := ReadPIDFile(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, RemovePIDFile(path))
	_, err = ReadPIDFile(path)
	assert.Error(t, err)
}

func TestReadPIDFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wayfindd.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0o644))

	_, err := ReadPIDFile(path)
	assert.Error(t, err)
}

func TestIsDaemonRunning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wayfindd.pid")

	assert.False(t, IsDaemonRunning(path), "missing PID file means not running")

	// Our own PID is definitely running.
	require.NoError(t, WritePIDFile(path))
	assert.True(t, IsDaemonRunning(path))
}

func TestRecoverFromStaleDaemon(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "wayfindd.pid")
	socketPath := filepath.Join(dir, "wayfindd.sock")

	t.Run("no pid file", func(t *testing.T) {
		assert.NoError(t, RecoverFromStaleDaemon(pidPath, socketPath, dir))
	})

	t.Run("live daemon", func(t *testing.T) {
		require.NoError(t, WritePIDFile(pidPath))
		defer func() { _ = os.Remove(pidPath) }()
		assert.ErrorIs(t, RecoverFromStaleDaemon(pidPath, socketPath, dir), ErrDaemonAlreadyRunning)
	})

	t.Run("stale daemon cleaned up", func(t *testing.T) {
		// PID unlikely to exist.
		require.NoError(t, os.WriteFile(pidPath, []byte("999999"), 0o644))
		require.NoError(t, os.WriteFile(socketPath, []byte(""), 0o644))

		require.NoError(t, RecoverFromStaleDaemon(pidPath, socketPath, dir))
		assert.NoFileExists(t, pidPath)
		assert.NoFileExists(t, socketPath)
	})
}
