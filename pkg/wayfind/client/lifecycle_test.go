package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/config"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/daemon"
)

func TestPathsFromConfig_Defaults(t *testing.T) {
	paths := PathsFromConfig(nil)

	assert.Equal(t, config.DefaultSocketPath(), paths.Socket)
	assert.Equal(t, config.DefaultPIDPath(), paths.PID)
	assert.Equal(t, config.DefaultIndexDir(), paths.DataDir)
	assert.Empty(t, paths.Binary)
}

func TestPathsFromConfig_Configured(t *testing.T) {
	cfg := &config.DaemonConfig{
		BinaryPath: "/opt/wayfindd",
		SocketPath: "/tmp/w.sock",
		PIDPath:    "/tmp/w.pid",
		DataDir:    "/tmp/w-index",
	}

	paths := PathsFromConfig(cfg)
	assert.Equal(t, "/opt/wayfindd", paths.Binary)
	assert.Equal(t, "/tmp/w.sock", paths.Socket)
	assert.Equal(t, "/tmp/w.pid", paths.PID)
	assert.Equal(t, "/tmp/w-index", paths.DataDir)
}

func TestResolveBinary_Configured(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "wayfindd")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755))

	resolved, err := resolveBinary(binary)
	require.NoError(t, err)
	assert.Equal(t, binary, resolved)
}

func TestResolveBinary_ConfiguredMissing(t *testing.T) {
	_, err := resolveBinary(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestResolveBinary_GOBIN(t *testing.T) {
	gobin := t.TempDir()
	binary := filepath.Join(gobin, "wayfindd")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755))

	t.Setenv("GOBIN", gobin)
	t.Setenv("GOPATH", t.TempDir())
	t.Setenv("PATH", "")

	resolved, err := resolveBinary("")
	require.NoError(t, err)
	assert.Equal(t, binary, resolved)
}

func TestResolveBinary_NotFound(t *testing.T) {
	t.Setenv("GOBIN", t.TempDir())
	t.Setenv("GOPATH", t.TempDir())
	t.Setenv("PATH", "")

	_, err := resolveBinary("")
	assert.True(t, errors.Is(err, ErrDaemonBinaryNotFound))
}

func TestIsExecutable(t *testing.T) {
	dir := t.TempDir()

	executable := filepath.Join(dir, "run")
	require.NoError(t, os.WriteFile(executable, []byte(""), 0o755))
	assert.True(t, isExecutable(executable))

	plain := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(plain, []byte(""), 0o644))
	assert.False(t, isExecutable(plain))

	assert.False(t, isExecutable(dir), "directories are not executables")
	assert.False(t, isExecutable(filepath.Join(dir, "missing")))
}

func TestEnsureDaemon_AlreadyRunning(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "wayfindd.pid")
	require.NoError(t, daemon.WritePIDFile(pidPath))

	// Our own PID is live, so EnsureDaemon must not try to start anything.
	err := EnsureDaemon(context.Background(), DaemonPaths{PID: pidPath, Socket: filepath.Join(dir, "s"), DataDir: dir})
	assert.NoError(t, err)
}

func TestStartDaemon_RefusesWhenRunning(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "wayfindd.pid")
	require.NoError(t, daemon.WritePIDFile(pidPath))

	err := StartDaemon(context.Background(), DaemonPaths{PID: pidPath, Socket: filepath.Join(dir, "s"), DataDir: dir})
	assert.True(t, errors.Is(err, daemon.ErrDaemonAlreadyRunning))
}

func TestStopDaemon_NotRunning(t *testing.T) {
	dir := t.TempDir()

	err := StopDaemon(context.Background(), DaemonPaths{
		PID:     filepath.Join(dir, "wayfindd.pid"),
		Socket:  filepath.Join(dir, "wayfindd.sock"),
		DataDir: dir,
	})
	assert.NoError(t, err)
}
