package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/daemon"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/daemon/broadcaster"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/daemon/store"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/search"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// startDaemon runs an in-process daemon on a temp socket and returns a
// client for it, plus the broadcaster for injecting watch events.
func startDaemon(t *testing.T) (*Client, *broadcaster.Broadcaster) {
	t.Helper()

	dataDir := t.TempDir()
	socketPath := filepath.Join(dataDir, "wayfindd.sock")

	s, err := store.Open(filepath.Join(dataDir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	b := broadcaster.New()
	svc := daemon.NewServiceWithBroadcaster(s, b)
	srv, err := daemon.NewServer(daemon.Config{SocketPath: socketPath, DataDir: dataDir}, svc)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = srv.Close()
	})
	go func() { _ = srv.Serve(ctx) }()

	return New(socketPath), b
}

func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "projects", "api"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "projects", "api", "main.go"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	return root
}

func indexAndWait(t *testing.T, c *Client, root string) {
	t.Helper()
	ctx := context.Background()

	result, err := c.TriggerIndex(ctx, root, false)
	require.NoError(t, err)
	require.True(t, result.Started)

	require.Eventually(t, func() bool {
		return c.IsIndexReady(ctx, root)
	}, 5*time.Second, 50*time.Millisecond, "indexing never finished")
}

func TestClient_DaemonDown(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "nope.sock"))

	assert.False(t, c.Ping(context.Background()))

	_, err := c.Status(context.Background())
	assert.True(t, errors.Is(err, ErrDaemonUnavailable))
}

func TestClient_Status(t *testing.T) {
	c, _ := startDaemon(t)

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, os.Getpid(), status.PID)
	assert.True(t, c.Ping(context.Background()))
}

func TestClient_Candidates_NotIndexed(t *testing.T) {
	c, _ := startDaemon(t)

	_, err := c.Candidates(context.Background(), t.TempDir(), types.ScopeBoth)
	assert.True(t, errors.Is(err, search.ErrSourceUnavailable),
		"not-indexed must map to ErrSourceUnavailable so the searcher walks")
}

func TestClient_Candidates_DaemonDown(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "nope.sock"))

	_, err := c.Candidates(context.Background(), t.TempDir(), types.ScopeBoth)
	assert.True(t, errors.Is(err, search.ErrSourceUnavailable))
}

func TestClient_IndexThenCandidates(t *testing.T) {
	c, _ := startDaemon(t)
	root := buildTree(t)

	indexAndWait(t, c, root)

	entries, err := c.Candidates(context.Background(), root, types.ScopeBoth)
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	rels := make(map[string]bool)
	for _, e := range entries {
		rels[e.RelPath] = true
	}
	assert.True(t, rels["projects/api/main.go"])
	assert.True(t, rels["notes.txt"])
}

func TestClient_IndexStatus(t *testing.T) {
	c, _ := startDaemon(t)
	root := buildTree(t)

	status, err := c.IndexStatus(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, daemon.IndexStateNotIndexed, status.State)

	indexAndWait(t, c, root)

	status, err = c.IndexStatus(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, daemon.IndexStateReady, status.State)
	assert.Equal(t, int64(2), status.Files)
	assert.Equal(t, int64(2), status.Dirs)
}

func TestClient_Clear(t *testing.T) {
	c, _ := startDaemon(t)
	root := buildTree(t)

	indexAndWait(t, c, root)

	result, err := c.Clear(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.EntriesCleared)

	_, err = c.Candidates(context.Background(), root, types.ScopeBoth)
	assert.True(t, errors.Is(err, search.ErrSourceUnavailable))
}

func TestClient_Watch(t *testing.T) {
	c, b := startDaemon(t)
	root := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := c.Watch(ctx, root, nil)
	require.NoError(t, err)

	// Wait for the subscription to register before notifying.
	require.Eventually(t, func() bool {
		return b.SubscriberCount() == 1
	}, 2*time.Second, 20*time.Millisecond)

	b.Notify(filepath.Join(root, "new.txt"), broadcaster.EventCreated, false)

	select {
	case event := <-events:
		assert.Equal(t, "created", event.Type)
		assert.Equal(t, filepath.Join(root, "new.txt"), event.Path)
		assert.False(t, event.IsDir)
	case <-time.After(3 * time.Second):
		t.Fatal("no watch event delivered")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, 3*time.Second, 20*time.Millisecond, "channel must close on cancel")
}

func TestClient_WatchProgress(t *testing.T) {
	c, _ := startDaemon(t)
	root := buildTree(t)

	result, err := c.TriggerIndex(context.Background(), root, false)
	require.NoError(t, err)
	require.True(t, result.Started)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := c.WatchProgress(ctx, root)
	require.NoError(t, err)

	var last daemon.IndexProgressEvent
	for event := range events {
		last = event
	}
	assert.Equal(t, daemon.IndexStateReady, last.State)
}

func TestClient_Shutdown(t *testing.T) {
	c, _ := startDaemon(t)

	require.NoError(t, c.Shutdown(context.Background()))
}
