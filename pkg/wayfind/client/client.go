// Package client talks to the wayfindd index daemon over its unix
// socket. It implements search.CandidateSource so the searcher can be
// fed from the index transparently, and carries the daemon lifecycle
// helpers (auto-start, stop, restart) used by the CLI.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/daemon"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/logging"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/search"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// ErrDaemonUnavailable indicates no healthy daemon is reachable on the
// socket. Callers fall back to a direct walk.
var ErrDaemonUnavailable = errors.New("daemon unavailable")

// ErrNotIndexed indicates the daemon is up but has no index covering the
// requested root.
var ErrNotIndexed = errors.New(daemon.ErrNotIndexedMessage)

// DefaultDialTimeout bounds the unix socket dial.
const DefaultDialTimeout = 2 * time.Second

// DefaultCallTimeout bounds a full unary request/response exchange.
const DefaultCallTimeout = 10 * time.Second

// Client is a connection-per-request client for the wayfindd protocol.
type Client struct {
	socketPath  string
	dialTimeout time.Duration
	callTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithDialTimeout overrides the socket dial timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) { c.dialTimeout = d }
}

// WithCallTimeout overrides the per-call deadline.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.callTimeout = d }
}

// New creates a client for the daemon socket at socketPath.
func New(socketPath string, opts ...Option) *Client {
	c := &Client{
		socketPath:  socketPath,
		dialTimeout: DefaultDialTimeout,
		callTimeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SocketPath returns the socket this client targets.
func (c *Client) SocketPath() string {
	return c.socketPath
}

// dial opens one connection to the daemon. A missing socket file is the
// common "daemon not running" case and maps to ErrDaemonUnavailable.
func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	if _, err := os.Stat(c.socketPath); err != nil {
		return nil, fmt.Errorf("%w: socket %s: %v", ErrDaemonUnavailable, c.socketPath, err)
	}

	d := net.Dialer{Timeout: c.dialTimeout}
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
	}
	return conn, nil
}

// call performs one unary exchange: write the request line, read the
// response line, unmarshal the result.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	resp, reader, err := exchange(conn, method, params)
	if err != nil {
		return err
	}
	_ = reader // unary calls read nothing past the response line

	if !resp.OK {
		return errors.New(resp.Error)
	}
	if result != nil && resp.Result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("decoding %s result: %w", method, err)
		}
	}
	return nil
}

// exchange writes one request and reads the first response line. The
// returned reader is positioned after the response for streaming methods.
func exchange(conn net.Conn, method string, params any) (*daemon.Response, *bufio.Reader, error) {
	req := daemon.Request{Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding %s params: %w", method, err)
		}
		req.Params = raw
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding request: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return nil, nil, fmt.Errorf("%w: write: %v", ErrDaemonUnavailable, err)
	}

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read response: %v", ErrDaemonUnavailable, err)
	}

	var resp daemon.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, nil, fmt.Errorf("decoding response: %w", err)
	}
	return &resp, reader, nil
}

// Ping reports whether a daemon answers on the socket.
func (c *Client) Ping(ctx context.Context) bool {
	_, err := c.Status(ctx)
	return err == nil
}

// Candidates implements search.CandidateSource. Entries come back
// relative to root. When the daemon is unreachable or the root is not
// indexed the error wraps search.ErrSourceUnavailable, which tells the
// searcher to fall back to a direct walk. The scope is ignored here: the
// index is scope-agnostic and the searcher filters afterwards.
func (c *Client) Candidates(ctx context.Context, root string, _ types.Scope) ([]types.Entry, error) {
	var result daemon.CandidatesResult
	err := c.call(ctx, daemon.MethodCandidates, daemon.CandidatesParams{Root: root}, &result)
	if err != nil {
		if errors.Is(err, ErrDaemonUnavailable) {
			return nil, fmt.Errorf("%w: %v", search.ErrSourceUnavailable, err)
		}
		if err.Error() == daemon.ErrNotIndexedMessage {
			logging.Get("daemon").Debug("root not indexed by daemon", "root", root)
			return nil, fmt.Errorf("%w: %v", search.ErrSourceUnavailable, ErrNotIndexed)
		}
		return nil, err
	}
	return result.Entries, nil
}

// TriggerIndex asks the daemon to (re)index a root in the background.
func (c *Client) TriggerIndex(ctx context.Context, root string, force bool) (*daemon.IndexResult, error) {
	var result daemon.IndexResult
	if err := c.call(ctx, daemon.MethodIndex, daemon.IndexParams{Root: root, Force: force}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// IndexStatus reports the index state of a root.
func (c *Client) IndexStatus(ctx context.Context, root string) (*daemon.IndexStatusResult, error) {
	var result daemon.IndexStatusResult
	if err := c.call(ctx, daemon.MethodIndexStatus, daemon.IndexStatusParams{Root: root}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// IsIndexReady reports whether a ready index covers root.
func (c *Client) IsIndexReady(ctx context.Context, root string) bool {
	status, err := c.IndexStatus(ctx, root)
	return err == nil && status.State == daemon.IndexStateReady
}

// Status reports daemon health.
func (c *Client) Status(ctx context.Context) (*daemon.StatusResult, error) {
	var result daemon.StatusResult
	if err := c.call(ctx, daemon.MethodStatus, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Clear drops the index for a root, or all indexes when root is empty.
func (c *Client) Clear(ctx context.Context, root string) (*daemon.ClearResult, error) {
	var result daemon.ClearResult
	if err := c.call(ctx, daemon.MethodClear, daemon.ClearParams{Root: root}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Shutdown asks the daemon to stop.
func (c *Client) Shutdown(ctx context.Context) error {
	var result daemon.ShutdownResult
	return c.call(ctx, daemon.MethodShutdown, nil, &result)
}

// Watch subscribes to filesystem events under root. Events are delivered
// on the returned channel until ctx is cancelled or the daemon closes the
// stream; the channel is closed either way.
func (c *Client) Watch(ctx context.Context, root string, exclude []string) (<-chan daemon.WatchEvent, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	resp, reader, err := exchange(conn, daemon.MethodWatch, daemon.WatchParams{Root: root, Exclude: exclude})
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if !resp.OK {
		_ = conn.Close()
		return nil, errors.New(resp.Error)
	}

	events := make(chan daemon.WatchEvent, 64)
	go streamLines(ctx, conn, reader, events)
	return events, nil
}

// WatchProgress subscribes to indexing progress for root. The stream ends
// when indexing settles (ready or stale).
func (c *Client) WatchProgress(ctx context.Context, root string) (<-chan daemon.IndexProgressEvent, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	resp, reader, err := exchange(conn, daemon.MethodWatchProgress, daemon.WatchProgressParams{Root: root})
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if !resp.OK {
		_ = conn.Close()
		return nil, errors.New(resp.Error)
	}

	events := make(chan daemon.IndexProgressEvent, 16)
	go streamLines(ctx, conn, reader, events)
	return events, nil
}

// streamLines decodes one JSON event per line into the channel until the
// connection or context ends. Closing the connection on ctx.Done unblocks
// the pending read.
func streamLines[T any](ctx context.Context, conn net.Conn, reader *bufio.Reader, events chan<- T) {
	defer close(events)
	defer func() { _ = conn.Close() }()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}
		var event T
		if err := json.Unmarshal(line, &event); err != nil {
			logging.Get("daemon").Debug("dropping malformed stream event", "error", err)
			continue
		}
		select {
		case events <- event:
		case <-ctx.Done():
			return
		}
	}
}
