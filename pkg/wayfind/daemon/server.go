package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/logging"
)

// Config holds daemon server configuration.
type Config struct {
	SocketPath string
	DataDir    string
}

// Server accepts client connections on a unix socket and dispatches
// line-delimited JSON requests to the service.
type Server struct {
	cfg      Config
	service  *Service
	listener net.Listener

	mu       sync.Mutex
	closed   bool
	conns    map[net.Conn]struct{}
	shutdown chan struct{}
}

// NewServer creates a new daemon server around a service.
func NewServer(cfg Config, service *Service) (*Server, error) {
	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	// Remove stale socket if exists
	if err := os.RemoveAll(cfg.SocketPath); err != nil {
		return nil, err
	}

	// Ensure socket directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.SocketPath), 0o755); err != nil {
		return nil, err
	}

	// Create Unix socket listener
	var lc net.ListenConfig
	listener, err := lc.Listen(context.Background(), "unix", cfg.SocketPath)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:      cfg,
		service:  service,
		listener: listener,
		conns:    make(map[net.Conn]struct{}),
		shutdown: make(chan struct{}),
	}
	service.requestShutdown = srv.requestShutdown

	return srv, nil
}

// ShutdownRequested is closed when a client asks the daemon to stop.
func (s *Server) ShutdownRequested() <-chan struct{} {
	return s.shutdown
}

func (s *Server) requestShutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.shutdown:
	default:
		close(s.shutdown)
	}
}

// Serve accepts connections until the context is cancelled or Close is
// called.
func (s *Server) Serve(ctx context.Context) error {
	log := logging.Get("daemon")

	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed || ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Error("accept failed", "error", err)
			return err
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return nil
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		go s.handleConn(ctx, conn)
	}
}

// handleConn serves one connection: a single request, then either a
// single response or a response followed by an event stream.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	log := logging.Get("daemon")

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		writeResponse(conn, &Response{OK: false, Error: "malformed request"})
		return
	}

	log.Debug("request", "method", req.Method)

	switch req.Method {
	case MethodWatch:
		s.handleWatch(ctx, conn, req.Params)
	case MethodWatchProgress:
		s.handleWatchProgress(ctx, conn, req.Params)
	default:
		s.handleUnary(conn, &req)
	}
}

// handleUnary dispatches a single request/response method.
func (s *Server) handleUnary(conn net.Conn, req *Request) {
	var result any
	var err error

	switch req.Method {
	case MethodCandidates:
		var params CandidatesParams
		if err = json.Unmarshal(req.Params, &params); err == nil {
			result, err = s.service.Candidates(params)
		}
	case MethodIndex:
		var params IndexParams
		if err = json.Unmarshal(req.Params, &params); err == nil {
			result, err = s.service.TriggerIndex(params)
		}
	case MethodIndexStatus:
		var params IndexStatusParams
		if err = json.Unmarshal(req.Params, &params); err == nil {
			result, err = s.service.IndexStatus(params)
		}
	case MethodStatus:
		result, err = s.service.Status()
	case MethodClear:
		var params ClearParams
		if len(req.Params) > 0 {
			err = json.Unmarshal(req.Params, &params)
		}
		if err == nil {
			result, err = s.service.Clear(params)
		}
	case MethodShutdown:
		result, err = s.service.Shutdown()
	default:
		err = errors.New("unknown method: " + req.Method)
	}

	if err != nil {
		writeResponse(conn, &Response{OK: false, Error: err.Error()})
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		writeResponse(conn, &Response{OK: false, Error: err.Error()})
		return
	}
	writeResponse(conn, &Response{OK: true, Result: data})
}

// handleWatch streams path events until the client disconnects.
func (s *Server) handleWatch(ctx context.Context, conn net.Conn, raw json.RawMessage) {
	var params WatchParams
	if err := json.Unmarshal(raw, &params); err != nil {
		writeResponse(conn, &Response{OK: false, Error: "malformed params"})
		return
	}

	if s.service.broadcaster == nil {
		writeResponse(conn, &Response{OK: false, Error: "file watching not available"})
		return
	}

	root, err := filepath.Abs(params.Root)
	if err != nil {
		writeResponse(conn, &Response{OK: false, Error: err.Error()})
		return
	}

	sub := s.service.broadcaster.Subscribe(root, params.Exclude)
	if sub == nil {
		writeResponse(conn, &Response{OK: false, Error: "failed to subscribe"})
		return
	}
	defer s.service.broadcaster.Unsubscribe(sub.ID)

	writeResponse(conn, &Response{OK: true})

	// Detect client disconnect by reading; the client never sends more.
	connClosed := make(chan struct{})
	go func() {
		buf := make([]byte, 1)
		_, _ = conn.Read(buf)
		close(connClosed)
	}()

	encoder := json.NewEncoder(conn)
	for {
		select {
		case <-ctx.Done():
			return
		case <-connClosed:
			return
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			err := encoder.Encode(WatchEvent{
				Type:  event.Type.String(),
				Path:  event.Path,
				IsDir: event.IsDir,
			})
			if err != nil {
				return
			}
		}
	}
}

// handleWatchProgress streams indexing progress until the run finishes.
func (s *Server) handleWatchProgress(ctx context.Context, conn net.Conn, raw json.RawMessage) {
	var params WatchProgressParams
	if err := json.Unmarshal(raw, &params); err != nil {
		writeResponse(conn, &Response{OK: false, Error: "malformed params"})
		return
	}

	root, err := filepath.Abs(params.Root)
	if err != nil {
		writeResponse(conn, &Response{OK: false, Error: err.Error()})
		return
	}

	writeResponse(conn, &Response{OK: true})

	encoder := json.NewEncoder(conn)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			event, done := s.service.progressSnapshot(root)
			if err := encoder.Encode(event); err != nil {
				return
			}
			if done {
				return
			}
		}
	}
}

// writeResponse writes one response line, ignoring write errors: the
// client may already be gone.
func writeResponse(conn net.Conn, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = conn.Write(data)
}

// Close stops the server and cleans up the socket.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conns := make([]net.Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}

	err := s.listener.Close()
	if removeErr := os.RemoveAll(s.cfg.SocketPath); err == nil {
		err = removeErr
	}
	return err
}
