// Package main provides the entry point for wayfindd, the background
// path index daemon.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/config"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/daemon"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/daemon/broadcaster"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/daemon/store"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/daemon/watcher"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wayfindd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	socketPath := cfg.Daemon.SocketPath
	if socketPath == "" {
		socketPath = config.DefaultSocketPath()
	}
	pidPath := cfg.Daemon.PIDPath
	if pidPath == "" {
		pidPath = config.DefaultPIDPath()
	}
	dataDir := cfg.Daemon.DataDir
	if dataDir == "" {
		dataDir = config.DefaultIndexDir()
	}
	statusPath := daemon.StatusPath(dataDir)

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(pidPath), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	logPath := cfg.Logging.Path
	if logPath == "" {
		logPath = config.DefaultLogPath()
	}
	if err := logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		Path:       logPath,
		Components: cfg.Logging.Components,
	}); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer func() { _ = logging.Close() }()

	log := logging.Get("daemon")

	// A previous daemon that died without cleanup leaves a PID file, a
	// socket and a badger LOCK behind.
	if err := daemon.RecoverFromStaleDaemon(pidPath, socketPath, dataDir); err != nil {
		if errors.Is(err, daemon.ErrDaemonAlreadyRunning) {
			return errors.New("wayfindd is already running")
		}
		return err
	}

	s, err := store.Open(filepath.Join(dataDir, "index.db"))
	if err != nil {
		_ = daemon.WriteStatusError(statusPath, err)
		return fmt.Errorf("opening index store: %w", err)
	}
	defer func() { _ = s.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if s.NeedsMigration() {
		log.Info("migrating index schema")
		version, err := s.Migrate(ctx, func(p store.MigrationProgress) {
			log.Info("migration progress",
				"from", p.FromVersion, "to", p.ToVersion,
				"entries", p.EntriesDone, "total", p.EntriesTotal)
		})
		if err != nil {
			_ = daemon.WriteStatusError(statusPath, err)
			return fmt.Errorf("migrating index store: %w", err)
		}
		log.Info("migration complete", "schema_version", version)
	}

	b := broadcaster.New()
	defer b.Close()

	svc := daemon.NewServiceWithBroadcaster(s, b)

	w, err := watcher.New(s)
	if err != nil {
		_ = daemon.WriteStatusError(statusPath, err)
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = w.Close() }()
	w.SetBroadcaster(b)
	svc.SetWatcher(w)

	go w.Run(ctx, func(path string, op fsnotify.Op) {
		log.Debug("filesystem change", "path", path, "op", op.String())
	})

	// Re-establish watches on roots indexed by a previous run.
	roots, err := s.Roots()
	if err == nil {
		for _, root := range roots {
			if err := w.Watch(root); err != nil {
				log.Warn("failed to watch indexed root", "root", root, "error", err)
			}
		}
	}

	srv, err := daemon.NewServer(daemon.Config{SocketPath: socketPath, DataDir: dataDir}, svc)
	if err != nil {
		_ = daemon.WriteStatusError(statusPath, err)
		return fmt.Errorf("creating server: %w", err)
	}
	defer func() { _ = srv.Close() }()

	if err := daemon.WritePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer func() { _ = daemon.RemovePIDFile(pidPath) }()

	if err := daemon.WriteStatusReady(statusPath); err != nil {
		log.Warn("failed to write status file", "error", err)
	}
	defer func() { _ = daemon.RemoveStatus(statusPath) }()

	// Shut down on SIGINT/SIGTERM or a client shutdown request.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, shutting down", "signal", sig.String())
		case <-srv.ShutdownRequested():
			log.Info("shutdown requested by client")
		}
		cancel()
		_ = srv.Close()
	}()

	log.Info("wayfindd started", "socket", socketPath, "pid", os.Getpid())

	if err := srv.Serve(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("wayfindd stopped")
	return nil
}
