package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/config"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/daemon"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/logging"
)

// daemonBinaryName is the executable the CLI launches for auto-start.
const daemonBinaryName = "wayfindd"

const (
	startPollInterval = 100 * time.Millisecond
	startPollAttempts = 50
	stopPollInterval  = 250 * time.Millisecond
	stopPollAttempts  = 20
)

// ErrDaemonBinaryNotFound indicates no wayfindd binary could be located.
var ErrDaemonBinaryNotFound = errors.New("wayfindd binary not found")

// DaemonPaths locates the daemon binary and its runtime files.
type DaemonPaths struct {
	Binary  string
	Socket  string
	PID     string
	DataDir string
}

// PathsFromConfig builds DaemonPaths from configuration, filling empty
// fields with XDG defaults.
func PathsFromConfig(cfg *config.DaemonConfig) DaemonPaths {
	p := DaemonPaths{}
	if cfg != nil {
		p.Binary = cfg.BinaryPath
		p.Socket = cfg.SocketPath
		p.PID = cfg.PIDPath
		p.DataDir = cfg.DataDir
	}
	return p.withDefaults()
}

func (p DaemonPaths) withDefaults() DaemonPaths {
	if p.Socket == "" {
		p.Socket = config.DefaultSocketPath()
	}
	if p.PID == "" {
		p.PID = config.DefaultPIDPath()
	}
	if p.DataDir == "" {
		p.DataDir = config.DefaultIndexDir()
	}
	return p
}

// EnsureDaemon makes sure a daemon is running, starting one when needed.
// It is a no-op when a live daemon already holds the PID file.
func EnsureDaemon(ctx context.Context, paths DaemonPaths) error {
	paths = paths.withDefaults()
	if daemon.IsDaemonRunning(paths.PID) {
		return nil
	}
	return StartDaemon(ctx, paths)
}

// StartDaemon launches wayfindd detached and waits for it to come up.
// Readiness is signalled by the socket appearing or the status file
// reporting ready; a status file reporting error fails the start.
func StartDaemon(ctx context.Context, paths DaemonPaths) error {
	paths = paths.withDefaults()
	log := logging.Get("daemon")

	if daemon.IsDaemonRunning(paths.PID) {
		return daemon.ErrDaemonAlreadyRunning
	}

	binary, err := resolveBinary(paths.Binary)
	if err != nil {
		return err
	}

	// A fresh start must not read a stale status file.
	statusPath := daemon.StatusPath(paths.DataDir)
	_ = os.Remove(statusPath)

	cmd := exec.Command(binary)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", binary, err)
	}
	// Detach: the daemon outlives this process.
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("detaching daemon process: %w", err)
	}

	log.Debug("daemon launched", "binary", binary, "socket", paths.Socket)

	for i := 0; i < startPollAttempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(startPollInterval):
		}

		if status, err := daemon.ReadStatus(statusPath); err == nil {
			switch status.Status {
			case "ready":
				return nil
			case "error":
				return fmt.Errorf("daemon failed to start: %s", status.Error)
			}
		}
		if _, err := os.Stat(paths.Socket); err == nil {
			return nil
		}
	}
	return fmt.Errorf("daemon did not become ready within %s", time.Duration(startPollAttempts)*startPollInterval)
}

// StopDaemon asks a running daemon to shut down and waits for its PID
// file to disappear. Stopping an already-stopped daemon is not an error.
func StopDaemon(ctx context.Context, paths DaemonPaths) error {
	paths = paths.withDefaults()

	if !daemon.IsDaemonRunning(paths.PID) {
		return nil
	}

	c := New(paths.Socket)
	if err := c.Shutdown(ctx); err != nil && !errors.Is(err, ErrDaemonUnavailable) {
		return fmt.Errorf("requesting shutdown: %w", err)
	}

	for i := 0; i < stopPollAttempts; i++ {
		if !daemon.IsDaemonRunning(paths.PID) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(stopPollInterval):
		}
	}
	return errors.New("daemon did not stop in time")
}

// RestartDaemon stops any running daemon and starts a fresh one.
func RestartDaemon(ctx context.Context, paths DaemonPaths) error {
	if err := StopDaemon(ctx, paths); err != nil {
		return err
	}
	return StartDaemon(ctx, paths)
}

// resolveBinary finds the wayfindd executable. Priority: configured path,
// the directory holding the current executable, GOBIN/GOPATH, then PATH.
func resolveBinary(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("configured daemon binary %s: %w", configured, err)
		}
		return configured, nil
	}

	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), daemonBinaryName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if gobin := os.Getenv("GOBIN"); gobin != "" {
		candidate := filepath.Join(gobin, daemonBinaryName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	if gopath := os.Getenv("GOPATH"); gopath != "" {
		candidate := filepath.Join(gopath, "bin", daemonBinaryName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(daemonBinaryName); err == nil {
		return path, nil
	}

	return "", ErrDaemonBinaryNotFound
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}
