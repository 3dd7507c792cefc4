// Package launcher prepares and starts the local server for a human operator:
// it resolves the server binary, ensures declared dependencies are installed,
// waits for the port to accept connections, and only then opens a browser tab.
package launcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrServerNotFound means the server binary could not be resolved.
	ErrServerNotFound = errors.New("launcher: server command not found")
	// ErrInstallFailed means the dependency install step did not complete.
	ErrInstallFailed = errors.New("launcher: dependency install failed")
	// ErrNotReady means the server never accepted a connection within the
	// readiness deadline.
	ErrNotReady = errors.New("launcher: server did not become ready")
)

// Options configures a launch.
type Options struct {
	ServerCommand string
	ServerArgs    []string

	ManifestPath   string
	MarkerPath     string
	InstallCommand []string

	Host         string
	Port         int
	ReadyTimeout time.Duration
	PollInterval time.Duration

	OpenBrowser bool
	Browser     string // override command; empty picks the platform default

	Log *zap.SugaredLogger
}

func (o *Options) defaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = 250 * time.Millisecond
	}
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = 30 * time.Second
	}
	if o.MarkerPath == "" {
		o.MarkerPath = ".deps_installed"
	}
}

// Run executes the full launch sequence and blocks until the server process
// exits or ctx is cancelled. The returned error wraps one of the package
// sentinels for conditions the operator must fix.
func Run(ctx context.Context, opts Options) error {
	opts.defaults()
	log := opts.Log

	binary, err := ResolveServer(opts.ServerCommand)
	if err != nil {
		return err
	}
	log.Infow("server binary resolved", "path", binary)

	if opts.ManifestPath != "" {
		installed, err := EnsureDeps(ctx, opts.ManifestPath, opts.MarkerPath, func(ctx context.Context) error {
			return runInstall(ctx, opts.InstallCommand)
		})
		if err != nil {
			return err
		}
		if installed {
			log.Infow("dependencies installed", "manifest", opts.ManifestPath)
		} else {
			log.Infow("dependencies up to date", "manifest", opts.ManifestPath)
		}
	}

	cmd := exec.CommandContext(ctx, binary, opts.ServerArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launcher: start server: %w", err)
	}
	log.Infow("server starting", "pid", cmd.Process.Pid, "addr", addr(opts))

	if err := WaitReady(ctx, addr(opts), opts.ReadyTimeout, opts.PollInterval); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		if ctx.Err() != nil {
			// An operator interrupt while waiting is normal termination, the
			// same as an interrupt after startup.
			return nil
		}
		return err
	}
	log.Infow("server ready", "addr", addr(opts))

	if opts.OpenBrowser {
		url := fmt.Sprintf("http://%s", addr(opts))
		if err := openBrowser(url, opts.Browser); err != nil {
			// The server is up; a failed browser open is not fatal.
			log.Warnw("open browser failed", "url", url, "error", err)
		} else {
			log.Infow("browser opened", "url", url)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("launcher: server exited: %w", err)
	}
	return nil
}

func addr(opts Options) string {
	return net.JoinHostPort(opts.Host, fmt.Sprint(opts.Port))
}

// ResolveServer locates the server binary: an explicit path is checked
// directly, a bare name goes through PATH lookup.
func ResolveServer(command string) (string, error) {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty command", ErrServerNotFound)
	}
	if strings.ContainsRune(trimmed, os.PathSeparator) {
		if _, err := os.Stat(trimmed); err != nil {
			return "", fmt.Errorf("%w: %s", ErrServerNotFound, trimmed)
		}
		return trimmed, nil
	}
	path, err := exec.LookPath(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrServerNotFound, trimmed)
	}
	return path, nil
}

// EnsureDeps runs install when the manifest's checksum differs from the one
// recorded in the marker file, and records the new checksum on success. The
// marker therefore tracks the manifest's content, not mere prior execution:
// editing the manifest re-triggers installation. Returns whether install ran.
func EnsureDeps(ctx context.Context, manifestPath, markerPath string, install func(context.Context) error) (bool, error) {
	manifest, err := os.ReadFile(manifestPath)
	if err != nil {
		return false, fmt.Errorf("launcher: read manifest: %w", err)
	}
	sum := sha256.Sum256(manifest)
	checksum := hex.EncodeToString(sum[:])

	if recorded, err := os.ReadFile(markerPath); err == nil {
		if strings.TrimSpace(string(recorded)) == checksum {
			return false, nil
		}
	}

	if install == nil {
		return false, fmt.Errorf("%w: no install command configured", ErrInstallFailed)
	}
	if err := install(ctx); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}
	if err := os.WriteFile(markerPath, []byte(checksum+"\n"), 0o644); err != nil {
		return true, fmt.Errorf("launcher: write marker: %w", err)
	}
	return true, nil
}

func runInstall(ctx context.Context, command []string) error {
	if len(command) == 0 {
		return errors.New("no install command configured")
	}
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// WaitReady polls the address until a TCP connection succeeds or the deadline
// passes. This replaces open-the-browser-after-a-timer guesswork with an
// actual readiness signal.
func WaitReady(ctx context.Context, address string, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		conn, err := net.DialTimeout("tcp", address, interval)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s after %s", ErrNotReady, address, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func openBrowser(url, override string) error {
	var cmd *exec.Cmd
	switch {
	case override != "":
		cmd = exec.Command(override, url)
	case runtime.GOOS == "darwin":
		cmd = exec.Command("open", url)
	case runtime.GOOS == "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
