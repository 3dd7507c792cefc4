// Command underwrite-up bootstraps a local underwriting session: it resolves
// the server binary, installs dependencies when the manifest changed, starts
// the server, waits for the port, and opens a browser tab.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/propforma/underwrite/internal/config"
	"github.com/propforma/underwrite/internal/launcher"
	"github.com/propforma/underwrite/internal/observability"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config YAML (defaults apply when absent)")
		serverCmd  = flag.String("server-cmd", "", "server command override")
		noBrowser  = flag.Bool("no-browser", false, "skip opening a browser tab")
		logLevel   = flag.String("log-level", observability.EnvLogLevel("info"), "log level: debug|info|warn|error")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	log := observability.NewLogger(*logLevel, cfg.Logging.Development)
	defer log.Sync() //nolint:errcheck

	command := cfg.Launcher.ServerCommand
	if *serverCmd != "" {
		command = *serverCmd
	}

	opts := launcher.Options{
		ServerCommand:  command,
		ServerArgs:     flag.Args(),
		ManifestPath:   cfg.Launcher.Manifest,
		MarkerPath:     cfg.Launcher.Marker,
		InstallCommand: cfg.Launcher.InstallCommand,
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadyTimeout:   cfg.Launcher.ReadyTimeout(),
		OpenBrowser:    cfg.Launcher.BrowserEnabled() && !*noBrowser,
		Browser:        cfg.Launcher.BrowserOverride,
		Log:            log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := launcher.Run(ctx, opts); err != nil {
		switch {
		case errors.Is(err, launcher.ErrServerNotFound):
			log.Errorw("server command not found", "command", command, "error", err)
			os.Exit(1)
		case errors.Is(err, launcher.ErrInstallFailed):
			log.Errorw("dependency install failed", "manifest", cfg.Launcher.Manifest, "error", err)
			os.Exit(1)
		case errors.Is(err, launcher.ErrNotReady):
			log.Errorw("server never became ready", "addr", cfg.Server.Addr(), "error", err)
			os.Exit(2)
		default:
			log.Errorw("launch failed", "error", err)
			os.Exit(2)
		}
	}
}
