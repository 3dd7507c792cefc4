package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/propforma/underwrite/internal/config"
	"github.com/propforma/underwrite/internal/jobs"
	"github.com/propforma/underwrite/internal/observability"
	"github.com/propforma/underwrite/internal/render"
	"github.com/propforma/underwrite/internal/schema"
	"github.com/propforma/underwrite/internal/server"
	"github.com/propforma/underwrite/pkg/form"
)

var (
	configPath    = flag.String("config", "", "path to config YAML (defaults apply when absent)")
	addrFlag      = flag.String("addr", "", "listen address override (host:port)")
	schemaFlag    = flag.String("schema", "", "OpenAPI document override; watched for changes")
	templatesFlag = flag.String("templates", "", "templates directory override")
	logLevel      = flag.String("log-level", observability.EnvLogLevel("info"), "log level: debug|info|warn|error")
	shutdownGrace = flag.Duration("grace", 5*time.Second, "shutdown grace period")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	log := observability.NewLogger(*logLevel, cfg.Logging.Development)
	defer log.Sync() //nolint:errcheck

	addr := cfg.Server.Addr()
	if *addrFlag != "" {
		addr = *addrFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model, err := loadModel(ctx)
	if err != nil {
		log.Errorw("load form schema", "error", err)
		os.Exit(1)
	}

	engine, err := buildEngine()
	if err != nil {
		log.Errorw("configure templates", "error", err)
		os.Exit(1)
	}

	store := jobs.NewStore()
	runner := jobs.NewRunner(log, store, jobs.StubPipeline{OutputDir: cfg.Server.OutputDir})
	srv := server.New(log, engine, store, runner, model)

	if *schemaFlag != "" {
		go func() {
			if err := schema.WatchFile(ctx, log, *schemaFlag, srv.SetModel); err != nil {
				log.Warnw("schema watch stopped", "error", err)
			}
		}()
	}

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.Handler(),
	}

	log.Infow("listening", "addr", addr, "fields", len(model.Fields))

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		log.Errorw("listen failed", "addr", addr, "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnw("shutdown", "error", err)
	}
	log.Infow("shutdown complete")
}

func loadModel(ctx context.Context) (form.Model, error) {
	if *schemaFlag != "" {
		return schema.LoadFile(ctx, *schemaFlag)
	}
	return schema.Load(ctx)
}

func buildEngine() (*render.Engine, error) {
	if *templatesFlag != "" {
		return render.EngineForDir(*templatesFlag)
	}
	return render.New()
}
