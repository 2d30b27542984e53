// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/pipview/internal/api"
	"github.com/ManuGH/pipview/internal/config"
	"github.com/ManuGH/pipview/internal/daemon"
	"github.com/ManuGH/pipview/internal/domain/session/ports"
	"github.com/ManuGH/pipview/internal/handoff"
	"github.com/ManuGH/pipview/internal/health"
	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/ManuGH/pipview/internal/permission"
	"github.com/ManuGH/pipview/internal/profiles"
	"github.com/ManuGH/pipview/internal/recording"
	"github.com/ManuGH/pipview/internal/session"
	"github.com/ManuGH/pipview/internal/surface"
	"github.com/ManuGH/pipview/internal/telemetry"
	"github.com/ManuGH/pipview/internal/version"
	"github.com/ManuGH/pipview/internal/viewer"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{Level: "info", Service: "pipview", Version: version.Version})
	logger := xglog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(strings.TrimSpace(*configPath), version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "config.load_failed").Msg("failed to load configuration")
	}
	xglog.Configure(xglog.Config{Level: cfg.LogLevel, Service: "pipview", Version: version.Version})
	for _, key := range loader.UnconsumedEnvKeys() {
		logger.Warn().Str("key", key).Msg("unknown environment variable")
	}

	if err := run(ctx, cfg, loader); err != nil {
		logger.Fatal().Err(err).Msg("pipview exited with error")
	}
}

func run(ctx context.Context, cfg config.AppConfig, loader *config.Loader) error {
	logger := xglog.WithComponent("main")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		return err
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "pipview",
		ServiceVersion: version.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	store, err := handoff.Open(ctx, handoff.Config{
		Backend: cfg.Handoff.Backend,
		Path:    cfg.Handoff.Path,
		DataDir: cfg.DataDir,
		MaxAge:  cfg.Handoff.MaxAge,
		Redis: handoff.RedisConfig{
			Addr:     cfg.Handoff.RedisAddr,
			Password: cfg.Handoff.RedisPassword,
			DB:       cfg.Handoff.RedisDB,
			Key:      cfg.Handoff.RedisKey,
		},
	})
	if err != nil {
		return err
	}

	engine, err := newEngine(cfg.Engine)
	if err != nil {
		_ = store.Close()
		return err
	}

	gate, control := newPermissionGate(cfg)

	v, err := viewer.New(surface.Deps{
		Engine:     engine,
		Handoff:    store,
		Permission: gate,
		Namer: recording.Namer{
			Dir:    cfg.Recording.Dir,
			Prefix: cfg.Recording.Prefix,
			Ext:    cfg.Recording.Extension,
		},
		Sink:     recording.NewLogSink(),
		Profiles: profiles.NewSelector(cfg.Profiles),
		Session:  session.Options{ConnectTimeout: cfg.Engine.ConnectTimeout},
	})
	if err != nil {
		_ = store.Close()
		return err
	}

	ready := health.NewManager(version.Version)
	ready.RegisterChecker(health.NewDirChecker("recording_dir", cfg.Recording.Dir))
	ready.RegisterChecker(health.NewDirChecker("data_dir", cfg.DataDir))

	srv := api.New(api.Config{
		Version:        version.Version,
		Readiness:      http.HandlerFunc(ready.ServeReady),
		Gate:           gate,
		TracingService: tracingService(cfg),
		RateLimit:      cfg.API.RateLimit,
		RateWindow:     cfg.API.RateWindow,
	}, v, control)

	holder := config.NewHolder(cfg, loader)
	app := daemon.NewApp(daemon.Options{
		ListenAddr:      cfg.API.ListenAddr,
		Handler:         srv.Handler(),
		ShutdownTimeout: cfg.API.ShutdownTimeout,
		Holder:          holder,
		OnReload: func(next config.AppConfig) {
			xglog.Configure(xglog.Config{Level: next.LogLevel})
		},
	})
	app.RegisterShutdownHook("telemetry", tp.Shutdown)
	app.RegisterShutdownHook("handoff", func(context.Context) error { return store.Close() })
	app.RegisterShutdownHook("viewer", func(context.Context) error { return v.Close() })

	logger.Info().
		Str(xglog.FieldEngine, cfg.Engine.Kind).
		Str(xglog.FieldBackend, cfg.Handoff.Backend).
		Str("permission", cfg.Permission.Mode).
		Str("listen", cfg.API.ListenAddr).
		Msg("pipview starting")
	return app.Run(ctx)
}

func tracingService(cfg config.AppConfig) string {
	if !cfg.Telemetry.Enabled {
		return ""
	}
	return "pipview-api"
}

// newPermissionGate returns the gate and, for the static modes, the control
// the API uses to grant or revoke.
func newPermissionGate(cfg config.AppConfig) (ports.PermissionGate, api.PermissionControl) {
	switch cfg.Permission.Mode {
	case config.PermissionGranted:
		g := permission.NewStatic(true, true)
		return g, g
	case config.PermissionDenied:
		g := permission.NewStatic(false, false)
		return g, g
	default:
		return permission.DirGate{Dir: cfg.Recording.Dir}, nil
	}
}
