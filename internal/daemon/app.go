// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package daemon owns the process lifecycle: the API server, the config
// watcher and ordered shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ManuGH/pipview/internal/config"
	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrMissingHandler is returned by Run without a handler.
var ErrMissingHandler = errors.New("daemon: http handler is required")

// ShutdownHook releases one resource during shutdown.
type ShutdownHook func(ctx context.Context) error

type namedHook struct {
	name string
	hook ShutdownHook
}

// Options configure an App.
type Options struct {
	ListenAddr string
	// Listener, when set, is served instead of listening on ListenAddr.
	Listener        net.Listener
	Handler         http.Handler
	ShutdownTimeout time.Duration
	// Holder enables file watching and SIGHUP reloads.
	Holder *config.Holder
	// OnReload runs for every successfully reloaded config.
	OnReload func(config.AppConfig)
}

// App runs the daemon until its context ends.
type App struct {
	opts         Options
	logger       zerolog.Logger
	reloadSignal os.Signal

	applyCh chan config.AppConfig

	mu    sync.Mutex
	hooks []namedHook
}

// NewApp creates an App.
func NewApp(opts Options) *App {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	a := &App{
		opts:         opts,
		logger:       xglog.WithComponent("daemon"),
		reloadSignal: syscall.SIGHUP,
	}
	if opts.Holder != nil && opts.OnReload != nil {
		a.applyCh = make(chan config.AppConfig, 1)
		opts.Holder.Subscribe(a.applyCh)
	}
	return a
}

// RegisterShutdownHook registers a cleanup function. Hooks run in reverse
// registration order after the HTTP server has stopped.
func (a *App) RegisterShutdownHook(name string, hook ShutdownHook) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, namedHook{name: name, hook: hook})
}

// Run blocks until ctx is cancelled or a subsystem fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	if a.opts.Handler == nil {
		return ErrMissingHandler
	}

	ln := a.opts.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", a.opts.ListenAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", a.opts.ListenAddr, err)
		}
	}
	srv := &http.Server{
		Handler:           a.opts.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", ln.Addr().String()).Msg("API server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown(srv)
	})

	if h := a.opts.Holder; h != nil {
		g.Go(func() error {
			if err := h.Watch(gctx); err != nil {
				a.logger.Warn().Err(err).Str(xglog.FieldEvent, "config.watcher_start_failed").Msg("config watcher unavailable")
			}
			return nil
		})
		g.Go(func() error { return a.reloadOnSignal(gctx, h) })
		if a.applyCh != nil {
			g.Go(func() error {
				for {
					select {
					case <-gctx.Done():
						return nil
					case cfg := <-a.applyCh:
						a.opts.OnReload(cfg)
					}
				}
			})
		}
	}

	return g.Wait()
}

func (a *App) reloadOnSignal(ctx context.Context, h *config.Holder) error {
	if a.reloadSignal == nil {
		return nil
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, a.reloadSignal)
	defer signal.Stop(ch)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
			a.logger.Info().Str(xglog.FieldEvent, "config.reload_signal").Msg("received reload signal")
			_ = h.Reload(ctx)
		}
	}
}

func (a *App) shutdown(srv *http.Server) error {
	a.logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), a.opts.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("api server shutdown: %w", err))
	}

	a.mu.Lock()
	hooks := append([]namedHook(nil), a.hooks...)
	a.mu.Unlock()
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		start := time.Now()
		if err := h.hook(ctx); err != nil {
			a.logger.Error().Err(err).Str("hook", h.name).Dur("duration", time.Since(start)).Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", h.name, err))
			continue
		}
		a.logger.Debug().Str("hook", h.name).Dur("duration", time.Since(start)).Msg("shutdown hook completed")
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.logger.Info().Msg("stopped cleanly")
	return nil
}
