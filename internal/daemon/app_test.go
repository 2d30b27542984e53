// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/pipview/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln
}

func TestRun_ServesAndRunsHooksInReverse(t *testing.T) {
	ln := listen(t)
	app := NewApp(Options{
		Listener: ln,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	})

	var (
		mu    sync.Mutex
		order []string
	)
	for _, name := range []string{"store", "viewer"} {
		app.RegisterShutdownHook(name, func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusTeapot
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"viewer", "store"}, order)
}

func TestRun_HookErrorsAreJoined(t *testing.T) {
	app := NewApp(Options{Listener: listen(t), Handler: http.NotFoundHandler()})
	boom := errors.New("boom")
	app.RegisterShutdownHook("bad", func(context.Context) error { return boom })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := app.Run(ctx)
	require.ErrorIs(t, err, boom)
}

func TestRun_RequiresHandler(t *testing.T) {
	require.ErrorIs(t, NewApp(Options{}).Run(context.Background()), ErrMissingHandler)
}

func TestRun_ListenError(t *testing.T) {
	ln := listen(t)
	defer ln.Close()
	err := NewApp(Options{ListenAddr: ln.Addr().String(), Handler: http.NotFoundHandler()}).Run(context.Background())
	require.Error(t, err)
}

func TestRun_AppliesReloadedConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: info\n"), 0o600))
	loader := config.NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)
	holder := config.NewHolder(initial, loader)

	applied := make(chan string, 4)
	app := NewApp(Options{
		Listener: listen(t),
		Handler:  http.NotFoundHandler(),
		Holder:   holder,
		OnReload: func(c config.AppConfig) { applied <- c.LogLevel },
	})
	app.reloadSignal = nil

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.NoError(t, os.WriteFile(path, []byte("logLevel: debug\n"), 0o600))
	require.NoError(t, holder.Reload(context.Background()))

	select {
	case lvl := <-applied:
		assert.Equal(t, "debug", lvl)
	case <-time.After(2 * time.Second):
		t.Fatal("reload not applied")
	}

	cancel()
	require.NoError(t, <-done)
}
