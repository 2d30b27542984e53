// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ManuGH/pipview/internal/config"
	"github.com/ManuGH/pipview/internal/handoff"
	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks validates the environment before the server starts.
// The data and recording directories are created when missing.
func PerformStartupChecks(_ context.Context, cfg config.AppConfig) error {
	logger := xglog.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := ensureWritableDir(logger, "data", cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}
	if err := ensureWritableDir(logger, "recording", cfg.Recording.Dir); err != nil {
		return fmt.Errorf("recording directory check failed: %w", err)
	}
	if err := checkListenAddr(logger, cfg.API.ListenAddr); err != nil {
		return err
	}

	if strings.EqualFold(cfg.Handoff.Backend, handoff.BackendMemory) {
		logger.Warn().
			Str(xglog.FieldBackend, cfg.Handoff.Backend).
			Msg("handoff store is in-memory; pending handoffs are lost on restart")
	}

	tempDir := filepath.Clean(os.TempDir())
	dataDir := filepath.Clean(cfg.DataDir)
	if tempDir != "." && (dataDir == tempDir || strings.HasPrefix(dataDir, tempDir+string(filepath.Separator))) {
		logger.Warn().
			Str("data_dir", cfg.DataDir).
			Msg("data directory is under temp; handoffs and recordings may be lost on reboot")
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

func ensureWritableDir(logger zerolog.Logger, label, path string) error {
	if path == "" {
		return fmt.Errorf("%s directory is not configured", label)
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s: %w", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Msgf("%s directory is writable", label)
	return nil
}

func checkListenAddr(logger zerolog.Logger, addr string) error {
	if addr == "" {
		return nil
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid API listen address %q: %w", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid API listen port %q in %q", port, addr)
	}
	logger.Info().Str("addr", addr).Msg("API listen address is valid")
	return nil
}
