// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package permission

import (
	"context"
	"os"

	xglog "github.com/ManuGH/pipview/internal/log"
)

// DirGate grants storage permission when the recording directory is writable
// by this process. A request creates the directory and re-checks.
type DirGate struct {
	Dir string
}

func (g DirGate) HasStoragePermission() bool {
	if g.Dir == "" {
		return false
	}
	return writable(g.Dir)
}

func (g DirGate) RequestStoragePermission(ctx context.Context) <-chan bool {
	ch := make(chan bool, 1)
	go func() {
		defer close(ch)
		if ctx.Err() != nil || g.Dir == "" {
			ch <- false
			return
		}
		if err := os.MkdirAll(g.Dir, 0o750); err != nil {
			logger := xglog.WithComponent("permission")
			logger.Warn().Err(err).Str("dir", g.Dir).Msg("cannot create recording directory")
			ch <- false
			return
		}
		ch <- writable(g.Dir)
	}()
	return ch
}
