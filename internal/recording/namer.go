// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package recording

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultPrefix    = "Recording"
	DefaultExtension = ".mp4"
	timestampLayout  = "20060102_150405"
)

// Namer picks timestamped recording targets: <Dir>/<Prefix>_YYYYMMDD_HHMMSS<Ext>.
type Namer struct {
	Dir    string
	Prefix string
	Ext    string
	Now    func() time.Time
}

// NextTarget creates Dir if needed and returns a path that does not exist yet.
// Two recordings started within the same second get a numeric suffix.
func (n Namer) NextTarget() (string, error) {
	if n.Dir == "" {
		return "", errors.New("recording: no output directory configured")
	}
	if err := os.MkdirAll(n.Dir, 0o750); err != nil {
		return "", fmt.Errorf("recording: create output dir: %w", err)
	}

	prefix, ext, now := n.Prefix, n.Ext, n.Now
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if ext == "" {
		ext = DefaultExtension
	}
	if now == nil {
		now = time.Now
	}

	base := prefix + "_" + now().Format(timestampLayout)
	candidate := filepath.Join(n.Dir, base+ext)
	for i := 1; ; i++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("recording: stat target: %w", err)
		}
		candidate = filepath.Join(n.Dir, fmt.Sprintf("%s_%d%s", base, i, ext))
	}
}
