// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/google/renameio/v2"
	"github.com/google/uuid"
)

// FileStore keeps the entry as a JSON file. Publish replaces it atomically;
// Consume claims it with a rename, so only one consumer can win.
type FileStore struct {
	path string
	opts Options
}

// NewFileStore creates the parent directory of path if needed.
func NewFileStore(path string, opts Options) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create handoff dir: %w", err)
	}
	return &FileStore{path: path, opts: opts}, nil
}

func (s *FileStore) Publish(_ context.Context, entry model.HandoffEntry) error {
	entry = s.opts.stamp(entry)
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode handoff entry: %w", err)
	}

	pendingFile, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("create pending handoff file: %w", err)
	}
	defer func() { _ = pendingFile.Cleanup() }()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write handoff entry: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace handoff file: %w", err)
	}
	return nil
}

func (s *FileStore) Consume(_ context.Context) (model.HandoffEntry, bool, error) {
	claim := s.path + ".claim-" + uuid.NewString()
	if err := os.Rename(s.path, claim); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.HandoffEntry{}, false, nil
		}
		return model.HandoffEntry{}, false, fmt.Errorf("claim handoff file: %w", err)
	}
	defer func() { _ = os.Remove(claim) }()

	data, err := os.ReadFile(claim)
	if err != nil {
		return model.HandoffEntry{}, false, fmt.Errorf("read handoff file: %w", err)
	}
	var e model.HandoffEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return model.HandoffEntry{}, false, fmt.Errorf("decode handoff entry: %w", err)
	}
	if !s.opts.fresh(BackendFile, e) {
		return model.HandoffEntry{}, false, nil
	}
	return e, true, nil
}

func (s *FileStore) Close() error { return nil }
