// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package handoff

import (
	"context"
	"sync"

	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/ManuGH/pipview/internal/metrics"
)

// MemoryStore is a mutex-guarded optional value.
type MemoryStore struct {
	opts  Options
	mu    sync.Mutex
	entry *model.HandoffEntry
}

// NewMemoryStore creates an empty process-scoped store.
func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{opts: opts}
}

func (s *MemoryStore) Publish(_ context.Context, entry model.HandoffEntry) error {
	entry = s.opts.stamp(entry)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry != nil {
		metrics.IncHandoffOverwrite(BackendMemory)
	}
	s.entry = &entry
	return nil
}

func (s *MemoryStore) Consume(_ context.Context) (model.HandoffEntry, bool, error) {
	s.mu.Lock()
	e := s.entry
	s.entry = nil
	s.mu.Unlock()

	if e == nil || !s.opts.fresh(BackendMemory, *e) {
		return model.HandoffEntry{}, false, nil
	}
	return *e, true, nil
}

func (s *MemoryStore) Close() error { return nil }
