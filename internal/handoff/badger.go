// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/ManuGH/pipview/internal/metrics"
	"github.com/dgraph-io/badger/v4"
)

var badgerKey = []byte("handoff:current")

// BadgerStore keeps the entry under one key; get+delete share one transaction.
type BadgerStore struct {
	db   *badger.DB
	opts Options
}

// OpenBadgerStore opens the store at path. An empty path keeps it in memory.
func OpenBadgerStore(path string, opts Options) (*BadgerStore, error) {
	bopts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		bopts = bopts.WithInMemory(true)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db, opts: opts}, nil
}

func (s *BadgerStore) Publish(_ context.Context, entry model.HandoffEntry) error {
	entry = s.opts.stamp(entry)
	buf, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode handoff entry: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(badgerKey); err == nil {
			metrics.IncHandoffOverwrite(BackendBadger)
		}
		return txn.Set(badgerKey, buf)
	})
}

func (s *BadgerStore) Consume(_ context.Context) (model.HandoffEntry, bool, error) {
	var (
		e     model.HandoffEntry
		found bool
	)
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		}); err != nil {
			return err
		}
		found = true
		return txn.Delete(badgerKey)
	})
	if err != nil {
		return model.HandoffEntry{}, false, err
	}
	if !found || !s.opts.fresh(BackendBadger, e) {
		return model.HandoffEntry{}, false, nil
	}
	return e, true, nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }
