// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package handoff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/ManuGH/pipview/internal/persistence/sqlite"
)

const sqliteSchemaVersion = 1

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS handoff_entry (
	slot INTEGER PRIMARY KEY CHECK (slot = 1),
	source_address TEXT NOT NULL,
	position_ns INTEGER NOT NULL,
	resume_requested BOOLEAN NOT NULL DEFAULT 0,
	published_at_ms INTEGER NOT NULL
);
`

// SqliteStore keeps the entry in a single-row table.
type SqliteStore struct {
	DB   *sql.DB
	opts Options
}

// NewSqliteStore opens (or creates) the database at dbPath.
func NewSqliteStore(ctx context.Context, dbPath string, opts Options) (*SqliteStore, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if issues, err := sqlite.QuickCheck(ctx, db); err != nil || issues != nil {
		_ = db.Close()
		if err == nil {
			err = fmt.Errorf("integrity: %s", strings.Join(issues, "; "))
		}
		return nil, fmt.Errorf("handoff store: %w", err)
	}
	if err := sqlite.Migrate(ctx, db, sqliteSchemaVersion, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("handoff store: migration failed: %w", err)
	}
	return &SqliteStore{DB: db, opts: opts}, nil
}

func (s *SqliteStore) Publish(ctx context.Context, entry model.HandoffEntry) error {
	entry = s.opts.stamp(entry)
	query := `
	INSERT INTO handoff_entry (slot, source_address, position_ns, resume_requested, published_at_ms)
	VALUES (1, ?, ?, ?, ?)
	ON CONFLICT(slot) DO UPDATE SET
		source_address = excluded.source_address,
		position_ns = excluded.position_ns,
		resume_requested = excluded.resume_requested,
		published_at_ms = excluded.published_at_ms
	`
	_, err := s.DB.ExecContext(ctx, query,
		entry.SourceAddress, int64(entry.Position), entry.ResumeRequested, entry.PublishedAt.UnixMilli(),
	)
	return err
}

func (s *SqliteStore) Consume(ctx context.Context) (model.HandoffEntry, bool, error) {
	query := `DELETE FROM handoff_entry WHERE slot = 1
	RETURNING source_address, position_ns, resume_requested, published_at_ms`

	var (
		e           model.HandoffEntry
		positionNS  int64
		publishedMS int64
	)
	err := s.DB.QueryRowContext(ctx, query).Scan(&e.SourceAddress, &positionNS, &e.ResumeRequested, &publishedMS)
	if errors.Is(err, sql.ErrNoRows) {
		return model.HandoffEntry{}, false, nil
	}
	if err != nil {
		return model.HandoffEntry{}, false, err
	}
	e.Position = time.Duration(positionNS)
	e.PublishedAt = time.UnixMilli(publishedMS)
	if !s.opts.fresh(BackendSqlite, e) {
		return model.HandoffEntry{}, false, nil
	}
	return e, true, nil
}

func (s *SqliteStore) Close() error {
	return s.DB.Close()
}
