// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesWAL(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "wal.sqlite"), DefaultConfig())
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestMigrate_RunsOncePerVersion(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "mig.sqlite"), DefaultConfig())
	require.NoError(t, err)
	defer db.Close()

	schema := `CREATE TABLE things (id INTEGER PRIMARY KEY);`
	require.NoError(t, Migrate(ctx, db, 1, schema))
	// A second run would fail on the existing table if it were re-applied.
	require.NoError(t, Migrate(ctx, db, 1, schema))

	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestQuickCheck_Healthy(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "ok.sqlite"), DefaultConfig())
	require.NoError(t, err)
	defer db.Close()

	issues, err := QuickCheck(context.Background(), db)
	require.NoError(t, err)
	assert.Nil(t, issues)
}
