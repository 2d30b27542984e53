// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import (
	"context"

	"github.com/ManuGH/pipview/internal/domain/session/model"
)

// PermissionGate exposes storage permission as a boolean gate. Dialog flows
// live outside the core.
type PermissionGate interface {
	HasStoragePermission() bool
	// RequestStoragePermission resolves asynchronously; the channel yields
	// exactly one value and is then closed.
	RequestStoragePermission(ctx context.Context) <-chan bool
}

// HandoffStore holds at most one in-flight session descriptor.
type HandoffStore interface {
	// Publish overwrites any unconsumed entry (last writer wins).
	Publish(ctx context.Context, entry model.HandoffEntry) error
	// Consume atomically returns and clears the entry. ok is false when empty.
	Consume(ctx context.Context) (entry model.HandoffEntry, ok bool, err error)
	Close() error
}

// TargetNamer chooses where a new recording is written.
type TargetNamer interface {
	NextTarget() (string, error)
}

// ArtifactSink receives finished recordings (external indexing collaborator).
type ArtifactSink interface {
	Index(ctx context.Context, artifact model.ArtifactHandle) error
}
