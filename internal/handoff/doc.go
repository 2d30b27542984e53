// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package handoff holds the single in-flight session descriptor passed from a
// departing surface owner to the arriving one.
//
// Every backend keeps at most one entry. Publish overwrites (last writer wins)
// and Consume atomically returns and clears it, so no two controllers can
// observe the same entry. The in-memory backend is process-scoped; the sqlite,
// redis, badger and file backends let the entry survive a process restart and
// drop entries older than MaxAge on consume.
package handoff
