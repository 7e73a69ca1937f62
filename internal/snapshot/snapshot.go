// Package snapshot persists named stores as whole JSON documents.
//
// Every Save replaces the previous snapshot in full. A store that was never
// saved loads as "not found" so callers can fall back to their own default.
package snapshot

import (
	"context"
	"errors"
)

// Store loads and saves named snapshots.
type Store interface {
	// Load decodes the snapshot called name into dst. It reports false with a
	// nil error when no snapshot exists yet, leaving dst untouched.
	Load(ctx context.Context, name string, dst any) (bool, error)
	// Save atomically replaces the snapshot called name with v.
	Save(ctx context.Context, name string, v any) error
}

var ErrInvalidName = errors.New("snapshot name must be a plain file name")
