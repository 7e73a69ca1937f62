package db

import (
	"context"
	"log/slog"

	"creditbot/internal/config"
	"creditbot/internal/snapshot"
)

// OpenSnapshots picks the Postgres backend when a database URL is set and
// the data directory otherwise. The returned func releases the backend.
func OpenSnapshots(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (snapshot.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		store, err := snapshot.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("snapshot backend", "kind", "file", "dir", cfg.DataDir)
		return store, func() {}, nil
	}

	pool, err := Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	store, err := snapshot.NewPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("snapshot backend", "kind", "postgres")
	return store, pool.Close, nil
}
