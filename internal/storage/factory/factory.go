// Package factory constructs the configured storage backend.
package factory

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/herdfence/simulator/internal/config"
	"github.com/herdfence/simulator/internal/database"
	"github.com/herdfence/simulator/internal/storage"
	gormstorage "github.com/herdfence/simulator/internal/storage/gorm"
	"github.com/herdfence/simulator/internal/storage/memory"
	sqlitestorage "github.com/herdfence/simulator/internal/storage/sqlite"
	"github.com/herdfence/simulator/internal/worker"
)

// NewBackend builds the storage backend named by cfg.Type and
// initializes it. The postgres backend falls back to a local SQLite
// file when the server is unreachable. With cfg.AsyncWrites the backend
// is wrapped in a write-behind worker.
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (storage.Backend, error) {
	var backend storage.Backend

	switch cfg.Type {
	case "memory":
		backend = memory.New(cfg.Memory)
	case "sqlite":
		backend = sqlitestorage.New(cfg.SQLite, log)
	case "postgres":
		mgr := database.NewManager(log)
		mgr.SqliteFilePath = cfg.SQLite.Path
		if err := mgr.Connect(); err != nil {
			return nil, fmt.Errorf("connecting storage database: %w", err)
		}
		if err := mgr.Setup(); err != nil {
			return nil, fmt.Errorf("migrating storage schema: %w", err)
		}
		backend = gormstorage.New(gormstorage.Dependencies{DB: mgr.DB, Logger: log})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Type)
	}

	if cfg.AsyncWrites {
		interval := time.Duration(cfg.FlushIntervalMs) * time.Millisecond
		if interval <= 0 {
			interval = 2 * time.Second
		}
		backend = worker.NewManager(backend, log, interval)
	}

	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("initializing %s storage: %w", cfg.Type, err)
	}
	return backend, nil
}
