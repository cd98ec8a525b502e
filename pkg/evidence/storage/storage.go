package storage

import (
	"fmt"
	"log/slog"

	"relay-hq/gemini/pkg/config"
	"relay-hq/gemini/pkg/evidence"
)

// New creates the storage backend selected by cfg.Backend.
func New(cfg config.EvidenceConfig, logger *slog.Logger) (evidence.Storage, error) {
	switch cfg.Backend {
	case "sqlite", "":
		return NewSQLiteStorage(SQLiteConfig{
			Path:         cfg.SQLite.Path,
			Driver:       cfg.SQLite.Driver,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		}, logger)
	case "memory":
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported evidence backend: %s (supported: sqlite, memory)", cfg.Backend)
	}
}
