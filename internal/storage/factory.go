package storage

import (
	"fmt"
	"log/slog"

	"github.com/brusilov1916/brusilov-map/internal/config"
	"github.com/brusilov1916/brusilov-map/internal/storage/memory"
	"github.com/brusilov1916/brusilov-map/internal/storage/postgres"
	sqlitestorage "github.com/brusilov1916/brusilov-map/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, logger *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(cfg.Postgres, logger), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			DumpPath:     cfg.SQLite.Path,
			DumpInterval: cfg.SQLite.DumpInterval,
		}, logger)
	case "memory", "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
