// Package postgres implements the storage.Backend interface on PostgreSQL.
// When the server is unreachable it falls back to an in-memory SQLite database
// so the map keeps working without persistence.
package postgres

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/brusilov1916/brusilov-map/internal/config"
	"github.com/brusilov1916/brusilov-map/internal/database"
	gormstorage "github.com/brusilov1916/brusilov-map/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Backend wraps the GORM backend with connection management.
type Backend struct {
	*gormstorage.Backend
	cfg    config.PostgresConfig
	mgr    *database.Manager
	logger *slog.Logger
}

// New creates a Postgres backend. The connection is opened by Init.
func New(cfg config.PostgresConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	zl := zerolog.New(os.Stderr).With().Timestamp().Str("component", "database").Logger()
	return &Backend{
		cfg:    cfg,
		mgr:    database.NewManager(zl),
		logger: logger,
	}
}

// Init connects, falls back to SQLite when needed, and migrates.
func (b *Backend) Init() error {
	if err := b.mgr.Connect(b.cfg, ""); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	if b.mgr.ShouldSaveLocal {
		b.logger.Warn("Postgres unavailable, preferences are kept in memory only", "host", b.cfg.Host)
	}
	b.Backend = gormstorage.New(b.mgr.DB, b.logger)
	return b.mgr.Setup()
}

// Close closes the connection if Init succeeded.
func (b *Backend) Close() error {
	return b.mgr.Close()
}

// Local reports whether Init fell back to SQLite.
func (b *Backend) Local() bool {
	return b.mgr.ShouldSaveLocal
}
