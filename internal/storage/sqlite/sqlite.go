// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// On start it restores the last dump so preferences survive restarts.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/brusilov1916/brusilov-map/internal/database"
	gormstorage "github.com/brusilov1916/brusilov-map/internal/storage/gorm"
	"github.com/brusilov1916/brusilov-map/internal/model"
	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	log      *slog.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a new SQLite storage backend.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := database.OpenSQLite("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	return &Backend{
		Backend:  gormstorage.New(db, logger),
		db:       db,
		cfg:      cfg,
		log:      logger,
		stopChan: make(chan struct{}),
	}, nil
}

// Init migrates, restores the previous dump and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if err := b.restore(); err != nil {
		b.log.Warn("Could not restore previous dump", "path", b.cfg.DumpPath, "error", err)
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.wg.Add(1)
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine, writes a final dump and closes the database.
func (b *Backend) Close() error {
	b.stopOnce.Do(func() { close(b.stopChan) })
	b.wg.Wait()

	if b.cfg.DumpPath != "" {
		if err := b.Dump(); err != nil {
			b.log.Error("Final dump failed", "error", err)
		}
	}
	return b.Backend.Close()
}

// Dump writes a point-in-time snapshot to DumpPath.
func (b *Backend) Dump() error {
	return database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath)
}

// restore copies rows from the last dump into the in-memory database.
func (b *Backend) restore() error {
	if b.cfg.DumpPath == "" {
		return nil
	}
	if _, err := os.Stat(b.cfg.DumpPath); os.IsNotExist(err) {
		return nil
	}

	src, err := database.OpenSQLite(b.cfg.DumpPath)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := src.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	var prefs []model.ClientPreference
	if err := src.Find(&prefs).Error; err != nil {
		return fmt.Errorf("reading dumped preferences: %w", err)
	}
	var exports []model.LayerExport
	if err := src.Find(&exports).Error; err != nil {
		return fmt.Errorf("reading dumped exports: %w", err)
	}

	if len(prefs) > 0 {
		if err := b.db.Create(&prefs).Error; err != nil {
			return err
		}
	}
	if len(exports) > 0 {
		if err := b.db.Create(&exports).Error; err != nil {
			return err
		}
	}
	b.log.Info("Restored preferences from dump", "path", b.cfg.DumpPath, "clients", len(prefs))
	return nil
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.Dump(); err != nil {
				b.log.Error("Error dumping to disk", "error", err)
			} else {
				b.log.Debug("Dumped to disk", "duration", time.Since(start))
			}
		}
	}
}
