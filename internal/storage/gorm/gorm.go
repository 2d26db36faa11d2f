// Package gormstorage implements storage.Backend on top of a GORM connection.
// The SQLite and Postgres backends embed it and only differ in how the
// connection is opened and kept.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brusilov1916/brusilov-map/internal/database"
	"github.com/brusilov1916/brusilov-map/internal/model"
	"github.com/brusilov1916/brusilov-map/internal/model/convert"
	"github.com/brusilov1916/brusilov-map/pkg/core"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Backend implements storage.Backend using GORM.
type Backend struct {
	db     *gorm.DB
	logger *slog.Logger
}

// New creates a GORM backend over an open connection.
func New(db *gorm.DB, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{db: db, logger: logger}
}

// DB exposes the connection for backends that wrap this one.
func (b *Backend) DB() *gorm.DB {
	return b.db
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.db == nil {
		return fmt.Errorf("gorm backend has no database")
	}
	return database.Migrate(b.db)
}

// Close closes the underlying connection pool.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (b *Backend) TourCompleted(clientID string) (bool, error) {
	var row model.ClientPreference
	err := b.db.Select("tour_completed").Where("client_id = ?", clientID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read tour flag: %w", err)
	}
	return row.TourCompleted, nil
}

func (b *Backend) SetTourCompleted(clientID string, completed bool) error {
	row := model.ClientPreference{
		ClientID:      clientID,
		TourCompleted: completed,
		LegendVisible: true,
	}
	err := b.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tour_completed", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save tour flag: %w", err)
	}
	b.logger.Debug("Tour flag saved", "client", clientID, "completed", completed)
	return nil
}

func (b *Backend) SavePreferences(clientID string, prefs core.Preferences) error {
	prefs.ClientID = clientID
	row, err := convert.PreferenceToGorm(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	err = b.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tour_completed", "phase", "legend_visible", "settings", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

func (b *Backend) Preferences(clientID string) (core.Preferences, error) {
	var row model.ClientPreference
	err := b.db.Where("client_id = ?", clientID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Preferences{}, core.ErrNotFound
	}
	if err != nil {
		return core.Preferences{}, fmt.Errorf("failed to read preferences: %w", err)
	}
	return convert.PreferenceToCore(row), nil
}

// RecordExport stores one export history row.
func (b *Backend) RecordExport(rec core.ExportRecord) error {
	meta, err := datatypes.NewJSONType(map[string]any{"path": rec.Path}).MarshalJSON()
	if err != nil {
		return err
	}
	row := model.LayerExport{
		Phase:    string(rec.Phase),
		CRS:      rec.CRS,
		Path:     rec.Path,
		Features: rec.Features,
		Dataset:  rec.Dataset,
		Meta:     meta,
	}
	if !rec.CreatedAt.IsZero() {
		row.CreatedAt = rec.CreatedAt
	}
	if err := b.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record export: %w", err)
	}
	return nil
}

// Exports returns recorded exports for phase, newest first.
func (b *Backend) Exports(phase core.Phase) ([]core.ExportRecord, error) {
	var rows []model.LayerExport
	err := b.db.Where("phase = ?", string(phase)).Order("created_at desc, id desc").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}

	out := make([]core.ExportRecord, len(rows))
	for i, r := range rows {
		out[i] = core.ExportRecord{
			Phase:     core.Phase(r.Phase),
			CRS:       r.CRS,
			Path:      r.Path,
			Features:  r.Features,
			Dataset:   r.Dataset,
			CreatedAt: r.CreatedAt.UTC().Truncate(time.Second),
		}
	}
	return out, nil
}
