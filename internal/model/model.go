// Package model holds the GORM table structs used by the SQL storage backends.
package model

import (
	"time"

	"gorm.io/datatypes"
)

// DatabaseModels is every table the SQL backends migrate.
var DatabaseModels = []interface{}{
	&ClientPreference{},
	&LayerExport{},
}

// ClientPreference persists one browser client's tour flag and last view.
type ClientPreference struct {
	ID            uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	ClientID      string         `json:"clientId" gorm:"size:64;uniqueIndex"`
	TourCompleted bool           `json:"tourCompleted"`
	Phase         string         `json:"phase" gorm:"size:32"`
	LegendVisible bool           `json:"legendVisible"`
	Settings      datatypes.JSON `json:"settings"`
}

func (*ClientPreference) TableName() string {
	return "client_preferences"
}

// LayerExport records a GeoJSON file written by the export command.
type LayerExport struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt time.Time      `json:"createdAt"`
	Phase     string         `json:"phase" gorm:"size:32;index"`
	CRS       int            `json:"crs"`
	Path      string         `json:"path" gorm:"size:512"`
	Features  int            `json:"features"`
	Dataset   string         `json:"dataset" gorm:"size:32"`
	Meta      datatypes.JSON `json:"meta"`
}

func (*LayerExport) TableName() string {
	return "layer_exports"
}
