package core

import "time"

// ExportRecord describes one GeoJSON file written for a phase.
type ExportRecord struct {
	Phase     Phase     `json:"phase"`
	CRS       int       `json:"crs"`
	Path      string    `json:"path"`
	Features  int       `json:"features"`
	Dataset   string    `json:"dataset"`
	CreatedAt time.Time `json:"createdAt"`
}
