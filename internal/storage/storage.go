// Package storage persists per-client preferences (tour completion, last view)
// behind a pluggable Backend.
package storage

import "github.com/brusilov1916/brusilov-map/pkg/core"

// ErrNotFound is returned by Preferences for a client id that was never saved.
var ErrNotFound = core.ErrNotFound

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Onboarding tour flag. Unknown clients have not completed the tour.
	TourCompleted(clientID string) (bool, error)
	SetTourCompleted(clientID string, completed bool) error

	// Full preference record
	SavePreferences(clientID string, prefs core.Preferences) error
	Preferences(clientID string) (core.Preferences, error)
}

// ExportLog is an optional interface for backends that keep a history of
// GeoJSON exports.
type ExportLog interface {
	RecordExport(rec core.ExportRecord) error
	Exports(phase core.Phase) ([]core.ExportRecord, error)
}
