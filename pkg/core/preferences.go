package core

import (
	"errors"
	"time"
)

// ErrNotFound is returned by preference stores for unknown client ids.
var ErrNotFound = errors.New("not found")

// Preferences is the per-client state that outlives a session.
type Preferences struct {
	ClientID      string         `json:"clientId"`
	TourCompleted bool           `json:"tourCompleted"`
	Phase         Phase          `json:"phase"`
	LegendVisible bool           `json:"legendVisible"`
	Settings      map[string]any `json:"settings,omitempty"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}
