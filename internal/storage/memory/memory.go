// Package memory keeps preferences in process memory. Nothing survives a restart.
package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/brusilov1916/brusilov-map/pkg/core"
)

// Backend stores preferences in maps guarded by a RWMutex.
type Backend struct {
	prefs   map[string]core.Preferences
	exports []core.ExportRecord
	mu      sync.RWMutex
}

// New creates a new memory backend
func New() *Backend {
	return &Backend{
		prefs: make(map[string]core.Preferences),
	}
}

func (b *Backend) Init() error { return nil }

func (b *Backend) Close() error { return nil }

func (b *Backend) TourCompleted(clientID string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.prefs[clientID].TourCompleted, nil
}

func (b *Backend) SetTourCompleted(clientID string, completed bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.prefs[clientID]
	if !ok {
		p = core.Preferences{ClientID: clientID, LegendVisible: true}
	}
	p.TourCompleted = completed
	p.UpdatedAt = time.Now().UTC()
	b.prefs[clientID] = p
	return nil
}

func (b *Backend) SavePreferences(clientID string, prefs core.Preferences) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	prefs.ClientID = clientID
	prefs.UpdatedAt = time.Now().UTC()
	b.prefs[clientID] = prefs
	return nil
}

func (b *Backend) Preferences(clientID string) (core.Preferences, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	p, ok := b.prefs[clientID]
	if !ok {
		return core.Preferences{}, core.ErrNotFound
	}
	return p, nil
}

// RecordExport appends to the in-memory export history.
func (b *Backend) RecordExport(rec core.ExportRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	b.exports = append(b.exports, rec)
	return nil
}

// Exports returns the recorded exports for phase, newest first.
func (b *Backend) Exports(phase core.Phase) ([]core.ExportRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []core.ExportRecord
	for _, rec := range b.exports {
		if rec.Phase == phase {
			out = append(out, rec)
		}
	}
	slices.Reverse(out)
	return out, nil
}
