// Package convert maps between GORM models and core types.
package convert

import (
	"encoding/json"

	"github.com/brusilov1916/brusilov-map/internal/model"
	"github.com/brusilov1916/brusilov-map/pkg/core"
)

// PreferenceToCore converts a stored row to core.Preferences.
// Undecodable settings are dropped rather than failing the read.
func PreferenceToCore(p model.ClientPreference) core.Preferences {
	var settings map[string]any
	if len(p.Settings) > 0 {
		_ = json.Unmarshal(p.Settings, &settings)
	}
	return core.Preferences{
		ClientID:      p.ClientID,
		TourCompleted: p.TourCompleted,
		Phase:         core.Phase(p.Phase),
		LegendVisible: p.LegendVisible,
		Settings:      settings,
		UpdatedAt:     p.UpdatedAt,
	}
}

// PreferenceToGorm converts core.Preferences to a row. ID is left zero.
func PreferenceToGorm(p core.Preferences) (model.ClientPreference, error) {
	row := model.ClientPreference{
		ClientID:      p.ClientID,
		TourCompleted: p.TourCompleted,
		Phase:         string(p.Phase),
		LegendVisible: p.LegendVisible,
	}
	if len(p.Settings) > 0 {
		b, err := json.Marshal(p.Settings)
		if err != nil {
			return model.ClientPreference{}, err
		}
		row.Settings = b
	}
	return row, nil
}
