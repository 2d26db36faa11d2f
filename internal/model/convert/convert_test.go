package convert

import (
	"testing"

	"github.com/brusilov1916/brusilov-map/internal/model"
	"github.com/brusilov1916/brusilov-map/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferenceRoundTrip(t *testing.T) {
	in := core.Preferences{
		ClientID:      "client-1",
		TourCompleted: true,
		Phase:         core.PhaseKovelStrike,
		LegendVisible: false,
		Settings:      map[string]any{"zoom": float64(8)},
	}

	row, err := PreferenceToGorm(in)
	require.NoError(t, err)
	assert.Equal(t, "kovel_strike", row.Phase)
	assert.JSONEq(t, `{"zoom":8}`, string(row.Settings))

	out := PreferenceToCore(row)
	assert.Equal(t, in.ClientID, out.ClientID)
	assert.True(t, out.TourCompleted)
	assert.Equal(t, core.PhaseKovelStrike, out.Phase)
	assert.False(t, out.LegendVisible)
	assert.Equal(t, float64(8), out.Settings["zoom"])
}

func TestPreferenceToCore_BadSettings(t *testing.T) {
	out := PreferenceToCore(model.ClientPreference{ClientID: "c", Settings: []byte("{broken")})
	assert.Equal(t, "c", out.ClientID)
	assert.Nil(t, out.Settings)
}

func TestPreferenceToGorm_NoSettings(t *testing.T) {
	row, err := PreferenceToGorm(core.Preferences{ClientID: "c"})
	require.NoError(t, err)
	assert.Nil(t, row.Settings)
}
