package geo

import (
	"testing"

	"github.com/brusilov1916/brusilov-map/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestBearing_Directions(t *testing.T) {
	tests := []struct {
		name string
		path core.Polyline
		want float64
	}{
		// atan2(Δlng, -Δlat)
		{"north", core.Polyline{{0, 0}, {1, 0}}, 180},
		{"south", core.Polyline{{1, 0}, {0, 0}}, 0},
		{"east", core.Polyline{{0, 0}, {0, 1}}, 90},
		{"west", core.Polyline{{0, 0}, {0, -1}}, -90},
		{"north east", core.Polyline{{0, 0}, {1, 1}}, 135},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BearingAtStart(tt.path), 1e-9)
		})
	}
}

func TestBearing_TwoPointPathAgrees(t *testing.T) {
	path := core.Polyline{{0, 0}, {1, 1}}
	assert.Equal(t, BearingAtStart(path), BearingAtEnd(path))
}

func TestBearing_StartAndEndUseDifferentSegments(t *testing.T) {
	path := core.Polyline{{0, 0}, {1, 0}, {1, 1}}

	assert.InDelta(t, 180, BearingAtStart(path), 1e-9)
	assert.InDelta(t, 90, BearingAtEnd(path), 1e-9)
}

func TestRotationCorrection(t *testing.T) {
	assert.Equal(t, 0.0, RotationCorrection("8th_army_lutsk", core.PhaseLutskBreakthrough))
	assert.Equal(t, 180.0, RotationCorrection("south_bypass_vladimir_volynsky", core.PhaseLutskBreakthrough))
	assert.Equal(t, 190.0, RotationCorrection("south_bypass_vladimir_volynsky", core.PhaseFourthKovelBattle))
	assert.Equal(t, -15.0, RotationCorrection("9th_army_stanislau", core.PhaseHalychOffensive))
}

func TestArrowRotation(t *testing.T) {
	m := core.Movement{
		ID:             "8th_army_lutsk",
		Path:           core.Polyline{{0, 0}, {1, 0}, {1, 1}},
		OperationPhase: core.PhaseLutskBreakthrough,
	}

	assert.InDelta(t, 360, ArrowRotation(m, false), 1e-9)
	assert.InDelta(t, 270, ArrowRotation(m, true), 1e-9)
}

func TestArrowRotation_AppliesBothOverrides(t *testing.T) {
	m := core.Movement{
		ID:             "special_army_vladimir_volynsky",
		Path:           core.Polyline{{0, 0}, {0, 1}},
		OperationPhase: core.PhaseFourthKovelBattle,
	}

	// 90 base + 180 global + 180 movement + 10 phase
	assert.InDelta(t, 460, ArrowRotation(m, true), 1e-9)
}
