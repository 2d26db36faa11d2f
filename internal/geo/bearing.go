package geo

import (
	"math"

	"github.com/brusilov1916/brusilov-map/pkg/core"
)

// GlobalArrowCorrection is added to every arrow so the glyph's tip, which is
// drawn pointing south in its own coordinate space, follows the path.
const GlobalArrowCorrection = 180.0

// movementRotation holds hand-tuned corrections for arrows whose visual front
// points against the path direction. Values are degrees.
var movementRotation = map[string]float64{
	"south_bypass_vladimir_volynsky": 180,
	"special_army_vladimir_volynsky": 180,
	"german_counterattack_linsingen": -20,
	"guards_stokhid":                 15,
	"army_offensive_9th_dorna_vatra": -10,
}

// phaseRotation holds corrections applied to every movement of a phase.
var phaseRotation = map[core.Phase]float64{
	core.PhaseHalychOffensive:   -15,
	core.PhaseFourthKovelBattle: 10,
	core.PhaseFifthKovelBattle:  10,
}

// bearing is atan2(Δlng, -Δlat) in degrees. This is not a geographic bearing;
// it matches the arrow glyph's local drawing orientation.
func bearing(from, to core.LatLng) float64 {
	dLat := to.Lat() - from.Lat()
	dLng := to.Lng() - from.Lng()
	return math.Atan2(dLng, -dLat) * 180 / math.Pi
}

// BearingAtStart orients a glyph on the first segment of path.
// path must hold at least two points.
func BearingAtStart(path core.Polyline) float64 {
	return bearing(path[0], path[1])
}

// BearingAtEnd orients a glyph on the last segment of path.
// path must hold at least two points.
func BearingAtEnd(path core.Polyline) float64 {
	n := len(path)
	return bearing(path[n-2], path[n-1])
}

// RotationCorrection returns the empirical correction for a movement: its own
// override plus its phase's override. Missing entries contribute zero.
func RotationCorrection(movementID string, phase core.Phase) float64 {
	return movementRotation[movementID] + phaseRotation[phase]
}

// ArrowRotation returns the final glyph rotation for a movement whose arrow is
// drawn at the end of the path when atEnd is set, at the start otherwise.
func ArrowRotation(m core.Movement, atEnd bool) float64 {
	base := BearingAtStart(m.Path)
	if atEnd {
		base = BearingAtEnd(m.Path)
	}
	return base + GlobalArrowCorrection + RotationCorrection(m.ID, m.OperationPhase)
}
