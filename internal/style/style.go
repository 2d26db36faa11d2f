// Package style maps annotation attributes to visual styles.
package style

import (
	"github.com/brusilov1916/brusilov-map/internal/capture"
	"github.com/brusilov1916/brusilov-map/pkg/core"
)

// Palette
const (
	Blue     = "#2563eb"
	Red      = "#dc2626"
	DarkBlue = "#1e3a8a"
	Amber    = "#f59e0b"

	CapturedFill     = "#16a34a"
	CapturedBorder   = "#14532d"
	UncapturedFill   = "#dc2626"
	UncapturedBorder = "#7f1d1d"
)

const (
	// SelectionWeightDelta is added to the stroke of the selected movement.
	SelectionWeightDelta = 2
	SelectedOpacity      = 1.0
	BaseOpacity          = 0.8
)

// Line is the stroke style of a polyline.
type Line struct {
	Color     string  `json:"color"`
	Weight    int     `json:"weight"`
	DashArray string  `json:"dashArray,omitempty"`
	Opacity   float64 `json:"opacity"`
}

type lineBase struct {
	color  string
	dash   string
	weight int
}

var arrowStyles = map[core.ArrowType]lineBase{
	core.ArrowNormal:            {Blue, "", 4},
	core.ArrowWide:              {DarkBlue, "", 8},
	core.ArrowCounterattack:     {Red, "10,5", 4},
	core.ArrowStopped:           {Amber, "15,10", 4},
	core.ArrowMultipleStopped:   {Amber, "15,10", 4},
	core.ArrowShortUnsuccessful: {Red, "5,5", 4},
}

// For returns the stroke style of a movement. Enemy normal and counterattack
// movements are drawn in red. Unknown arrow types style as normal.
func For(m core.Movement, selected bool) Line {
	base, ok := arrowStyles[m.ArrowType]
	if !ok {
		base = arrowStyles[core.ArrowNormal]
	}
	if m.IsEnemy && (m.ArrowType == core.ArrowNormal || m.ArrowType == core.ArrowCounterattack || !ok) {
		base.color = Red
	}

	s := Line{
		Color:     base.color,
		Weight:    base.weight,
		DashArray: base.dash,
		Opacity:   BaseOpacity,
	}
	if selected {
		s.Weight += SelectionWeightDelta
		s.Opacity = SelectedOpacity
	}
	return s
}

// arrowAtEnd lists movements whose arrow glyph sits on the last point.
var arrowAtEnd = map[string]bool{
	"south_bypass_vladimir_volynsky": true,
	"special_army_vladimir_volynsky": true,
}

// ArrowAtEnd reports whether the movement's arrow is placed on its last point.
func ArrowAtEnd(movementID string) bool {
	return arrowAtEnd[movementID]
}

// ArrowAnchor returns where the movement's arrow glyph is placed.
func ArrowAnchor(m core.Movement) core.LatLng {
	if ArrowAtEnd(m.ID) {
		return m.Path.Last()
	}
	return m.Path.First()
}

// Marker is the circle style of a city.
type Marker struct {
	Fill   string `json:"fillColor"`
	Border string `json:"color"`
	Radius int    `json:"radius"`
}

var radius = map[core.Importance]int{
	core.ImportanceMajor:     10,
	core.ImportanceStrategic: 8,
	core.ImportanceRegional:  6,
	core.ImportanceOther:     5,
}

// City returns the marker style of a city in the given capture state.
func City(status capture.Status, importance core.Importance) Marker {
	r, ok := radius[importance]
	if !ok {
		r = radius[core.ImportanceOther]
	}
	if status.Captured {
		return Marker{Fill: CapturedFill, Border: CapturedBorder, Radius: r}
	}
	return Marker{Fill: UncapturedFill, Border: UncapturedBorder, Radius: r}
}

// FrontLine returns the stroke style of a front-line snapshot.
func FrontLine(t core.FrontLineType) Line {
	switch t {
	case core.FrontLineInitial:
		return Line{Color: "#6b7280", Weight: 3, DashArray: "8,6", Opacity: 0.9}
	case core.FrontLineAdvance:
		return Line{Color: "#991b1b", Weight: 3, Opacity: 0.9}
	case core.FrontLineFinal:
		return Line{Color: "#111827", Weight: 4, Opacity: 0.9}
	default:
		return Line{Color: "#92400e", Weight: 2, DashArray: "4,4", Opacity: 0.7}
	}
}
