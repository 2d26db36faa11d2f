package layers

import (
	"github.com/brusilov1916/brusilov-map/internal/geo"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Layer names carried in the "layer" property of every feature.
const (
	LayerMovement   = "movement"
	LayerArrow      = "arrow"
	LayerFrontLine  = "front_line"
	LayerCity       = "city"
	LayerRiver      = "river"
	LayerFixedArrow = "fixed_arrow"
)

// Popup returns the detail lines shown when the city is clicked. The capture
// lines only appear for a captured city.
func (c City) Popup() []string {
	lines := []string{c.Name}
	if c.Population != "" {
		lines = append(lines, "Population: "+c.Population)
	}
	if c.Description != "" {
		lines = append(lines, c.Description)
	}
	if c.Significance != "" {
		lines = append(lines, c.Significance)
	}
	if c.Status.Captured {
		if c.Status.CaptureDate != "" {
			lines = append(lines, "Captured: "+c.Status.CaptureDate)
		}
		if c.Status.CaptureArmy != "" {
			lines = append(lines, "Army: "+c.Status.CaptureArmy)
		}
	}
	return lines
}

// FeatureCollection flattens the layers into a single GeoJSON collection in
// the given CRS. Draw order follows the slice order: front lines, rivers,
// fixed arrows, movements with their arrows, then cities on top.
func (l *Layers) FeatureCollection(crs geo.CRS) geom.GeoJSONFeatureCollection {
	fc := make(geom.GeoJSONFeatureCollection, 0,
		len(l.FrontLines)+len(l.Rivers)+len(l.FixedArrows)+2*len(l.Movements)+len(l.Cities))

	for _, f := range l.FrontLines {
		fc = append(fc, geom.GeoJSONFeature{
			ID:       f.ID,
			Geometry: geo.LineString(f.Path, crs).AsGeometry(),
			Properties: map[string]interface{}{
				"layer":       LayerFrontLine,
				"name":        f.Name,
				"type":        string(f.Type),
				"date":        f.Date,
				"length":      f.Length,
				"description": f.Description,
				"style":       f.Style,
			},
		})
	}

	for _, r := range l.Rivers {
		fc = append(fc, geom.GeoJSONFeature{
			ID:       r.ID,
			Geometry: geo.Point(r.Position, crs).AsGeometry(),
			Properties: map[string]interface{}{
				"layer":       LayerRiver,
				"name":        r.Name,
				"type":        string(r.Type),
				"description": r.Description,
			},
		})
	}

	for _, a := range l.FixedArrows {
		fc = append(fc, geom.GeoJSONFeature{
			ID:       a.ID,
			Geometry: geo.LineString(a.Path, crs).AsGeometry(),
			Properties: map[string]interface{}{
				"layer":    LayerFixedArrow,
				"name":     a.Name,
				"color":    a.Color,
				"rotation": a.Rotation,
			},
		})
	}

	for _, m := range l.Movements {
		fc = append(fc, geom.GeoJSONFeature{
			ID:       m.ID,
			Geometry: geo.LineString(m.Path, crs).AsGeometry(),
			Properties: map[string]interface{}{
				"layer":           LayerMovement,
				"name":            m.Name,
				"army":            m.Army,
				"commander":       m.Commander,
				"strength":        m.Strength,
				"period":          m.Period,
				"description":     m.Description,
				"result":          m.Result,
				"losses":          m.Losses,
				"operation_phase": string(m.OperationPhase),
				"is_enemy":        m.IsEnemy,
				"arrow_type":      string(m.ArrowType),
				"selected":        m.Selected,
				"style":           m.Style,
			},
		})
		fc = append(fc, geom.GeoJSONFeature{
			ID:       m.ID + ":arrow",
			Geometry: geo.Point(m.Arrow.Position, crs).AsGeometry(),
			Properties: map[string]interface{}{
				"layer":       LayerArrow,
				"movement_id": m.ID,
				"rotation":    m.Arrow.Rotation,
				"color":       m.Arrow.Color,
				"at_end":      m.Arrow.AtEnd,
			},
		})
	}

	for _, c := range l.Cities {
		props := map[string]interface{}{
			"layer":      LayerCity,
			"name":       c.Name,
			"importance": string(c.Importance),
			"captured":   c.Status.Captured,
			"marker":     c.Marker,
			"popup":      c.Popup(),
		}
		if c.Status.Captured {
			props["capture_date"] = c.Status.CaptureDate
			props["capture_army"] = c.Status.CaptureArmy
		}
		fc = append(fc, geom.GeoJSONFeature{
			ID:         c.ID,
			Geometry:   geo.Point(c.Position, crs).AsGeometry(),
			Properties: props,
		})
	}

	return fc
}
