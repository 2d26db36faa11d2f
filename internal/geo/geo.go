package geo

import (
	"errors"

	"github.com/brusilov1916/brusilov-map/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Coordinates are stored as WGS84 [lat, lng]. GeoJSON and the simplefeatures
// types use X=lng, Y=lat, so every conversion below swaps the pair.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// CRS selects the output coordinate reference system for geometries.
type CRS int

const (
	// CRS4326 keeps WGS84 longitude/latitude.
	CRS4326 CRS = 4326
	// CRS3857 projects to Web Mercator metres.
	CRS3857 CRS = 3857
)

var to3857 = wgs84.EPSG().Transform(4326, 3857)

// To3857 projects a WGS84 coordinate to Web Mercator x/y metres.
func To3857(p core.LatLng) (x, y float64) {
	x, y, _ = to3857(p.Lng(), p.Lat(), 0)
	return x, y
}

// ValidLatLng reports whether p lies inside the WGS84 bounds.
func ValidLatLng(p core.LatLng) bool {
	return p.Lat() >= -90 && p.Lat() <= 90 && p.Lng() >= -180 && p.Lng() <= 180
}

func xy(p core.LatLng, crs CRS) (float64, float64) {
	if crs == CRS3857 {
		return To3857(p)
	}
	return p.Lng(), p.Lat()
}

// Point converts a coordinate to a geom.Point in the given CRS.
func Point(p core.LatLng, crs CRS) geom.Point {
	x, y := xy(p, crs)
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: x, Y: y},
		Type: geom.DimXY,
	})
}

// LineString converts a polyline to a geom.LineString in the given CRS.
func LineString(path core.Polyline, crs CRS) geom.LineString {
	flat := make([]float64, 0, len(path)*2)
	for _, p := range path {
		x, y := xy(p, crs)
		flat = append(flat, x, y)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
}
