// pkg/core/types.go
package core

// LatLng is a WGS84 coordinate stored as [latitude, longitude], the same order
// the map client expects.
type LatLng [2]float64

// Lat returns the latitude in decimal degrees.
func (p LatLng) Lat() float64 { return p[0] }

// Lng returns the longitude in decimal degrees.
func (p LatLng) Lng() float64 { return p[1] }

// Polyline is an ordered path of coordinates.
type Polyline []LatLng

// First returns the first point. The polyline must not be empty.
func (p Polyline) First() LatLng { return p[0] }

// Last returns the last point. The polyline must not be empty.
func (p Polyline) Last() LatLng { return p[len(p)-1] }
