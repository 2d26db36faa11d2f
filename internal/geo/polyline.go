package geo

import (
	"encoding/json"
	"fmt"

	"github.com/brusilov1916/brusilov-map/pkg/core"
)

// ParsePolyline parses a JSON array of coordinates into a core.Polyline.
// Input format: "[[lat1,lng1],[lat2,lng2],...]"
func ParsePolyline(input string) (core.Polyline, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return nil, fmt.Errorf("failed to parse polyline JSON: %w", err)
	}

	polyline := make(core.Polyline, len(coords))
	for i, coord := range coords {
		if len(coord) < 2 {
			return nil, fmt.Errorf("coordinate %d has insufficient values", i)
		}
		polyline[i] = core.LatLng{coord[0], coord[1]}
	}

	if err := ValidatePolyline(polyline); err != nil {
		return nil, err
	}
	return polyline, nil
}

// ValidatePolyline checks that a path can be fed to the bearing functions:
// at least two points, all inside WGS84 bounds.
func ValidatePolyline(path core.Polyline) error {
	if len(path) < 2 {
		return fmt.Errorf("polyline must have at least 2 points, got %d", len(path))
	}
	for i, p := range path {
		if !ValidLatLng(p) {
			return fmt.Errorf("point %d %v: %w", i, p, ErrInvalidCoordinates)
		}
	}
	return nil
}
