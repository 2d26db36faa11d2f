// Package tiles handles the slippy-map tile template published to clients.
package tiles

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/brusilov1916/brusilov-map/internal/geo"
	"github.com/brusilov1916/brusilov-map/pkg/core"
)

// MaxZoom is the deepest zoom level accepted by At and TileAt.
const MaxZoom = 22

// maxLat is the latitude where the Web Mercator square ends.
const maxLat = 85.05112878

// mercatorExtent is half the width of the EPSG:3857 square in metres.
const mercatorExtent = 20037508.342789244

// Template expands {s}, {z}, {x}, {y} and {r} placeholders.
type Template struct {
	URL        string `json:"url"`
	Subdomains string `json:"subdomains"`
}

// Tile is an XYZ tile address.
type Tile struct {
	Z int `json:"z"`
	X int `json:"x"`
	Y int `json:"y"`
}

// URLFor expands the template for t. {r} becomes "@2x" for retina clients.
// Subdomains rotate by tile position so neighbouring tiles spread across hosts.
func (t Template) URLFor(tile Tile, retina bool) (string, error) {
	if tile.Z < 0 || tile.Z > MaxZoom {
		return "", fmt.Errorf("zoom %d out of range", tile.Z)
	}
	n := 1 << tile.Z
	if tile.X < 0 || tile.X >= n || tile.Y < 0 || tile.Y >= n {
		return "", fmt.Errorf("tile %d/%d/%d out of range", tile.Z, tile.X, tile.Y)
	}

	r := ""
	if retina {
		r = "@2x"
	}
	s := ""
	if subs := []rune(t.Subdomains); len(subs) > 0 {
		s = string(subs[(tile.X+tile.Y)%len(subs)])
	}

	return strings.NewReplacer(
		"{s}", s,
		"{z}", strconv.Itoa(tile.Z),
		"{x}", strconv.Itoa(tile.X),
		"{y}", strconv.Itoa(tile.Y),
		"{r}", r,
	).Replace(t.URL), nil
}

// At is URLFor with separate coordinates.
func (t Template) At(z, x, y int, retina bool) (string, error) {
	return t.URLFor(Tile{Z: z, X: x, Y: y}, retina)
}

// TileAt returns the tile containing p at zoom z. Latitudes beyond the
// Web Mercator limit land in the first or last row.
func TileAt(p core.LatLng, z int) (Tile, error) {
	if !geo.ValidLatLng(p) {
		return Tile{}, fmt.Errorf("%w: %v", geo.ErrInvalidCoordinates, p)
	}
	if z < 0 || z > MaxZoom {
		return Tile{}, fmt.Errorf("zoom %d out of range", z)
	}

	// poles project to infinity
	lat := math.Max(-maxLat, math.Min(maxLat, p.Lat()))
	x, y := geo.To3857(core.LatLng{lat, p.Lng()})
	n := float64(int(1) << z)
	size := 2 * mercatorExtent / n

	tx := int(math.Floor((x + mercatorExtent) / size))
	ty := int(math.Floor((mercatorExtent - y) / size))
	return Tile{Z: z, X: clamp(tx, int(n)-1), Y: clamp(ty, int(n)-1)}, nil
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
