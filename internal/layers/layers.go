// Package layers composes the renderable map layers for a phase selection.
package layers

import (
	"errors"
	"fmt"

	"github.com/brusilov1916/brusilov-map/internal/capture"
	"github.com/brusilov1916/brusilov-map/internal/dataset"
	"github.com/brusilov1916/brusilov-map/internal/geo"
	"github.com/brusilov1916/brusilov-map/internal/phase"
	"github.com/brusilov1916/brusilov-map/internal/style"
	"github.com/brusilov1916/brusilov-map/pkg/core"
)

// ErrUnknownMovement is returned when the selected movement id is not in the dataset.
var ErrUnknownMovement = errors.New("unknown movement")

// Selection is the user's current filter.
type Selection struct {
	Phase      core.Phase
	MovementID string
}

// Arrow is a direction glyph placed on a movement.
type Arrow struct {
	MovementID string      `json:"movement_id"`
	Position   core.LatLng `json:"position"`
	Rotation   float64     `json:"rotation"`
	Color      string      `json:"color"`
	AtEnd      bool        `json:"at_end"`
}

// Movement is a styled movement polyline with its arrow.
type Movement struct {
	core.Movement
	Style    style.Line `json:"style"`
	Selected bool       `json:"selected"`
	Arrow    Arrow      `json:"arrow"`
}

// FrontLine is a styled front-line snapshot.
type FrontLine struct {
	core.FrontLine
	Style style.Line `json:"style"`
}

// City is a city marker with its resolved capture status.
type City struct {
	core.City
	Status capture.Status `json:"status"`
	Marker style.Marker   `json:"marker"`
}

// Layers is everything the map draws for one selection.
type Layers struct {
	Phase       core.Phase        `json:"phase"`
	Selected    string            `json:"selected,omitempty"`
	Movements   []Movement        `json:"movements"`
	FrontLines  []FrontLine       `json:"front_lines"`
	Cities      []City            `json:"cities"`
	Rivers      []core.River      `json:"rivers"`
	FixedArrows []core.FixedArrow `json:"fixed_arrows"`
}

// Composer builds layers from a dataset.
type Composer struct {
	ds       *dataset.Dataset
	resolver *capture.Resolver
}

// NewComposer creates a composer. A nil resolver uses the historical table.
func NewComposer(ds *dataset.Dataset, resolver *capture.Resolver) *Composer {
	if resolver == nil {
		resolver = capture.Default()
	}
	return &Composer{ds: ds, resolver: resolver}
}

// Dataset returns the dataset the composer reads from.
func (c *Composer) Dataset() *dataset.Dataset {
	return c.ds
}

// Compose builds the layers for sel.
func (c *Composer) Compose(sel Selection) (*Layers, error) {
	if _, err := phase.Parse(string(sel.Phase)); err != nil {
		return nil, err
	}
	if sel.MovementID != "" {
		if _, ok := c.ds.Movement(sel.MovementID); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMovement, sel.MovementID)
		}
	}

	out := &Layers{
		Phase:       sel.Phase,
		Selected:    sel.MovementID,
		Movements:   c.Movements(sel),
		FrontLines:  c.FrontLines(sel.Phase),
		Cities:      c.Cities(sel.Phase),
		Rivers:      RenderedRivers(c.ds.Rivers),
		FixedArrows: c.ds.FixedArrows,
	}
	return out, nil
}

// Movements returns the styled movements visible for sel.
func (c *Composer) Movements(sel Selection) []Movement {
	visible := phase.FilterMovements(c.ds.Movements, sel.Phase)
	out := make([]Movement, 0, len(visible))
	for _, m := range visible {
		selected := m.ID == sel.MovementID
		s := style.For(m, selected)
		atEnd := style.ArrowAtEnd(m.ID)
		out = append(out, Movement{
			Movement: m,
			Style:    s,
			Selected: selected,
			Arrow: Arrow{
				MovementID: m.ID,
				Position:   style.ArrowAnchor(m),
				Rotation:   geo.ArrowRotation(m, atEnd),
				Color:      s.Color,
				AtEnd:      atEnd,
			},
		})
	}
	return out
}

// FrontLines returns the styled front lines visible for p.
func (c *Composer) FrontLines(p core.Phase) []FrontLine {
	visible := phase.FilterFrontLines(c.ds.FrontLines, p)
	out := make([]FrontLine, 0, len(visible))
	for _, l := range visible {
		out = append(out, FrontLine{FrontLine: l, Style: style.FrontLine(l.Type)})
	}
	return out
}

// Cities returns every city with its capture status for p.
func (c *Composer) Cities(p core.Phase) []City {
	out := make([]City, 0, len(c.ds.Cities))
	for _, city := range c.ds.Cities {
		out = append(out, c.city(city, p))
	}
	return out
}

// City returns one city with its capture status for p.
func (c *Composer) City(id string, p core.Phase) (City, bool) {
	city, ok := c.ds.City(id)
	if !ok {
		return City{}, false
	}
	return c.city(city, p), true
}

func (c *Composer) city(city core.City, p core.Phase) City {
	status := c.resolver.ResolveCity(city, p)
	return City{
		City:   city,
		Status: status,
		Marker: style.City(status, city.Importance),
	}
}

// RenderedRivers keeps the estuaries. River lines are loaded but never drawn.
func RenderedRivers(rivers []core.River) []core.River {
	out := make([]core.River, 0, len(rivers))
	for _, r := range rivers {
		if Rendered(r) {
			out = append(out, r)
		}
	}
	return out
}

// Rendered reports whether r is drawn on the map.
func Rendered(r core.River) bool {
	return r.Type == core.RiverEstuary
}
