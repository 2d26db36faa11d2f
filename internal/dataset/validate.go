package dataset

import (
	"errors"
	"fmt"

	"github.com/brusilov1916/brusilov-map/internal/geo"
	"github.com/brusilov1916/brusilov-map/internal/phase"
	"github.com/brusilov1916/brusilov-map/pkg/core"
)

var knownArrowTypes = map[core.ArrowType]bool{
	core.ArrowNormal:            true,
	core.ArrowWide:              true,
	core.ArrowCounterattack:     true,
	core.ArrowStopped:           true,
	core.ArrowMultipleStopped:   true,
	core.ArrowShortUnsuccessful: true,
}

var knownFrontLineTypes = map[core.FrontLineType]bool{
	core.FrontLineInitial:      true,
	core.FrontLineAdvance:      true,
	core.FrontLineFinal:        true,
	core.FrontLineIntermediate: true,
}

var knownImportance = map[core.Importance]bool{
	core.ImportanceMajor:     true,
	core.ImportanceStrategic: true,
	core.ImportanceRegional:  true,
	core.ImportanceOther:     true,
}

var knownRiverTypes = map[core.RiverType]bool{
	core.RiverEstuary: true,
	core.RiverLine:    true,
}

// Validate checks every record invariant and reports all violations at once.
func (d *Dataset) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	seen := map[string]bool{}
	for _, m := range d.Movements {
		if m.ID == "" {
			add("movement %q: empty id", m.Name)
		} else if seen[m.ID] {
			add("movement %s: duplicate id", m.ID)
		}
		seen[m.ID] = true
		if err := geo.ValidatePolyline(m.Path); err != nil {
			add("movement %s: %w", m.ID, err)
		}
		if m.OperationPhase == core.PhaseAll {
			add("movement %s: missing operation_phase", m.ID)
		} else if _, err := phase.Parse(string(m.OperationPhase)); err != nil {
			add("movement %s: %w", m.ID, err)
		}
		if !knownArrowTypes[m.ArrowType] {
			add("movement %s: unknown arrow_type %q", m.ID, m.ArrowType)
		}
	}

	seen = map[string]bool{}
	for _, l := range d.FrontLines {
		if seen[l.ID] {
			add("front line %s: duplicate id", l.ID)
		}
		seen[l.ID] = true
		if err := geo.ValidatePolyline(l.Path); err != nil {
			add("front line %s: %w", l.ID, err)
		}
		if !knownFrontLineTypes[l.Type] {
			add("front line %s: unknown type %q", l.ID, l.Type)
		}
	}

	for _, a := range d.FixedArrows {
		if err := geo.ValidatePolyline(a.Path); err != nil {
			add("fixed arrow %s: %w", a.ID, err)
		}
	}

	seen = map[string]bool{}
	for _, c := range d.Cities {
		if c.ID == "" {
			add("city %q: empty id", c.Name)
		} else if seen[c.ID] {
			add("city %s: duplicate id", c.ID)
		}
		seen[c.ID] = true
		if !geo.ValidLatLng(c.Position) {
			add("city %s: %w", c.ID, geo.ErrInvalidCoordinates)
		}
		if !knownImportance[c.Importance] {
			add("city %s: unknown importance %q", c.ID, c.Importance)
		}
	}

	seen = map[string]bool{}
	for _, r := range d.Rivers {
		if seen[r.ID] {
			add("river %s: duplicate id", r.ID)
		}
		seen[r.ID] = true
		if !knownRiverTypes[r.Type] {
			add("river %s: unknown type %q", r.ID, r.Type)
		}
		if !geo.ValidLatLng(r.Position) {
			add("river %s: %w", r.ID, geo.ErrInvalidCoordinates)
		}
	}

	for _, p := range d.Phases {
		if p.ID == core.PhaseAll {
			add("phase %q: empty id", p.Name)
			continue
		}
		if _, err := phase.Parse(string(p.ID)); err != nil {
			add("phase narrative: %w", err)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidDataset, errors.Join(errs...))
}
