package phase

import "github.com/brusilov1916/brusilov-map/pkg/core"

// FilterMovements returns every movement for the empty phase, otherwise only
// those tagged with selected. Input order is preserved.
func FilterMovements(movements []core.Movement, selected core.Phase) []core.Movement {
	if selected == core.PhaseAll {
		return movements
	}
	out := make([]core.Movement, 0, len(movements))
	for _, m := range movements {
		if m.OperationPhase == selected {
			out = append(out, m)
		}
	}
	return out
}

// reducedFrontLines are the phases that only have the initial, advance and final
// snapshots curated. Every other phase shows every front line.
var reducedFrontLines = map[core.Phase]bool{
	core.PhaseLutskBreakthrough: true,
	core.PhaseKovelStrike:       true,
}

var snapshotTypes = map[core.FrontLineType]bool{
	core.FrontLineInitial: true,
	core.FrontLineAdvance: true,
	core.FrontLineFinal:   true,
}

// FilterFrontLines returns the front lines shown for selected.
func FilterFrontLines(lines []core.FrontLine, selected core.Phase) []core.FrontLine {
	if !reducedFrontLines[selected] {
		return lines
	}
	out := make([]core.FrontLine, 0, len(lines))
	for _, l := range lines {
		if snapshotTypes[l.Type] {
			out = append(out, l)
		}
	}
	return out
}
