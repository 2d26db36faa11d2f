// Package phase validates phase selections and narrows movements and front
// lines to what a phase shows.
package phase

import (
	"errors"
	"fmt"

	"github.com/brusilov1916/brusilov-map/pkg/core"
)

// ErrUnknownPhase is returned when a phase string is not one of the known phases.
var ErrUnknownPhase = errors.New("unknown phase")

// All returns the named phases in historical order.
func All() []core.Phase {
	out := make([]core.Phase, len(core.Phases))
	copy(out, core.Phases)
	return out
}

// Parse validates s. The empty string is valid and means all phases.
func Parse(s string) (core.Phase, error) {
	p := core.Phase(s)
	if p == core.PhaseAll {
		return p, nil
	}
	for _, known := range core.Phases {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPhase, s)
}

func index(p core.Phase) int {
	for i, known := range core.Phases {
		if p == known {
			return i
		}
	}
	return -1
}

// From returns p and every phase after it.
func From(p core.Phase) []core.Phase {
	i := index(p)
	if i < 0 {
		return nil
	}
	return All()[i:]
}
