// Package capture resolves whether a city is shown as captured for a phase.
//
// Historical captures are phase scoped: a city taken in August is not shown as
// captured while the user looks at the June breakthrough. Resolution walks an
// ordered rule list; the last rule naming the city decides.
package capture

import (
	"slices"

	"github.com/brusilov1916/brusilov-map/pkg/core"
)

// Status is the displayed capture state of a city.
type Status struct {
	Captured    bool   `json:"captured"`
	CaptureDate string `json:"capture_date,omitempty"`
	CaptureArmy string `json:"capture_army,omitempty"`
}

// Rule marks Cities as captured by Army on Date while the selected phase is one
// of Phases (or no phase is selected).
type Rule struct {
	Name   string
	Cities []string
	Phases []core.Phase
	Date   string
	Army   string
}

func (r Rule) covers(cityID string) bool {
	return slices.Contains(r.Cities, cityID)
}

func (r Rule) accepts(selected core.Phase) bool {
	return selected == core.PhaseAll || slices.Contains(r.Phases, selected)
}

// Resolver evaluates a rule list.
type Resolver struct {
	rules []Rule
}

// NewResolver creates a resolver over rules, evaluated in order.
func NewResolver(rules []Rule) *Resolver {
	return &Resolver{rules: rules}
}

// Default returns a resolver over the historical rule table.
func Default() *Resolver {
	return NewResolver(Rules)
}

// Rule returns the rule that decides cityID, if any.
func (r *Resolver) Rule(cityID string) (Rule, bool) {
	for i := len(r.rules) - 1; i >= 0; i-- {
		if r.rules[i].covers(cityID) {
			return r.rules[i], true
		}
	}
	return Rule{}, false
}

// Resolve returns the capture status of a city for the selected phase. Cities no
// rule names keep their base values and carry no army.
func (r *Resolver) Resolve(cityID string, baseCaptured bool, baseCaptureDate string, selected core.Phase) Status {
	rule, ok := r.Rule(cityID)
	if !ok {
		return Status{Captured: baseCaptured, CaptureDate: baseCaptureDate}
	}
	if !rule.accepts(selected) {
		return Status{}
	}
	return Status{Captured: true, CaptureDate: rule.Date, CaptureArmy: rule.Army}
}

// ResolveCity is Resolve over a city record.
func (r *Resolver) ResolveCity(c core.City, selected core.Phase) Status {
	return r.Resolve(c.ID, c.Captured, c.CaptureDate, selected)
}
