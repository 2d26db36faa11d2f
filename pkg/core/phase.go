// pkg/core/phase.go
package core

// Phase is a named sub-period of the offensive. The empty Phase means all phases.
type Phase string

const (
	PhaseAll               Phase = ""
	PhaseLutskBreakthrough Phase = "lutsk_breakthrough"
	PhaseKovelStrike       Phase = "kovel_strike"
	PhaseKovelBattles      Phase = "kovel_battles"
	PhaseHalychOffensive   Phase = "halych_offensive"
	PhaseFourthKovelBattle Phase = "fourth_kovel_battle"
	PhaseFifthKovelBattle  Phase = "fifth_kovel_battle"
)

// Phases lists the named phases in historical order.
var Phases = []Phase{
	PhaseLutskBreakthrough,
	PhaseKovelStrike,
	PhaseKovelBattles,
	PhaseHalychOffensive,
	PhaseFourthKovelBattle,
	PhaseFifthKovelBattle,
}

// PhaseInfo is the narrative shown in the operation info overlay.
type PhaseInfo struct {
	ID          Phase  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Period      string `json:"period" yaml:"period"`
	Description string `json:"description" yaml:"description"`
	Result      string `json:"result,omitempty" yaml:"result"`
}
