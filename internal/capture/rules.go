package capture

import (
	"github.com/brusilov1916/brusilov-map/internal/phase"
	"github.com/brusilov1916/brusilov-map/pkg/core"
)

var (
	allPhases   = phase.All()
	fromKovel   = phase.From(core.PhaseKovelStrike)
	fromBattles = phase.From(core.PhaseKovelBattles)
	fromHalych  = phase.From(core.PhaseHalychOffensive)
	fourthFifth = []core.Phase{core.PhaseFourthKovelBattle, core.PhaseFifthKovelBattle}
)

// Rules is the historical capture table. Order is precedence: later rules win
// for cities they share with earlier ones (brody).
var Rules = []Rule{
	{
		Name:   "lutsk",
		Cities: []string{"lutsk"},
		Phases: allPhases,
		Date:   "7 June 1916",
		Army:   "8th Army",
	},
	{
		Name:   "dubno",
		Cities: []string{"dubno"},
		Phases: allPhases,
		Date:   "10 June 1916",
		Army:   "8th Army",
	},
	{
		Name:   "czernowitz",
		Cities: []string{"czernowitz"},
		Phases: allPhases,
		Date:   "18 June 1916",
		Army:   "9th Army",
	},
	{
		Name:   "bukovina",
		Cities: []string{"zaleshchyky", "sniatyn", "kuty"},
		Phases: allPhases,
		Date:   "June 1916",
		Army:   "9th Army",
	},
	{
		Name:   "kolomyia",
		Cities: []string{"kolomyia"},
		Phases: fromKovel,
		Date:   "30 June 1916",
		Army:   "9th Army",
	},
	{
		Name:   "kovel_strike",
		Cities: []string{"manevychi", "kolki", "galuzia"},
		Phases: fromKovel,
		Date:   "July 1916",
		Army:   "3rd Army",
	},
	{
		Name:   "kovel_strike_south",
		Cities: []string{"radziwillow", "brody"},
		Phases: fromKovel,
		Date:   "July 1916",
		Army:   "11th Army",
	},
	{
		Name:   "brody",
		Cities: []string{"brody"},
		Phases: fromBattles,
		Date:   "28 July 1916",
		Army:   "11th Army",
	},
	{
		Name:   "stanislau",
		Cities: []string{"stanislau"},
		Phases: fromHalych,
		Date:   "10 August 1916",
		Army:   "9th Army",
	},
	{
		Name:   "halych_offensive",
		Cities: []string{"monasterzyska", "buchach"},
		Phases: fromHalych,
		Date:   "August 1916",
		Army:   "7th Army",
	},
	{
		Name:   "fourth_kovel_battle",
		Cities: []string{"korytnica", "svinyukhy"},
		Phases: fourthFifth,
		Date:   "September 1916",
		Army:   "Special Army",
	},
}
