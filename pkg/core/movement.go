// pkg/core/movement.go
package core

// ArrowType controls how a movement's stroke is drawn.
type ArrowType string

const (
	ArrowNormal            ArrowType = "normal"
	ArrowWide              ArrowType = "wide"
	ArrowCounterattack     ArrowType = "counterattack"
	ArrowStopped           ArrowType = "stopped"
	ArrowMultipleStopped   ArrowType = "multiple_stopped"
	ArrowShortUnsuccessful ArrowType = "short_unsuccessful"
)

// Movement is a directed path representing an army or unit action.
// Path always holds at least two points once the dataset has been validated.
type Movement struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	Army           string    `json:"army" yaml:"army"`
	Commander      string    `json:"commander,omitempty" yaml:"commander"`
	Strength       string    `json:"strength,omitempty" yaml:"strength"`
	Period         string    `json:"period,omitempty" yaml:"period"`
	Description    string    `json:"description,omitempty" yaml:"description"`
	Result         string    `json:"result,omitempty" yaml:"result"`
	Losses         string    `json:"losses,omitempty" yaml:"losses"`
	Path           Polyline  `json:"path" yaml:"path"`
	OperationPhase Phase     `json:"operation_phase" yaml:"operation_phase"`
	IsEnemy        bool      `json:"is_enemy" yaml:"is_enemy"`
	ArrowType      ArrowType `json:"arrow_type" yaml:"arrow_type"`
}

// FrontLineType tags which snapshot of the contact line a front line is.
type FrontLineType string

const (
	FrontLineInitial      FrontLineType = "initial"
	FrontLineAdvance      FrontLineType = "advance"
	FrontLineFinal        FrontLineType = "final"
	FrontLineIntermediate FrontLineType = "intermediate"
)

// FrontLine is a snapshot polyline of the contact line at a point in time.
type FrontLine struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Path        Polyline      `json:"path" yaml:"path"`
	Type        FrontLineType `json:"type" yaml:"type"`
	Date        string        `json:"date,omitempty" yaml:"date"`
	Length      string        `json:"length,omitempty" yaml:"length"`
	Description string        `json:"description,omitempty" yaml:"description"`
}

// FixedArrow is one arm of a hard-coded historical arrow pair. These are drawn
// for every phase.
type FixedArrow struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Path     Polyline `json:"path" yaml:"path"`
	Color    string   `json:"color" yaml:"color"`
	Rotation float64  `json:"rotation" yaml:"rotation"`
}
