package models

// Outcome identifies one side of a 1X2 market
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeDraw Outcome = "draw"
	OutcomeAway Outcome = "away"
)

// OutcomePriority is the fixed order used to break ties between outcomes.
// Anything choosing "the best" outcome must walk this slice rather than a map.
var OutcomePriority = []Outcome{OutcomeHome, OutcomeDraw, OutcomeAway}

// IsValid reports whether the outcome is one of home, draw or away
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeHome, OutcomeDraw, OutcomeAway:
		return true
	default:
		return false
	}
}

// String returns the outcome name
func (o Outcome) String() string {
	return string(o)
}
