package models

import (
	"fmt"
	"math"
)

// EngineShape describes which probability fields an engine output carries
type EngineShape int

const (
	// ShapeInvalid means the entry carries no usable probability
	ShapeInvalid EngineShape = iota
	// ShapeBinary is a single outcome probability {prob}
	ShapeBinary
	// ShapeThreeWay is a full 1X2 vector {prob_home, prob_draw, prob_away}
	ShapeThreeWay
)

// String returns string representation of the shape
func (s EngineShape) String() string {
	switch s {
	case ShapeBinary:
		return "binary"
	case ShapeThreeWay:
		return "three_way"
	default:
		return "invalid"
	}
}

// Default values for optional engine fields
const (
	DefaultEngineReliability = 0.5
	DefaultEngineVolatility  = 0.0
)

// EngineOutput is one model's probability estimate for one match.
// Pointer fields distinguish "absent" from zero.
type EngineOutput struct {
	SourceID    string   `json:"source_id"`
	Prob        *float64 `json:"prob,omitempty"`
	ProbHome    *float64 `json:"prob_home,omitempty"`
	ProbDraw    *float64 `json:"prob_draw,omitempty"`
	ProbAway    *float64 `json:"prob_away,omitempty"`
	Reliability *float64 `json:"reliability,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
	Volatility  *float64 `json:"volatility,omitempty"`
}

// Shape detects the probability shape of the entry
func (e EngineOutput) Shape() EngineShape {
	if e.ProbHome != nil && e.ProbDraw != nil && e.ProbAway != nil {
		return ShapeThreeWay
	}
	if e.Prob != nil {
		return ShapeBinary
	}
	return ShapeInvalid
}

// Validate checks that the fields required by the detected shape are present and finite
func (e EngineOutput) Validate() error {
	shape := e.Shape()
	switch shape {
	case ShapeInvalid:
		return fmt.Errorf("%w: engine %q has no probability fields", ErrMalformedInput, e.SourceID)
	case ShapeBinary:
		if !isFinite(*e.Prob) {
			return fmt.Errorf("%w: engine %q prob is not numeric", ErrMalformedInput, e.SourceID)
		}
	case ShapeThreeWay:
		for _, p := range []float64{*e.ProbHome, *e.ProbDraw, *e.ProbAway} {
			if !isFinite(p) {
				return fmt.Errorf("%w: engine %q outcome probability is not numeric", ErrMalformedInput, e.SourceID)
			}
		}
	}
	optional := []struct {
		name  string
		value *float64
	}{
		{"reliability", e.Reliability},
		{"confidence", e.Confidence},
		{"volatility", e.Volatility},
	}
	for _, f := range optional {
		if f.value != nil && !isFinite(*f.value) {
			return fmt.Errorf("%w: engine %q %s is not numeric", ErrMalformedInput, e.SourceID, f.name)
		}
	}
	return nil
}

// Trust returns the self-reported trust of the entry: reliability for binary
// outputs, confidence for three-way outputs, falling back to the other field
// and finally to DefaultEngineReliability.
func (e EngineOutput) Trust() float64 {
	first, second := e.Reliability, e.Confidence
	if e.Shape() == ShapeThreeWay {
		first, second = e.Confidence, e.Reliability
	}
	if first != nil {
		return *first
	}
	if second != nil {
		return *second
	}
	return DefaultEngineReliability
}

// VolatilityOrDefault returns volatility or DefaultEngineVolatility when absent
func (e EngineOutput) VolatilityOrDefault() float64 {
	if e.Volatility == nil {
		return DefaultEngineVolatility
	}
	return *e.Volatility
}

// OutcomeProb returns the three-way probability for an outcome
func (e EngineOutput) OutcomeProb(o Outcome) float64 {
	var p *float64
	switch o {
	case OutcomeHome:
		p = e.ProbHome
	case OutcomeDraw:
		p = e.ProbDraw
	case OutcomeAway:
		p = e.ProbAway
	}
	if p == nil {
		return 0
	}
	return *p
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Float64 returns a pointer to v. Convenience for building inputs.
func Float64(v float64) *float64 {
	return &v
}
