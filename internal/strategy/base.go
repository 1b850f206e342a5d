// Package strategy turns a scored match into a bettable pick: risk,
// the short-odds filter and fractional Kelly staking.
package strategy

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/yourusername/clever-tipster/internal/models"
)

// Config holds pick selection parameters
type Config struct {
	MinOdds          float64
	ShortMinProb     float64
	ShortMinConf     float64
	ShortMaxRisk     float64
	ShortMinEdge     float64
	KellyFraction    float64
	MaxStakeFraction float64
}

// DefaultConfig returns the standard selection parameters
func DefaultConfig() Config {
	return Config{
		MinOdds:          1.60,
		ShortMinProb:     0.78,
		ShortMinConf:     0.70,
		ShortMaxRisk:     0.38,
		ShortMinEdge:     0.07,
		KellyFraction:    0.25,
		MaxStakeFraction: 0.05,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.MinOdds <= 1.0 {
		return fmt.Errorf("%w: min odds must be greater than 1.0", models.ErrInvalidConfiguration)
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"short odds min probability", c.ShortMinProb},
		{"short odds min confidence", c.ShortMinConf},
		{"short odds max risk", c.ShortMaxRisk},
		{"short odds min edge", c.ShortMinEdge},
		{"kelly fraction", c.KellyFraction},
		{"max stake fraction", c.MaxStakeFraction},
	} {
		if f.value < 0 || f.value > 1 || math.IsNaN(f.value) {
			return fmt.Errorf("%w: %s must be in [0,1], got %v", models.ErrInvalidConfiguration, f.name, f.value)
		}
	}
	return nil
}

// BaseStrategy provides shared pick evaluation
type BaseStrategy struct {
	cfg Config
}

// NewBaseStrategy creates a strategy after validating its configuration
func NewBaseStrategy(cfg Config) (*BaseStrategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &BaseStrategy{cfg: cfg}, nil
}

// ValidateOdds ensures odds are bettable
func (b *BaseStrategy) ValidateOdds(odds float64) error {
	if math.IsNaN(odds) || odds <= 1.0 {
		return fmt.Errorf("odds must be greater than 1.0")
	}
	return nil
}

// Risk blends the loss probability with the lack of confidence
func (b *BaseStrategy) Risk(probability, confidence float64) float64 {
	p := b.NormalizeProbability(probability)
	c := b.NormalizeProbability(confidence)
	return b.NormalizeProbability(0.5*(1-p) + 0.5*(1-c))
}

// ApplyKellyCriterion returns the fractional Kelly stake as a fraction of
// bankroll, capped at MaxStakeFraction and rounded to four places
func (b *BaseStrategy) ApplyKellyCriterion(probability, odds float64) float64 {
	if probability <= 0 || odds <= 1 {
		return 0
	}
	p := probability
	q := 1.0 - p
	bOdds := odds - 1.0
	kelly := (bOdds*p - q) / bOdds
	if kelly <= 0 {
		return 0
	}
	stake := math.Min(kelly*b.cfg.KellyFraction, b.cfg.MaxStakeFraction)
	f, _ := decimal.NewFromFloat(stake).Round(4).Float64()
	return f
}

// NormalizeProbability ensures probability in [0,1]
func (b *BaseStrategy) NormalizeProbability(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
