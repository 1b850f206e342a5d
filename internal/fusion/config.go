// Package fusion combines engine probability outputs into one posterior
// using reliability-weighted log-odds arithmetic.
package fusion

import (
	"fmt"

	"github.com/yourusername/clever-tipster/internal/models"
)

// Config holds fusion parameters
type Config struct {
	Prior            float64
	ThreeWayPrior    float64
	MinReliability   float64
	MaxEngines       int
	VolatilityWeight float64
}

// DefaultConfig returns the standard fusion parameters
func DefaultConfig() Config {
	return Config{
		Prior:            0.5,
		ThreeWayPrior:    1.0 / 3.0,
		MinReliability:   0.1,
		MaxEngines:       50,
		VolatilityWeight: 0.15,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Prior <= 0 || c.Prior >= 1 {
		return fmt.Errorf("%w: fusion prior must be in (0,1), got %v", models.ErrInvalidConfiguration, c.Prior)
	}
	if c.ThreeWayPrior <= 0 || c.ThreeWayPrior >= 1 {
		return fmt.Errorf("%w: fusion three-way prior must be in (0,1), got %v", models.ErrInvalidConfiguration, c.ThreeWayPrior)
	}
	if c.MinReliability <= 0 || c.MinReliability > 1 {
		return fmt.Errorf("%w: min reliability must be in (0,1], got %v", models.ErrInvalidConfiguration, c.MinReliability)
	}
	if c.MaxEngines < 1 {
		return fmt.Errorf("%w: max engines must be positive, got %d", models.ErrInvalidConfiguration, c.MaxEngines)
	}
	if c.VolatilityWeight < 0 || c.VolatilityWeight > 1 {
		return fmt.Errorf("%w: volatility weight must be in [0,1], got %v", models.ErrInvalidConfiguration, c.VolatilityWeight)
	}
	return nil
}
