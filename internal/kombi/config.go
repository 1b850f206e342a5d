// Package kombi builds ranked multi-leg combination tickets from single-bet candidates.
package kombi

import (
	"fmt"
	"runtime"

	"github.com/yourusername/clever-tipster/internal/models"
)

// Config holds optimizer parameters
type Config struct {
	Sizes   []int
	MaxOdds float64
	MaxRisk float64
	TopN    int
	MaxPool int
	Workers int
}

// DefaultConfig returns the standard optimizer parameters
func DefaultConfig() Config {
	return Config{
		Sizes:   []int{2, 3},
		MaxOdds: 10.0,
		MaxRisk: 0.65,
		TopN:    5,
		MaxPool: 20,
		Workers: runtime.NumCPU(),
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if len(c.Sizes) == 0 {
		return fmt.Errorf("%w: at least one ticket size is required", models.ErrInvalidConfiguration)
	}
	seen := make(map[int]bool, len(c.Sizes))
	for _, k := range c.Sizes {
		if k < 2 {
			return fmt.Errorf("%w: ticket size must be at least 2, got %d", models.ErrInvalidConfiguration, k)
		}
		if seen[k] {
			return fmt.Errorf("%w: duplicate ticket size %d", models.ErrInvalidConfiguration, k)
		}
		seen[k] = true
	}
	if c.MaxOdds <= 1 {
		return fmt.Errorf("%w: max odds must be greater than 1, got %v", models.ErrInvalidConfiguration, c.MaxOdds)
	}
	if c.MaxRisk < 0 {
		return fmt.Errorf("%w: max risk must be non-negative, got %v", models.ErrInvalidConfiguration, c.MaxRisk)
	}
	if c.TopN < 1 {
		return fmt.Errorf("%w: top_n must be positive, got %d", models.ErrInvalidConfiguration, c.TopN)
	}
	if c.MaxPool < 2 {
		return fmt.Errorf("%w: max pool must be at least 2, got %d", models.ErrInvalidConfiguration, c.MaxPool)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", models.ErrInvalidConfiguration, c.Workers)
	}
	return nil
}
