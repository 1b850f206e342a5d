// Package pipeline sequences fusion, bias correction, edge evaluation and
// ticket optimisation over a batch of matches.
package pipeline

import (
	"fmt"
	"runtime"
	"time"

	"github.com/yourusername/clever-tipster/internal/bias"
	"github.com/yourusername/clever-tipster/internal/fusion"
	"github.com/yourusername/clever-tipster/internal/kombi"
	"github.com/yourusername/clever-tipster/internal/models"
	"github.com/yourusername/clever-tipster/internal/strategy"
)

// Config aggregates every stage configuration
type Config struct {
	Workers        int
	MinEV          float64
	SignalCacheTTL time.Duration
	SignalCacheMax int
	Fusion         fusion.Config
	Bias           bias.Config
	Strategy       strategy.Config
	Kombi          kombi.Config
}

// DefaultConfig returns the standard pipeline configuration
func DefaultConfig() Config {
	return Config{
		Workers:        runtime.NumCPU(),
		MinEV:          0,
		SignalCacheTTL: 10 * time.Minute,
		SignalCacheMax: 10000,
		Fusion:         fusion.DefaultConfig(),
		Bias:           bias.DefaultConfig(),
		Strategy:       strategy.DefaultConfig(),
		Kombi:          kombi.DefaultConfig(),
	}
}

// Validate checks the pipeline-level settings. Stage settings are checked
// by the stage constructors.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", models.ErrInvalidConfiguration, c.Workers)
	}
	if c.SignalCacheTTL < 0 {
		return fmt.Errorf("%w: signal cache ttl must not be negative", models.ErrInvalidConfiguration)
	}
	return nil
}
