// Package bias applies bounded corrections to fused probabilities from
// market and behavioural signals.
package bias

import (
	"fmt"
	"math"
	"strings"

	"github.com/yourusername/clever-tipster/internal/models"
)

const (
	probFloor = 0.01
	probCeil  = 0.99
	epsilon   = 1e-9
)

// Weights are the relative weights of the additive bias components
type Weights struct {
	Drift    float64
	Market   float64
	ModelDev float64
	Form     float64
}

// LeaguePrior is a league-level 1X2 base rate
type LeaguePrior struct {
	Home float64
	Draw float64
	Away float64
}

func (p LeaguePrior) vector() [3]float64 {
	return [3]float64{p.Home, p.Draw, p.Away}
}

// Config holds corrector parameters
type Config struct {
	Weights        Weights
	MaxCorrection  float64
	ShrinkStrength float64
	DefaultPrior   LeaguePrior
	LeaguePriors   map[string]LeaguePrior
}

// DefaultConfig returns the standard corrector parameters
func DefaultConfig() Config {
	return Config{
		Weights:        Weights{Drift: 0.30, Market: 0.25, ModelDev: 0.25, Form: 0.20},
		MaxCorrection:  0.15,
		ShrinkStrength: 0.25,
		DefaultPrior:   LeaguePrior{Home: 0.46, Draw: 0.26, Away: 0.28},
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	w := c.Weights
	for _, v := range []float64{w.Drift, w.Market, w.ModelDev, w.Form} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: bias weights must be non-negative", models.ErrInvalidConfiguration)
		}
	}
	if c.MaxCorrection < 0 || c.MaxCorrection > 1 {
		return fmt.Errorf("%w: max correction must be in [0,1], got %v", models.ErrInvalidConfiguration, c.MaxCorrection)
	}
	if c.ShrinkStrength < 0 || c.ShrinkStrength > 1 {
		return fmt.Errorf("%w: shrink strength must be in [0,1], got %v", models.ErrInvalidConfiguration, c.ShrinkStrength)
	}
	if err := validatePrior("default", c.DefaultPrior); err != nil {
		return err
	}
	for league, p := range c.LeaguePriors {
		if err := validatePrior(league, p); err != nil {
			return err
		}
	}
	return nil
}

func validatePrior(name string, p LeaguePrior) error {
	for _, v := range p.vector() {
		if v <= 0 || v >= 1 {
			return fmt.Errorf("%w: league prior %q outcomes must be in (0,1)", models.ErrInvalidConfiguration, name)
		}
	}
	if math.Abs(p.Home+p.Draw+p.Away-1) > 1e-6 {
		return fmt.Errorf("%w: league prior %q must sum to 1", models.ErrInvalidConfiguration, name)
	}
	return nil
}

// Components are the individual clamped bias terms of an additive correction
type Components struct {
	Drift    float64 `json:"drift"`
	Market   float64 `json:"market"`
	ModelDev float64 `json:"model_dev"`
	Form     float64 `json:"form"`
}

// Corrector is a pure function over its configuration
type Corrector struct {
	cfg Config
}

// NewCorrector creates a corrector after validating its configuration
func NewCorrector(cfg Config) (*Corrector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Corrector{cfg: cfg}, nil
}

// Components computes the clamped bias terms, substituting neutral values for missing metadata
func (c *Corrector) Components(meta models.BiasMetadata) Components {
	drift := valueOr(meta.Drift, models.NeutralDrift)
	public := valueOr(meta.PublicMoneyFraction, models.NeutralPublicMoney)
	std := valueOr(meta.ModelStd, models.NeutralModelStd)
	form := valueOr(meta.FormScore, models.NeutralFormScore)

	return Components{
		Drift:    clamp(drift, -0.3, 0.3),
		Market:   clamp(public-0.5, -0.5, 0.5),
		ModelDev: clamp(std*2.0, -0.5, 0.5),
		Form:     clamp(form*0.4, -0.4, 0.4),
	}
}

// Additive returns the corrected probability and the applied correction
func (c *Corrector) Additive(p float64, meta models.BiasMetadata) (float64, float64) {
	comp := c.Components(meta)
	w := c.cfg.Weights
	total := w.Drift*comp.Drift + w.Market*comp.Market + w.ModelDev*comp.ModelDev + w.Form*comp.Form
	correction := clamp(total, -c.cfg.MaxCorrection, c.cfg.MaxCorrection)
	return clamp(p+correction, probFloor, probCeil), correction
}

// Prior returns the league prior, falling back to the default prior
func (c *Corrector) Prior(league string) LeaguePrior {
	if p, ok := c.cfg.LeaguePriors[league]; ok {
		return p
	}
	// config keys arrive lower-cased
	if p, ok := c.cfg.LeaguePriors[strings.ToLower(league)]; ok {
		return p
	}
	return c.cfg.DefaultPrior
}

// Shrink pulls a 1X2 vector toward the league prior and renormalises it.
// A non-positive total yields the league prior.
func (c *Corrector) Shrink(probs [3]float64, league string) [3]float64 {
	prior := c.Prior(league).vector()
	s := c.cfg.ShrinkStrength

	var out [3]float64
	total := 0.0
	for i := range probs {
		out[i] = (1-s)*probs[i] + s*prior[i]
		total += out[i]
	}
	if total <= epsilon || math.IsNaN(total) {
		return prior
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// Correct dispatches on the estimate shape: binary estimates get the additive
// correction, three-way estimates get league shrinkage.
func (c *Corrector) Correct(est models.FusedEstimate, meta models.BiasMetadata, league string) models.FusedEstimate {
	out := est
	if est.ThreeWay {
		v := c.Shrink([3]float64{est.ProbHome, est.ProbDraw, est.ProbAway}, league)
		out.ProbHome, out.ProbDraw, out.ProbAway = v[0], v[1], v[2]
		return out
	}
	p, _ := c.Additive(est.ProbHome, meta)
	out.ProbHome = p
	out.ProbDraw = 0
	out.ProbAway = 1 - p
	return out
}

// SplitBinary spreads the non-home mass of a binary estimate over draw and
// away in the league prior's draw:away ratio. It is used when the market
// quotes a draw, so away is never credited with draw mass. Three-way
// estimates are returned unchanged.
func (c *Corrector) SplitBinary(est models.FusedEstimate, league string) models.FusedEstimate {
	if est.ThreeWay {
		return est
	}
	prior := c.Prior(league)
	rest := 1 - est.ProbHome
	out := est
	out.ProbDraw = rest * prior.Draw / (prior.Draw + prior.Away)
	out.ProbAway = rest - out.ProbDraw
	return out
}

func valueOr(v *float64, def float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return def
	}
	return *v
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
