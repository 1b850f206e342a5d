package features

import (
	"github.com/yourusername/clever-tipster/internal/models"
)

// MatchFeatures are the derived inputs for one match
type MatchFeatures struct {
	Signals   Signals
	Liquidity models.LiquiditySignals
	Bias      models.BiasMetadata
}

// Builder derives market signals and completes liquidity metadata
type Builder struct {
	cache *SignalCache
}

// NewBuilder creates a builder. A nil cache disables caching.
func NewBuilder(c *SignalCache) *Builder {
	return &Builder{cache: c}
}

// Signals returns the market signals for a match, using the cache when present
func (b *Builder) Signals(m *models.Match) Signals {
	if b.cache == nil || len(m.OddsHistory) == 0 {
		return Analyze(m.OddsHistory)
	}
	key := Key(m.MatchID, m.OddsHistory)
	if s, ok := b.cache.Get(key); ok {
		return s
	}
	s := Analyze(m.OddsHistory)
	b.cache.Set(key, s)
	return s
}

// Build fills liquidity fields the collectors left empty. Supplied values
// always win over derived ones.
func (b *Builder) Build(m *models.Match) MatchFeatures {
	sig := b.Signals(m)

	var liq models.LiquiditySignals
	if m.Liquidity != nil {
		liq = *m.Liquidity
	}
	if len(m.OddsHistory) > 0 {
		if liq.Momentum == nil {
			liq.Momentum = models.Float64(sig.Momentum)
		}
		if liq.VolatilityIndex == nil {
			liq.VolatilityIndex = models.Float64(sig.PublicNoise)
		}
		if liq.Drift == nil {
			liq.Drift = models.Float64(sig.Drift)
		}
	}
	if liq.FormScore == nil && m.Form != nil {
		liq.FormScore = models.Float64(*m.Form)
	}

	return MatchFeatures{
		Signals:   sig,
		Liquidity: liq,
		Bias: models.BiasMetadata{
			Drift:               liq.Drift,
			PublicMoneyFraction: liq.PublicMoneyFraction,
			ModelStd:            liq.ModelStd,
			FormScore:           liq.FormScore,
		},
	}
}
