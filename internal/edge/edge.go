// Package edge scores fused probabilities against market odds.
package edge

import (
	"math"

	"github.com/yourusername/clever-tipster/internal/models"
)

const (
	// NoMarketEV is the expected value reported for an outcome without usable odds
	NoMarketEV = -1.0

	oddsEpsilon         = 1e-9
	volatilityDamping   = 0.2
	momentumThreshold   = 0.02
	sharpMomentumBoost  = 1.1
	weakMomentumPenalty = 0.9
)

// Liquidity are the market signals that modulate the value index
type Liquidity struct {
	VolatilityIndex float64
	Momentum        float64
}

// ExpectedValue returns the EV of a unit stake, or NoMarketEV without odds
func ExpectedValue(p, odds float64) float64 {
	if odds <= oddsEpsilon || math.IsNaN(odds) {
		return NoMarketEV
	}
	return p*(odds-1) - (1 - p)
}

// Evaluate computes per-outcome EV, the value index, the edge score and the best pick
func Evaluate(est models.FusedEstimate, odds models.MarketOdds, liq Liquidity) models.EdgeResult {
	res := models.EdgeResult{
		EVHome: ExpectedValue(est.ProbHome, odds.For(models.OutcomeHome)),
		EVDraw: ExpectedValue(est.ProbDraw, odds.For(models.OutcomeDraw)),
		EVAway: ExpectedValue(est.ProbAway, odds.For(models.OutcomeAway)),
	}

	res.BestPick = BestPick(res)
	maxEV := res.EV(res.BestPick)

	value := clamp((maxEV+1)/2, 0, 1)
	value *= 1 - volatilityDamping*liq.VolatilityIndex
	switch {
	case liq.Momentum < -momentumThreshold:
		value *= sharpMomentumBoost
	case liq.Momentum > momentumThreshold:
		value *= weakMomentumPenalty
	}
	res.ValueIndex = clamp(value, 0, 1)
	res.EdgeScore = clamp(res.ValueIndex*est.Confidence, 0, 1)
	return res
}

// BestPick returns the outcome with the highest EV. Ties go to the earlier
// outcome in models.OutcomePriority.
func BestPick(res models.EdgeResult) models.Outcome {
	best := models.OutcomePriority[0]
	for _, o := range models.OutcomePriority[1:] {
		if res.EV(o) > res.EV(best) {
			best = o
		}
	}
	return best
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
