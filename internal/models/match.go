package models

import (
	"fmt"
)

// MarketOdds holds decimal odds per outcome. A nil pointer means the
// bookmaker did not quote that outcome.
type MarketOdds struct {
	Home *float64 `json:"home"`
	Draw *float64 `json:"draw"`
	Away *float64 `json:"away"`
}

// For returns the quoted odds for an outcome, or 0 when not quoted
func (m MarketOdds) For(o Outcome) float64 {
	var p *float64
	switch o {
	case OutcomeHome:
		p = m.Home
	case OutcomeDraw:
		p = m.Draw
	case OutcomeAway:
		p = m.Away
	}
	if p == nil || !isFinite(*p) {
		return 0
	}
	return *p
}

// Implied returns the raw implied probability 1/odds, or 0 without a market
func (m MarketOdds) Implied(o Outcome) float64 {
	odds := m.For(o)
	if odds <= 0 {
		return 0
	}
	return 1.0 / odds
}

// LiquiditySignals is the per-match market metadata supplied by collectors.
// Every field is optional; consumers fall back to neutral values.
type LiquiditySignals struct {
	VolatilityIndex     *float64 `json:"volatility_index,omitempty"`
	Momentum            *float64 `json:"momentum,omitempty"`
	PublicMoneyFraction *float64 `json:"public_money_fraction,omitempty"`
	Drift               *float64 `json:"drift,omitempty"`
	ModelStd            *float64 `json:"model_std,omitempty"`
	FormScore           *float64 `json:"form_score,omitempty"`
}

// Match is one fixture as delivered by the collectors
type Match struct {
	MatchID     string            `json:"match_id" validate:"required"`
	League      string            `json:"league,omitempty"`
	HomeTeam    string            `json:"home_team,omitempty"`
	AwayTeam    string            `json:"away_team,omitempty"`
	Odds        *MarketOdds       `json:"odds"`
	OddsHistory []float64         `json:"odds_history,omitempty"`
	Form        *float64          `json:"form,omitempty"`
	Engines     []EngineOutput    `json:"engines"`
	Liquidity   *LiquiditySignals `json:"liquidity,omitempty"`
	Meta        map[string]any    `json:"meta,omitempty"`
}

// Validate checks the match-level fields the pipeline cannot work without
func (m *Match) Validate() error {
	if m.MatchID == "" {
		return fmt.Errorf("%w: match_id is required", ErrMalformedInput)
	}
	if m.Odds == nil {
		return fmt.Errorf("%w: match %s", ErrMissingOdds, m.MatchID)
	}
	quoted := 0
	for _, o := range OutcomePriority {
		if m.Odds.For(o) > 0 {
			quoted++
		}
	}
	if quoted == 0 {
		return fmt.Errorf("%w: match %s has no positive odds", ErrMissingOdds, m.MatchID)
	}
	for _, v := range m.OddsHistory {
		if !isFinite(v) {
			return fmt.Errorf("%w: match %s odds_history is not numeric", ErrMalformedInput, m.MatchID)
		}
	}
	return nil
}

// FeedbackSignal reports realised performance for one engine
type FeedbackSignal struct {
	SourceID  string   `json:"source_id" validate:"required"`
	ROI       *float64 `json:"roi,omitempty"`
	ErrorRate *float64 `json:"error_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
}
