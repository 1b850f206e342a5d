package models

import (
	"time"

	"github.com/google/uuid"
)

// BiasMetadata carries the market and behavioural signals used for bias
// correction. Nil fields fall back to the neutral defaults below.
type BiasMetadata struct {
	Drift               *float64 `json:"drift,omitempty"`
	PublicMoneyFraction *float64 `json:"public_money_fraction,omitempty"`
	ModelStd            *float64 `json:"model_std,omitempty"`
	FormScore           *float64 `json:"form_score,omitempty"`
}

// Neutral bias metadata values
const (
	NeutralDrift       = 0.0
	NeutralPublicMoney = 0.5
	NeutralModelStd    = 0.05
	NeutralFormScore   = 0.0
)

// FusedEstimate is the posterior produced by fusion and refined by bias correction.
// Binary estimates carry ProbHome = p, ProbAway = 1-p and ProbDraw = 0 until
// priced against a market that quotes a draw, where 1-p is split between
// draw and away by the league prior.
type FusedEstimate struct {
	ProbHome   float64 `json:"prob_home"`
	ProbDraw   float64 `json:"prob_draw"`
	ProbAway   float64 `json:"prob_away"`
	Confidence float64 `json:"confidence"`
	ThreeWay   bool    `json:"three_way"`
	// Dispersion is the reliability-weighted spread of engine probabilities
	Dispersion float64 `json:"dispersion"`
	Engines    int     `json:"engines"`
}

// Prob returns the estimate for an outcome
func (f FusedEstimate) Prob(o Outcome) float64 {
	switch o {
	case OutcomeHome:
		return f.ProbHome
	case OutcomeDraw:
		return f.ProbDraw
	case OutcomeAway:
		return f.ProbAway
	}
	return 0
}

// EdgeResult is the value assessment of one match against its market
type EdgeResult struct {
	EVHome     float64 `json:"ev_home"`
	EVDraw     float64 `json:"ev_draw"`
	EVAway     float64 `json:"ev_away"`
	ValueIndex float64 `json:"value_index"`
	EdgeScore  float64 `json:"edge_score"`
	BestPick   Outcome `json:"best_pick"`
}

// EV returns the expected value for an outcome
func (e EdgeResult) EV(o Outcome) float64 {
	switch o {
	case OutcomeHome:
		return e.EVHome
	case OutcomeDraw:
		return e.EVDraw
	case OutcomeAway:
		return e.EVAway
	}
	return -1
}

// DecisionRecord is the per-match output handed to collaborators
type DecisionRecord struct {
	MatchID       string  `json:"match_id"`
	League        string  `json:"league,omitempty"`
	Probability   float64 `json:"probability"`
	Correction    float64 `json:"correction"`
	EdgeScore     float64 `json:"edge_score"`
	ValueIndex    float64 `json:"value_index"`
	BestPick      Outcome `json:"best_pick"`
	EVHome        float64 `json:"ev_home"`
	EVDraw        float64 `json:"ev_draw"`
	EVAway        float64 `json:"ev_away"`
	Odds          float64 `json:"odds"`
	Confidence    float64 `json:"confidence"`
	Risk          float64 `json:"risk"`
	StakeFraction float64 `json:"stake_fraction"`
	Eligible      bool    `json:"eligible"`
	Market        string  `json:"market,omitempty"`
}

// Candidate is a single bet eligible for combination tickets
type Candidate struct {
	LegID       string  `json:"leg_id"`
	MatchID     string  `json:"match_id"`
	Pick        Outcome `json:"pick"`
	Probability float64 `json:"probability"`
	Odds        float64 `json:"odds"`
	ValueScore  float64 `json:"value_score"`
	Risk        float64 `json:"risk"`
}

// Combination is one ranked multi-leg ticket
type Combination struct {
	Legs                []Candidate `json:"legs"`
	CombinedProbability float64     `json:"combined_probability"`
	CombinedOdds        float64     `json:"combined_odds"`
	AvgValue            float64     `json:"avg_value"`
	AvgRisk             float64     `json:"avg_risk"`
	Correlation         float64     `json:"correlation"`
	FinalScore          float64     `json:"final_score"`
}

// SkippedMatch records why a match produced no decision
type SkippedMatch struct {
	MatchID string `json:"match_id"`
	Reason  string `json:"reason"`
}

// BatchResult is the output of one pipeline run
type BatchResult struct {
	RunID     uuid.UUID        `json:"run_id"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
	Decisions []DecisionRecord `json:"decisions"`
	Singles   []Candidate      `json:"singles"`
	Tickets   []Combination    `json:"tickets"`
	Skipped   []SkippedMatch   `json:"skipped"`
}
