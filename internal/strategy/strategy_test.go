package strategy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/clever-tipster/internal/models"
)

func newTestStrategy(t *testing.T) *BaseStrategy {
	t.Helper()
	s, err := NewBaseStrategy(DefaultConfig())
	require.NoError(t, err)
	return s
}

func TestRisk(t *testing.T) {
	s := newTestStrategy(t)

	assert.InDelta(t, 0.3, s.Risk(0.6, 0.8), 1e-12)
	assert.Equal(t, 0.0, s.Risk(1, 1))
	assert.Equal(t, 1.0, s.Risk(0, 0))
	assert.Equal(t, 1.0, s.Risk(-3, -3))
}

func TestAllowPick(t *testing.T) {
	s := newTestStrategy(t)

	tests := []struct {
		name     string
		pick     Pick
		expected bool
	}{
		{name: "regular odds pass", pick: Pick{Odds: 1.60, Probability: 0.4, Confidence: 0.1, Risk: 0.9}, expected: true},
		{name: "odds at one rejected", pick: Pick{Odds: 1.0, Probability: 0.99, Confidence: 1}, expected: false},
		{name: "strong short price passes", pick: Pick{Odds: 1.45, Probability: 0.80, Confidence: 0.75, Risk: 0.2}, expected: true},
		{name: "short price low probability", pick: Pick{Odds: 1.45, Probability: 0.77, Confidence: 0.9, Risk: 0.1}, expected: false},
		{name: "short price low confidence", pick: Pick{Odds: 1.45, Probability: 0.80, Confidence: 0.6, Risk: 0.1}, expected: false},
		{name: "short price high risk", pick: Pick{Odds: 1.45, Probability: 0.80, Confidence: 0.9, Risk: 0.4}, expected: false},
		{name: "short price thin edge", pick: Pick{Odds: 1.30, Probability: 0.80, Confidence: 0.9, Risk: 0.1}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.AllowPick(tt.pick))
		})
	}
}

func TestApplyKellyCriterion(t *testing.T) {
	s := newTestStrategy(t)

	tests := []struct {
		name     string
		p        float64
		odds     float64
		expected float64
	}{
		{name: "no edge", p: 0.5, odds: 2.0, expected: 0},
		{name: "negative edge", p: 0.3, odds: 2.0, expected: 0},
		{name: "small edge", p: 0.55, odds: 2.0, expected: 0.025},
		{name: "large edge capped", p: 0.8, odds: 2.0, expected: 0.05},
		{name: "invalid odds", p: 0.8, odds: 1.0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, s.ApplyKellyCriterion(tt.p, tt.odds), 1e-12)
		})
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{name: "min odds at 1", mutate: func(c *Config) { c.MinOdds = 1.0 }, wantMsg: "min odds"},
		{name: "kelly fraction above 1", mutate: func(c *Config) { c.KellyFraction = 1.5 }, wantMsg: "kelly fraction"},
		{name: "negative min edge", mutate: func(c *Config) { c.ShortMinEdge = -0.1 }, wantMsg: "short odds min edge"},
		{
			name: "first invalid field is reported",
			mutate: func(c *Config) {
				c.MaxStakeFraction = 2
				c.ShortMinEdge = 3
				c.ShortMinProb = -1
			},
			wantMsg: "short odds min probability",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			for i := 0; i < 5; i++ {
				_, err := NewBaseStrategy(cfg)
				require.Error(t, err)
				assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}
