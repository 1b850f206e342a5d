package kombi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/clever-tipster/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestOptimizer(t *testing.T, mutate func(*Config)) *Optimizer {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	o, err := NewOptimizer(cfg, quietLogger())
	require.NoError(t, err)
	return o
}

func candidate(id string, odds, risk, value, prob float64) models.Candidate {
	return models.Candidate{
		LegID:       id,
		MatchID:     id,
		Pick:        models.OutcomeHome,
		Probability: prob,
		Odds:        odds,
		ValueScore:  value,
		Risk:        risk,
	}
}

func randomPool(seed int64, n int) []models.Candidate {
	rng := rand.New(rand.NewSource(seed))
	pool := make([]models.Candidate, n)
	for i := range pool {
		pool[i] = candidate(
			fmt.Sprintf("m%02d", i),
			1.2+rng.Float64()*1.8,
			rng.Float64()*0.8,
			rng.Float64(),
			0.3+rng.Float64()*0.6,
		)
	}
	return pool
}

func TestTwoLegTicket(t *testing.T) {
	o := newTestOptimizer(t, func(c *Config) {
		c.Sizes = []int{2}
		c.MaxOdds = 3.0
	})

	combos, err := o.Optimize(context.Background(), []models.Candidate{
		candidate("a", 1.5, 0.3, 0.4, 0.6),
		candidate("b", 1.6, 0.2, 0.5, 0.55),
	})
	require.NoError(t, err)
	require.Len(t, combos, 1)

	c := combos[0]
	assert.Equal(t, 2.40, c.CombinedOdds)
	assert.InDelta(t, 0.33, c.CombinedProbability, 1e-12)
	assert.InDelta(t, 0.45, c.AvgValue, 1e-12)
	assert.InDelta(t, 0.25, c.AvgRisk, 1e-12)
	assert.InDelta(t, 0.85, c.Correlation, 1e-12)
	assert.InDelta(t, 0.25*0.33+0.40*0.45+0.20*0.85+0.15*0.75, c.FinalScore, 1e-12)
	assert.Equal(t, "a", c.Legs[0].LegID)
	assert.Equal(t, "b", c.Legs[1].LegID)
}

func TestOddsAndRiskFilters(t *testing.T) {
	pool := []models.Candidate{
		candidate("a", 2.0, 0.2, 0.5, 0.5),
		candidate("b", 2.0, 0.2, 0.5, 0.5),
		candidate("c", 1.8, 0.9, 0.5, 0.5),
	}

	o := newTestOptimizer(t, func(c *Config) {
		c.Sizes = []int{2}
		c.MaxOdds = 4.0
		c.MaxRisk = 0.5
	})
	combos, err := o.Optimize(context.Background(), pool)
	require.NoError(t, err)

	// a+b: odds 4.0 exactly at the cap; a+c and b+c: risk 0.55
	require.Len(t, combos, 1)
	assert.Equal(t, 4.0, combos[0].CombinedOdds)
}

func TestSameMatchLegsAreExcluded(t *testing.T) {
	o := newTestOptimizer(t, func(c *Config) { c.Sizes = []int{2} })

	home := candidate("m1-home", 1.8, 0.3, 0.5, 0.55)
	home.MatchID = "m1"
	away := candidate("m1-away", 2.2, 0.3, 0.5, 0.45)
	away.MatchID = "m1"

	combos, err := o.Optimize(context.Background(), []models.Candidate{home, away})
	require.NoError(t, err)
	assert.Empty(t, combos)
}

func TestEmptyResults(t *testing.T) {
	o := newTestOptimizer(t, nil)

	tests := []struct {
		name string
		pool []models.Candidate
	}{
		{name: "nil pool", pool: nil},
		{name: "single candidate", pool: []models.Candidate{candidate("a", 1.5, 0.1, 0.5, 0.6)}},
		{name: "nothing survives", pool: []models.Candidate{
			candidate("a", 5, 0.1, 0.5, 0.6),
			candidate("b", 5, 0.1, 0.5, 0.6),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			combos, err := o.Optimize(context.Background(), tt.pool)
			require.NoError(t, err)
			assert.NotNil(t, combos)
			assert.Empty(t, combos)
		})
	}
}

func TestResultsRespectConstraints(t *testing.T) {
	o := newTestOptimizer(t, func(c *Config) {
		c.MaxOdds = 6.0
		c.MaxRisk = 0.4
		c.TopN = 7
	})

	for seed := int64(1); seed <= 5; seed++ {
		combos, err := o.Optimize(context.Background(), randomPool(seed, 12))
		require.NoError(t, err)
		assert.LessOrEqual(t, len(combos), 7)
		for i, c := range combos {
			assert.LessOrEqual(t, c.CombinedOdds, 6.0)
			assert.LessOrEqual(t, c.AvgRisk, 0.4)
			assert.GreaterOrEqual(t, len(c.Legs), 2)
			if i > 0 {
				assert.GreaterOrEqual(t, combos[i-1].FinalScore, c.FinalScore)
			}
		}
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	sequential := newTestOptimizer(t, func(c *Config) {
		c.Workers = 1
		c.TopN = 50
	})
	parallel := newTestOptimizer(t, func(c *Config) {
		c.Workers = 8
		c.TopN = 50
	})

	for seed := int64(1); seed <= 5; seed++ {
		pool := randomPool(seed, 15)
		want, err := sequential.Optimize(context.Background(), pool)
		require.NoError(t, err)
		got, err := parallel.Optimize(context.Background(), pool)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestTiesKeepEnumerationOrder(t *testing.T) {
	o := newTestOptimizer(t, func(c *Config) {
		c.Sizes = []int{2}
		c.TopN = 10
		c.Workers = 4
	})

	pool := []models.Candidate{
		candidate("a", 1.5, 0.2, 0.5, 0.6),
		candidate("b", 1.5, 0.2, 0.5, 0.6),
		candidate("c", 1.5, 0.2, 0.5, 0.6),
	}
	combos, err := o.Optimize(context.Background(), pool)
	require.NoError(t, err)
	require.Len(t, combos, 3)

	var order []string
	for _, c := range combos {
		order = append(order, c.Legs[0].LegID+c.Legs[1].LegID)
	}
	assert.Equal(t, []string{"ab", "ac", "bc"}, order)
}

func TestPoolIsTruncated(t *testing.T) {
	o := newTestOptimizer(t, func(c *Config) {
		c.Sizes = []int{2}
		c.MaxPool = 3
		c.TopN = 100
	})

	combos, err := o.Optimize(context.Background(), randomPool(3, 10))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(combos), 3)
	for _, c := range combos {
		for _, leg := range c.Legs {
			assert.Contains(t, []string{"m00", "m01", "m02"}, leg.LegID)
		}
	}
}

func TestCancelledContext(t *testing.T) {
	o := newTestOptimizer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Optimize(ctx, randomPool(1, 10))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCorrelation(t *testing.T) {
	same := []models.Candidate{candidate("a", 2, 0, 0.5, 0.5), candidate("b", 2, 0, 0.5, 0.5)}
	assert.Equal(t, 1.0, Correlation(same))

	far := []models.Candidate{candidate("a", 2, 0, 0, 0.1), candidate("b", 2, 0, 1, 0.9)}
	assert.Equal(t, 0.0, Correlation(far))

	assert.Equal(t, 1.0, Correlation(same[:1]))
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "no sizes", mutate: func(c *Config) { c.Sizes = nil }},
		{name: "size one", mutate: func(c *Config) { c.Sizes = []int{1, 2} }},
		{name: "duplicate size", mutate: func(c *Config) { c.Sizes = []int{2, 2} }},
		{name: "max odds one", mutate: func(c *Config) { c.MaxOdds = 1 }},
		{name: "negative max risk", mutate: func(c *Config) { c.MaxRisk = -0.1 }},
		{name: "zero top n", mutate: func(c *Config) { c.TopN = 0 }},
		{name: "tiny pool", mutate: func(c *Config) { c.MaxPool = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewOptimizer(cfg, quietLogger())
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
		})
	}
}
