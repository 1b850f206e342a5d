package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-tipster/internal/models"
	"github.com/yourusername/clever-tipster/internal/reliability"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestOrchestrator(t *testing.T, mutate func(*Config)) *Orchestrator {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	o, err := NewOrchestrator(cfg, reliability.NewStore(quietLogger()), quietLogger())
	require.NoError(t, err)
	return o
}

func binaryEngine(id string, p, rel float64) models.EngineOutput {
	return models.EngineOutput{SourceID: id, Prob: models.Float64(p), Reliability: models.Float64(rel), Volatility: models.Float64(0)}
}

func match(id string, home, away float64, engines ...models.EngineOutput) models.Match {
	return models.Match{
		MatchID: id,
		League:  "test-league",
		Odds:    &models.MarketOdds{Home: models.Float64(home), Away: models.Float64(away)},
		Engines: engines,
	}
}

func randomMatches(seed int64, n int) []models.Match {
	rng := rand.New(rand.NewSource(seed))
	out := make([]models.Match, n)
	for i := range out {
		m := models.Match{
			MatchID: fmt.Sprintf("m%02d", i),
			Odds: &models.MarketOdds{
				Home: models.Float64(1.3 + rng.Float64()*3),
				Draw: models.Float64(2.8 + rng.Float64()*1.5),
				Away: models.Float64(1.3 + rng.Float64()*4),
			},
			OddsHistory: []float64{2.0, 2.0 - rng.Float64()*0.1, 1.9 - rng.Float64()*0.1, 1.85},
		}
		if i%2 == 0 {
			m.Engines = []models.EngineOutput{
				binaryEngine("a", 0.3+rng.Float64()*0.6, rng.Float64()),
				binaryEngine("b", 0.3+rng.Float64()*0.6, rng.Float64()),
			}
		} else {
			h, d := 0.2+rng.Float64()*0.5, 0.1+rng.Float64()*0.2
			m.Engines = []models.EngineOutput{{
				SourceID:   "c",
				ProbHome:   models.Float64(h),
				ProbDraw:   models.Float64(d),
				ProbAway:   models.Float64(1 - h - d),
				Confidence: models.Float64(0.5 + rng.Float64()*0.5),
			}}
		}
		if i%7 == 3 {
			m.Odds = nil
		}
		out[i] = m
	}
	return out
}

func TestBatchSkipsMatchWithoutOdds(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	matches := []models.Match{
		match("m1", 2.0, 1.9, binaryEngine("a", 0.7, 0.9)),
		match("m2", 2.2, 1.7, binaryEngine("a", 0.4, 0.8)),
		{MatchID: "m3", Engines: []models.EngineOutput{binaryEngine("a", 0.6, 0.9)}},
		match("m4", 1.8, 2.1, binaryEngine("a", 0.55, 0.7)),
		match("m5", 2.5, 1.5, binaryEngine("a", 0.5, 0.6)),
	}

	res := o.Run(context.Background(), matches)

	require.Len(t, res.Decisions, 4)
	for i, id := range []string{"m1", "m2", "m4", "m5"} {
		assert.Equal(t, id, res.Decisions[i].MatchID)
	}
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "m3", res.Skipped[0].MatchID)
	assert.Contains(t, res.Skipped[0].Reason, "missing market odds")
	assert.NotEqual(t, uuid.Nil, res.RunID)
}

func TestMalformedMatchIsSkipped(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	res := o.Run(context.Background(), []models.Match{
		match("", 2.0, 1.9, binaryEngine("a", 0.7, 0.9)),
		match("ok", 2.0, 1.9, binaryEngine("a", 0.7, 0.9)),
		{MatchID: "zero", Odds: &models.MarketOdds{Home: models.Float64(0), Away: models.Float64(-1)}},
	})

	require.Len(t, res.Decisions, 1)
	assert.Equal(t, "ok", res.Decisions[0].MatchID)
	assert.Len(t, res.Skipped, 2)
}

func TestDecisionFields(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	d, err := o.Evaluate(&models.Match{
		MatchID: "m1",
		Odds:    &models.MarketOdds{Home: models.Float64(2.0), Away: models.Float64(1.9)},
		Engines: []models.EngineOutput{binaryEngine("a", 0.7, 0.9)},
	}, nil)
	require.NoError(t, err)

	// single engine: fused 0.7, neutral correction +0.025
	assert.Equal(t, models.OutcomeHome, d.BestPick)
	assert.InDelta(t, 0.725, d.Probability, 1e-9)
	assert.InDelta(t, 0.025, d.Correction, 1e-9)
	assert.InDelta(t, 0.45, d.EVHome, 1e-9)
	assert.Equal(t, -1.0, d.EVDraw)
	assert.InDelta(t, 0.9, d.Confidence, 1e-9)
	assert.InDelta(t, 0.725, d.ValueIndex, 1e-9)
	assert.InDelta(t, 0.725*0.9, d.EdgeScore, 1e-9)
	assert.Equal(t, 2.0, d.Odds)
	assert.True(t, d.Eligible)
	assert.Greater(t, d.StakeFraction, 0.0)
	assert.LessOrEqual(t, d.StakeFraction, 0.05)
	assert.Equal(t, MarketTwoWay, d.Market)
}

func TestBinaryEngineAgainstQuotedDraw(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	d, err := o.Evaluate(&models.Match{
		MatchID: "m1",
		Odds:    &models.MarketOdds{Home: models.Float64(3.0), Draw: models.Float64(3.2), Away: models.Float64(2.2)},
		Engines: []models.EngineOutput{binaryEngine("a", 0.30, 1)},
	}, nil)
	require.NoError(t, err)

	// home 0.30 + 0.025 neutral correction; the remaining 0.675 is split
	// 26:28 between draw and away by the default prior
	draw := 0.675 * 0.26 / 0.54
	away := 0.675 * 0.28 / 0.54
	assert.InDelta(t, 0.325*3.0-1, d.EVHome, 1e-9)
	assert.InDelta(t, draw*3.2-1, d.EVDraw, 1e-9)
	assert.InDelta(t, away*2.2-1, d.EVAway, 1e-9)
	assert.Less(t, d.EVAway, 0.0)

	assert.Equal(t, models.OutcomeDraw, d.BestPick)
	assert.InDelta(t, draw, d.Probability, 1e-9)
	assert.InDelta(t, draw-0.70*0.26/0.54, d.Correction, 1e-9)
	assert.Equal(t, 3.2, d.Odds)
	assert.Equal(t, MarketMatchResult, d.Market)
}

func TestBinaryEngineNeverPicksAwayFromDrawMass(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	res := o.Run(context.Background(), []models.Match{{
		MatchID: "m1",
		Odds:    &models.MarketOdds{Home: models.Float64(3.0), Draw: models.Float64(3.2), Away: models.Float64(2.2)},
		Engines: []models.EngineOutput{binaryEngine("a", 0.30, 1)},
	}})

	require.Len(t, res.Decisions, 1)
	assert.NotEqual(t, models.OutcomeAway, res.Decisions[0].BestPick)
	for _, c := range res.Singles {
		assert.NotEqual(t, models.OutcomeAway, c.Pick)
		assert.Less(t, c.Probability, 0.5)
	}
}

func TestEvaluateReturnsValidationError(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	_, err := o.Evaluate(&models.Match{MatchID: "m1"}, nil)
	assert.True(t, errors.Is(err, models.ErrMissingOdds))
}

func TestMatchWithoutEnginesIsNotACandidate(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	res := o.Run(context.Background(), []models.Match{match("m1", 3.0, 1.4)})

	require.Len(t, res.Decisions, 1)
	assert.False(t, res.Decisions[0].Eligible)
	assert.Equal(t, 0.0, res.Decisions[0].EdgeScore)
	assert.Empty(t, res.Singles)
}

func TestTicketsFromCandidates(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	res := o.Run(context.Background(), []models.Match{
		match("m1", 2.0, 1.9, binaryEngine("a", 0.7, 0.9)),
		match("m2", 2.1, 1.8, binaryEngine("a", 0.65, 0.8)),
	})

	require.Len(t, res.Singles, 2)
	// ranked by edge score
	assert.Equal(t, "m1", res.Singles[0].MatchID)
	require.Len(t, res.Tickets, 1)
	assert.InDelta(t, 4.2, res.Tickets[0].CombinedOdds, 1e-9)
}

func TestManipulatedMarketStaysOutOfTickets(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	rigged := match("m2", 2.1, 1.8, binaryEngine("a", 0.65, 0.8))
	rigged.OddsHistory = []float64{1.80, 1.75, 1.85, 1.70}

	res := o.Run(context.Background(), []models.Match{
		match("m1", 2.0, 1.9, binaryEngine("a", 0.7, 0.9)),
		rigged,
	})

	assert.Len(t, res.Singles, 2)
	assert.Empty(t, res.Tickets)
}

func TestCancelledContextSkipsEverything(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	matches := randomMatches(1, 6)
	res := o.Run(ctx, matches)

	assert.Empty(t, res.Decisions)
	assert.Empty(t, res.Tickets)
	require.Len(t, res.Skipped, 6)
	assert.Contains(t, res.Skipped[0].Reason, "context canceled")
}

// expiringContext reports no error for the first n Err calls and is done
// from the n-th call on, so it expires right after the last match starts.
type expiringContext struct {
	context.Context
	remaining atomic.Int32
	done      chan struct{}
	once      sync.Once
}

func newExpiringContext(n int32) *expiringContext {
	ctx := &expiringContext{Context: context.Background(), done: make(chan struct{})}
	ctx.remaining.Store(n)
	return ctx
}

func (c *expiringContext) Done() <-chan struct{} { return c.done }

func (c *expiringContext) Err() error {
	n := c.remaining.Add(-1)
	if n <= 0 {
		c.once.Do(func() { close(c.done) })
	}
	if n < 0 {
		return context.DeadlineExceeded
	}
	return nil
}

func TestDeadlineAfterLastMatchKeepsTickets(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	// two checks per match: before dispatch and when the worker starts
	ctx := newExpiringContext(4)
	res := o.Run(ctx, []models.Match{
		match("m1", 2.0, 1.9, binaryEngine("a", 0.7, 0.9)),
		match("m2", 2.1, 1.8, binaryEngine("a", 0.65, 0.8)),
	})

	require.Error(t, ctx.Err())
	assert.Empty(t, res.Skipped)
	assert.Len(t, res.Decisions, 2)
	require.Len(t, res.Tickets, 1)
	assert.InDelta(t, 4.2, res.Tickets[0].CombinedOdds, 1e-9)
}

func TestRunIsDeterministicAcrossWorkerCounts(t *testing.T) {
	sequential := newTestOrchestrator(t, func(c *Config) { c.Workers = 1 })
	parallel := newTestOrchestrator(t, func(c *Config) { c.Workers = 8 })

	for seed := int64(1); seed <= 3; seed++ {
		matches := randomMatches(seed, 30)
		want := sequential.Run(context.Background(), matches)
		got := parallel.Run(context.Background(), matches)

		assert.Equal(t, want.Decisions, got.Decisions)
		assert.Equal(t, want.Singles, got.Singles)
		assert.Equal(t, want.Tickets, got.Tickets)
		assert.Equal(t, want.Skipped, got.Skipped)
		assert.NotEqual(t, want.RunID, got.RunID)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	snap := o.Store().Snapshot()

	for _, m := range randomMatches(9, 10) {
		m := m
		first, err := o.Evaluate(&m, snap)
		if err != nil {
			continue
		}
		for i := 0; i < 5; i++ {
			again, err := o.Evaluate(&m, snap)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}
}

func TestReliabilityFeedbackShiftsFusion(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	m := match("m1", 2.0, 1.9, binaryEngine("optimist", 0.8, 0.8), binaryEngine("pessimist", 0.4, 0.8))

	before, err := o.Evaluate(&m, o.Store().Snapshot())
	require.NoError(t, err)

	require.NoError(t, o.Store().ApplyFeedback(models.FeedbackSignal{SourceID: "optimist", ROI: models.Float64(0.2)}))
	require.NoError(t, o.Store().ApplyFeedback(models.FeedbackSignal{SourceID: "pessimist", ROI: models.Float64(-0.1)}))

	after, err := o.Evaluate(&m, o.Store().Snapshot())
	require.NoError(t, err)
	assert.Greater(t, after.Probability, before.Probability)
}

func TestInvalidStageConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -1 }},
		{name: "shrink strength", mutate: func(c *Config) { c.Bias.ShrinkStrength = 2 }},
		{name: "max risk", mutate: func(c *Config) { c.Kombi.MaxRisk = -0.5 }},
		{name: "prior", mutate: func(c *Config) { c.Fusion.Prior = 1.5 }},
		{name: "kelly", mutate: func(c *Config) { c.Strategy.KellyFraction = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewOrchestrator(cfg, nil, quietLogger())
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
		})
	}
}
