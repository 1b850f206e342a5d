package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/clever-tipster/internal/bias"
	"github.com/yourusername/clever-tipster/internal/edge"
	"github.com/yourusername/clever-tipster/internal/features"
	"github.com/yourusername/clever-tipster/internal/fusion"
	"github.com/yourusername/clever-tipster/internal/kombi"
	"github.com/yourusername/clever-tipster/internal/logger"
	"github.com/yourusername/clever-tipster/internal/metrics"
	"github.com/yourusername/clever-tipster/internal/models"
	"github.com/yourusername/clever-tipster/internal/reliability"
	"github.com/yourusername/clever-tipster/internal/strategy"
)

// Skip reasons used as metric labels
const (
	ReasonMalformed   = "malformed"
	ReasonMissingOdds = "missing_odds"
	ReasonDeadline    = "deadline"
)

// Market labels
const (
	MarketMatchResult = "1x2"
	MarketTwoWay      = "two_way"
)

// Orchestrator runs the decision pipeline over match batches
type Orchestrator struct {
	cfg       Config
	fuser     *fusion.Fuser
	corrector *bias.Corrector
	selector  *strategy.BaseStrategy
	optimizer *kombi.Optimizer
	features  *features.Builder
	store     *reliability.Store
	log       *logger.PipelineLogger
	now       func() time.Time
}

// NewOrchestrator builds every stage from cfg. Any invalid stage setting is
// returned as models.ErrInvalidConfiguration.
func NewOrchestrator(cfg Config, store *reliability.Store, log *logrus.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	fuser, err := fusion.NewFuser(cfg.Fusion, log)
	if err != nil {
		return nil, err
	}
	corrector, err := bias.NewCorrector(cfg.Bias)
	if err != nil {
		return nil, err
	}
	selector, err := strategy.NewBaseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	optimizer, err := kombi.NewOptimizer(cfg.Kombi, log)
	if err != nil {
		return nil, err
	}
	var cache *features.SignalCache
	if cfg.SignalCacheTTL > 0 {
		cache = features.NewSignalCache(cfg.SignalCacheTTL, cfg.SignalCacheMax)
	}
	if store == nil {
		store = reliability.NewStore(log)
	}

	return &Orchestrator{
		cfg:       cfg,
		fuser:     fuser,
		corrector: corrector,
		selector:  selector,
		optimizer: optimizer,
		features:  features.NewBuilder(cache),
		store:     store,
		log:       logger.NewPipelineLogger(log),
		now:       time.Now,
	}, nil
}

// Store returns the reliability store used for fusion
func (o *Orchestrator) Store() *reliability.Store {
	return o.store
}

// matchResult is the outcome of one match
type matchResult struct {
	done       bool
	decision   models.DecisionRecord
	candidate  *models.Candidate
	ticketable bool
	err        error
	reason     string
}

// Run processes a batch. Matches are evaluated in parallel and reported in
// input order; a bad match is skipped and never aborts the batch. When ctx
// is done no new matches are started and the unfinished ones are reported
// as skipped.
func (o *Orchestrator) Run(ctx context.Context, matches []models.Match) models.BatchResult {
	start := o.now()
	runID := uuid.New()
	snap := o.store.Snapshot()
	o.log.LogBatchStarted(runID.String(), len(matches), o.cfg.Workers)

	results := make([]matchResult, len(matches))
	var g errgroup.Group
	g.SetLimit(o.cfg.Workers)
	for i := range matches {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = o.processMatch(runID.String(), &matches[i], snap)
			return nil
		})
	}
	_ = g.Wait()

	batch := models.BatchResult{
		RunID:     runID,
		StartedAt: start,
		Decisions: []models.DecisionRecord{},
		Singles:   []models.Candidate{},
		Tickets:   []models.Combination{},
		Skipped:   []models.SkippedMatch{},
	}

	type ranked struct {
		candidate  models.Candidate
		edgeScore  float64
		ticketable bool
	}
	var pool []ranked
	for i, r := range results {
		if !r.done {
			r.err = fmt.Errorf("not processed: %w", context.Cause(ctx))
			r.reason = ReasonDeadline
		}
		if r.err != nil {
			batch.Skipped = append(batch.Skipped, models.SkippedMatch{MatchID: matches[i].MatchID, Reason: r.err.Error()})
			metrics.RecordMatchSkipped(r.reason)
			o.log.LogMatchSkipped(runID.String(), matches[i].MatchID, r.err.Error())
			continue
		}
		batch.Decisions = append(batch.Decisions, r.decision)
		metrics.RecordEdgeScore(r.decision.EdgeScore)
		if r.candidate != nil {
			pool = append(pool, ranked{candidate: *r.candidate, edgeScore: r.decision.EdgeScore, ticketable: r.ticketable})
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].edgeScore > pool[j].edgeScore
	})
	var legs []models.Candidate
	for _, p := range pool {
		batch.Singles = append(batch.Singles, p.candidate)
		if p.ticketable && len(legs) < o.optimizer.MaxPool() {
			legs = append(legs, p.candidate)
		}
	}

	// every leg is a finished result, so a deadline that passed meanwhile
	// must not discard the tickets
	tickets, err := o.optimizer.Optimize(context.WithoutCancel(ctx), legs)
	switch {
	case err != nil:
		o.log.WithError(err).Warn("Combination optimisation aborted")
	default:
		batch.Tickets = tickets
	}
	bestScore := 0.0
	if len(batch.Tickets) > 0 {
		bestScore = batch.Tickets[0].FinalScore
	}
	o.log.LogTicketsBuilt(runID.String(), len(legs), len(batch.Tickets), bestScore)

	finished := o.now()
	batch.Duration = finished.Sub(start)
	metrics.RecordBatch(batch.Duration.Seconds(), len(batch.Decisions), len(batch.Singles), len(batch.Tickets), float64(finished.Unix()))
	o.log.LogBatchCompleted(runID.String(), len(batch.Decisions), len(batch.Skipped), len(batch.Singles),
		len(batch.Tickets), float64(batch.Duration.Microseconds())/1000)
	return batch
}

// Evaluate runs fusion, bias correction and edge evaluation for one match
// against a reliability snapshot. It is a pure function of its inputs.
func (o *Orchestrator) Evaluate(m *models.Match, weights fusion.WeightSource) (models.DecisionRecord, error) {
	r := o.processMatch("", m, weights)
	if r.err != nil {
		return models.DecisionRecord{}, r.err
	}
	return r.decision, nil
}

func (o *Orchestrator) processMatch(runID string, m *models.Match, weights fusion.WeightSource) matchResult {
	if err := m.Validate(); err != nil {
		reason := ReasonMalformed
		if errors.Is(err, models.ErrMissingOdds) {
			reason = ReasonMissingOdds
		}
		return matchResult{done: true, err: err, reason: reason}
	}

	feats := o.features.Build(m)
	fused := o.fuser.Fuse(m.Engines, weights)

	meta := feats.Bias
	if meta.ModelStd == nil && fused.Engines >= 2 {
		meta.ModelStd = models.Float64(fused.Dispersion)
	}
	corrected := o.corrector.Correct(fused, meta, m.League)

	drawQuoted := m.Odds.For(models.OutcomeDraw) > 0
	if drawQuoted && !fused.ThreeWay {
		fused = o.corrector.SplitBinary(fused, m.League)
		corrected = o.corrector.SplitBinary(corrected, m.League)
	}

	res := edge.Evaluate(corrected, *m.Odds, edge.Liquidity{
		VolatilityIndex: valueOr(feats.Liquidity.VolatilityIndex, 0),
		Momentum:        valueOr(feats.Liquidity.Momentum, 0),
	})

	pick := res.BestPick
	odds := m.Odds.For(pick)
	prob := corrected.Prob(pick)
	risk := o.selector.Risk(prob, corrected.Confidence)

	market := MarketTwoWay
	if corrected.ThreeWay || drawQuoted {
		market = MarketMatchResult
	}

	decision := models.DecisionRecord{
		MatchID:     m.MatchID,
		League:      m.League,
		Probability: prob,
		Correction:  prob - fused.Prob(pick),
		EdgeScore:   res.EdgeScore,
		ValueIndex:  res.ValueIndex,
		BestPick:    pick,
		EVHome:      res.EVHome,
		EVDraw:      res.EVDraw,
		EVAway:      res.EVAway,
		Odds:        odds,
		Confidence:  corrected.Confidence,
		Risk:        risk,
		Market:      market,
	}

	out := matchResult{done: true}
	eligible := fused.Engines > 0 &&
		res.EV(pick) > o.cfg.MinEV &&
		o.selector.AllowPick(strategy.Pick{Odds: odds, Probability: prob, Confidence: corrected.Confidence, Risk: risk})
	if eligible {
		decision.Eligible = true
		decision.StakeFraction = o.selector.ApplyKellyCriterion(prob, odds)
		out.candidate = &models.Candidate{
			LegID:       m.MatchID + ":" + pick.String(),
			MatchID:     m.MatchID,
			Pick:        pick,
			Probability: prob,
			Odds:        odds,
			ValueScore:  res.ValueIndex,
			Risk:        risk,
		}
		out.ticketable = !feats.Signals.Manipulated
	}
	out.decision = decision

	o.log.LogDecision(runID, m.MatchID, pick.String(), prob, decision.Correction, res.EdgeScore, res.ValueIndex, eligible)
	return out
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
