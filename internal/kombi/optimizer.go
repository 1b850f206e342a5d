package kombi

import (
	"context"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/clever-tipster/internal/metrics"
	"github.com/yourusername/clever-tipster/internal/models"
)

// Final score weights
const (
	weightProbability = 0.25
	weightValue       = 0.40
	weightCorrelation = 0.20
	weightSafety      = 0.15
)

// Optimizer enumerates and ranks combination tickets
type Optimizer struct {
	cfg    Config
	logger *logrus.Logger
}

// NewOptimizer creates an optimizer after validating its configuration
func NewOptimizer(cfg Config, logger *logrus.Logger) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Optimizer{cfg: cfg, logger: logger}, nil
}

// MaxPool returns the largest candidate pool the optimizer will enumerate
func (o *Optimizer) MaxPool() int {
	return o.cfg.MaxPool
}

// task is one (size, first leg) slice of the enumeration space
type task struct {
	size  int
	first int
}

// scored keeps the enumeration order next to each surviving combination
type scored struct {
	combo models.Combination
	order int
}

// Optimize returns at most TopN combinations sorted by final score descending.
// Ties keep enumeration order: configured size order, then lexicographic leg
// indices. Pools larger than MaxPool are truncated. An empty result is not an
// error; only context cancellation is.
func (o *Optimizer) Optimize(ctx context.Context, pool []models.Candidate) ([]models.Combination, error) {
	start := time.Now()
	defer func() {
		metrics.RecordOptimizerDuration(time.Since(start).Seconds())
	}()

	if len(pool) > o.cfg.MaxPool {
		o.logger.WithFields(logrus.Fields{
			"pool_size": len(pool),
			"max_pool":  o.cfg.MaxPool,
		}).Debug("Truncating candidate pool")
		pool = pool[:o.cfg.MaxPool]
	}
	if len(pool) < 2 {
		return []models.Combination{}, nil
	}

	odds := make([]decimal.Decimal, len(pool))
	for i, c := range pool {
		odds[i] = decimal.NewFromFloat(c.Odds)
	}
	maxOdds := decimal.NewFromFloat(o.cfg.MaxOdds)

	var tasks []task
	for _, k := range o.cfg.Sizes {
		for first := 0; first+k <= len(pool); first++ {
			tasks = append(tasks, task{size: k, first: first})
		}
	}

	results := make([][]models.Combination, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = o.enumerate(pool, odds, maxOdds, t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []scored
	for _, rs := range results {
		for _, c := range rs {
			all = append(all, scored{combo: c, order: len(all)})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].combo.FinalScore != all[j].combo.FinalScore {
			return all[i].combo.FinalScore > all[j].combo.FinalScore
		}
		return all[i].order < all[j].order
	})

	n := o.cfg.TopN
	if len(all) < n {
		n = len(all)
	}
	out := make([]models.Combination, n)
	for i := 0; i < n; i++ {
		out[i] = all[i].combo
	}

	o.logger.WithFields(logrus.Fields{
		"pool_size":  len(pool),
		"tasks":      len(tasks),
		"survivors":  len(all),
		"returned":   n,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("Combination optimisation finished")

	return out, nil
}

// enumerate walks every subset of the given size whose lowest index is t.first
func (o *Optimizer) enumerate(pool []models.Candidate, odds []decimal.Decimal, maxOdds decimal.Decimal, t task) []models.Combination {
	var out []models.Combination
	idx := make([]int, t.size)
	idx[0] = t.first

	var walk func(pos int)
	walk = func(pos int) {
		if pos == t.size {
			if c, ok := o.evaluate(pool, odds, maxOdds, idx); ok {
				out = append(out, c)
			}
			return
		}
		for j := idx[pos-1] + 1; j <= len(pool)-(t.size-pos); j++ {
			idx[pos] = j
			walk(pos + 1)
		}
	}
	walk(1)
	return out
}

// evaluate scores one subset and applies the odds, risk and same-match filters
func (o *Optimizer) evaluate(pool []models.Candidate, odds []decimal.Decimal, maxOdds decimal.Decimal, idx []int) (models.Combination, bool) {
	legs := make([]models.Candidate, len(idx))
	combinedOdds := decimal.NewFromInt(1)
	combinedProb := 1.0
	var sumValue, sumRisk float64
	for i, j := range idx {
		leg := pool[j]
		for _, prev := range legs[:i] {
			if leg.MatchID != "" && prev.MatchID == leg.MatchID {
				return models.Combination{}, false
			}
		}
		legs[i] = leg
		combinedOdds = combinedOdds.Mul(odds[j])
		combinedProb *= leg.Probability
		sumValue += leg.ValueScore
		sumRisk += leg.Risk
	}
	if combinedOdds.GreaterThan(maxOdds) {
		return models.Combination{}, false
	}
	n := float64(len(legs))
	avgRisk := sumRisk / n
	if avgRisk > o.cfg.MaxRisk {
		return models.Combination{}, false
	}
	avgValue := sumValue / n
	corr := Correlation(legs)

	return models.Combination{
		Legs:                legs,
		CombinedProbability: combinedProb,
		CombinedOdds:        combinedOdds.InexactFloat64(),
		AvgValue:            avgValue,
		AvgRisk:             avgRisk,
		Correlation:         corr,
		FinalScore: weightProbability*combinedProb +
			weightValue*avgValue +
			weightCorrelation*corr +
			weightSafety*(1-avgRisk),
	}, true
}

// Correlation is 1 minus the mean pairwise divergence in probability and
// value, floored at 0. Similar legs score low.
func Correlation(legs []models.Candidate) float64 {
	var sum float64
	pairs := 0
	for i := 0; i < len(legs); i++ {
		for j := i + 1; j < len(legs); j++ {
			sum += math.Abs(legs[i].Probability-legs[j].Probability) +
				math.Abs(legs[i].ValueScore-legs[j].ValueScore)
			pairs++
		}
	}
	if pairs == 0 {
		return 1
	}
	return math.Max(0, 1-sum/float64(pairs))
}
