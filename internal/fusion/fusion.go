package fusion

import (
	"math"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/clever-tipster/internal/models"
)

const (
	// ProbFloor and ProbCeil bound every fused probability
	ProbFloor = 0.01
	ProbCeil  = 0.99

	epsilon       = 1e-9
	minLikelihood = 1e-6
	maxLikelihood = 1e6
)

// WeightSource supplies per-source reliability weights. A reliability
// snapshot satisfies it.
type WeightSource interface {
	Weight(sourceID string) float64
}

type uniformWeights struct{}

func (uniformWeights) Weight(string) float64 { return models.DefaultReliabilityWeight }

// Fuser combines engine outputs for one match. It holds no mutable state.
type Fuser struct {
	cfg    Config
	logger *logrus.Logger
}

// NewFuser creates a fuser after validating its configuration
func NewFuser(cfg Config, logger *logrus.Logger) (*Fuser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Fuser{cfg: cfg, logger: logger}, nil
}

// contribution is one engine after validation, clamping and damping
type contribution struct {
	sourceID    string
	reliability float64
	weight      float64
	probs       [3]float64
}

// Fuse produces the posterior estimate for one match. Three-way engine
// outputs take precedence; when none are valid the binary outputs are
// fused instead. With no valid entry the configured prior is returned.
func (f *Fuser) Fuse(engines []models.EngineOutput, weights WeightSource) models.FusedEstimate {
	if weights == nil {
		weights = uniformWeights{}
	}
	if len(engines) > f.cfg.MaxEngines {
		f.logger.WithFields(logrus.Fields{
			"engines":     len(engines),
			"max_engines": f.cfg.MaxEngines,
		}).Debug("Truncating engine outputs")
		engines = engines[:f.cfg.MaxEngines]
	}

	var binary, threeWay []contribution
	dropped := 0
	for _, e := range engines {
		if err := e.Validate(); err != nil {
			dropped++
			f.logger.WithError(err).Debug("Dropping malformed engine output")
			continue
		}
		c := contribution{
			sourceID:    e.SourceID,
			reliability: clamp(e.Trust(), f.cfg.MinReliability, 1),
			weight:      weights.Weight(e.SourceID),
		}
		vol := e.VolatilityOrDefault()
		switch e.Shape() {
		case models.ShapeBinary:
			c.probs[0] = f.dampen(*e.Prob, vol)
			binary = append(binary, c)
		case models.ShapeThreeWay:
			for i, o := range models.OutcomePriority {
				c.probs[i] = f.dampen(e.OutcomeProb(o), vol)
			}
			threeWay = append(threeWay, c)
		}
	}

	if len(threeWay) > 0 {
		if len(binary) > 0 {
			f.logger.WithField("binary_engines", len(binary)).Debug("Ignoring binary outputs alongside three-way outputs")
		}
		return f.fuseThreeWay(threeWay)
	}
	if dropped > 0 && len(binary) == 0 {
		f.logger.WithField("dropped", dropped).Debug("No valid engine outputs, returning prior")
	}
	return f.fuseBinary(binary)
}

// Posterior fuses binary engine outputs and returns the posterior probability
func (f *Fuser) Posterior(engines []models.EngineOutput, weights WeightSource) float64 {
	binaryOnly := make([]models.EngineOutput, 0, len(engines))
	for _, e := range engines {
		if e.Shape() != models.ShapeThreeWay {
			binaryOnly = append(binaryOnly, e)
		}
	}
	return f.Fuse(binaryOnly, weights).ProbHome
}

func (f *Fuser) fuseBinary(cs []contribution) models.FusedEstimate {
	if len(cs) == 0 {
		return models.FusedEstimate{
			ProbHome: f.cfg.Prior,
			ProbAway: 1 - f.cfg.Prior,
		}
	}
	p := f.posterior(cs, 0, f.cfg.Prior)
	sigma := weightedStd(cs, 0)
	return models.FusedEstimate{
		ProbHome:   p,
		ProbAway:   1 - p,
		Confidence: confidence(sigma, meanReliability(cs)),
		Dispersion: sigma,
		Engines:    len(cs),
	}
}

func (f *Fuser) fuseThreeWay(cs []contribution) models.FusedEstimate {
	var probs [3]float64
	sigma := 0.0
	for i := range models.OutcomePriority {
		probs[i] = f.posterior(cs, i, f.cfg.ThreeWayPrior)
		sigma += weightedStd(cs, i)
	}
	sigma /= 3
	probs = Renormalize(probs, ProbFloor)
	return models.FusedEstimate{
		ProbHome:   probs[0],
		ProbDraw:   probs[1],
		ProbAway:   probs[2],
		Confidence: confidence(sigma, meanReliability(cs)),
		ThreeWay:   true,
		Dispersion: sigma,
		Engines:    len(cs),
	}
}

// posterior applies the reliability-weighted mean log-likelihood to the prior odds
func (f *Fuser) posterior(cs []contribution, idx int, prior float64) float64 {
	var sumLL, sumW float64
	for _, c := range cs {
		w := c.reliability * c.weight
		sumLL += w * logLikelihood(c.probs[idx])
		sumW += w
	}
	if sumW <= 0 {
		return clamp(prior, ProbFloor, ProbCeil)
	}
	priorOdds := prior / (1 - prior + epsilon)
	postOdds := priorOdds * math.Exp(sumLL/sumW)
	return clamp(postOdds/(1+postOdds), ProbFloor, ProbCeil)
}

func (f *Fuser) dampen(p, volatility float64) float64 {
	vol := clamp(volatility, 0, 1)
	return clamp(p*(1-vol*f.cfg.VolatilityWeight), ProbFloor, ProbCeil)
}

func logLikelihood(p float64) float64 {
	return math.Log(clamp(p/(1-p+epsilon), minLikelihood, maxLikelihood))
}

// weightedStd is the reliability-weighted standard deviation of one outcome
func weightedStd(cs []contribution, idx int) float64 {
	if len(cs) < 2 {
		return 0
	}
	var sumW, mean float64
	for _, c := range cs {
		w := c.reliability * c.weight
		sumW += w
		mean += w * c.probs[idx]
	}
	if sumW <= 0 {
		return 0
	}
	mean /= sumW
	var variance float64
	for _, c := range cs {
		d := c.probs[idx] - mean
		variance += c.reliability * c.weight * d * d
	}
	return math.Sqrt(variance / sumW)
}

// meanReliability is the store-weighted mean of clamped engine reliabilities
func meanReliability(cs []contribution) float64 {
	var sum, sumW float64
	for _, c := range cs {
		sum += c.weight * c.reliability
		sumW += c.weight
	}
	if sumW <= 0 {
		return 0
	}
	return sum / sumW
}

func confidence(sigma, reliability float64) float64 {
	return clamp((1-2*sigma)*reliability, 0, 1)
}

// Renormalize scales probs to sum to one while keeping each at or above floor.
// Entries pushed below the floor are pinned there and the remaining mass is
// redistributed proportionally over the rest.
func Renormalize(probs [3]float64, floor float64) [3]float64 {
	total := 0.0
	for _, p := range probs {
		total += math.Max(p, 0)
	}
	if total <= epsilon {
		return [3]float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
	}

	var out [3]float64
	var pinned [3]bool
	for i, p := range probs {
		out[i] = math.Max(p, 0) / total
	}
	for iter := 0; iter < len(out); iter++ {
		changed := false
		free, freeMass := 1.0, 0.0
		for i := range out {
			if !pinned[i] && out[i] < floor {
				pinned[i] = true
				changed = true
			}
		}
		if !changed {
			break
		}
		for i := range out {
			if pinned[i] {
				out[i] = floor
				free -= floor
			} else {
				freeMass += out[i]
			}
		}
		for i := range out {
			if !pinned[i] && freeMass > 0 {
				out[i] = out[i] / freeMass * free
			}
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
