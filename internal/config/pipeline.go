package config

import (
	"github.com/yourusername/clever-tipster/internal/bias"
	"github.com/yourusername/clever-tipster/internal/fusion"
	"github.com/yourusername/clever-tipster/internal/kombi"
	"github.com/yourusername/clever-tipster/internal/pipeline"
	"github.com/yourusername/clever-tipster/internal/strategy"
)

// ToPipelineConfig maps the loaded configuration onto the pipeline stages
func (c *Config) ToPipelineConfig() pipeline.Config {
	p := c.Pipeline

	var leagues map[string]bias.LeaguePrior
	if len(p.Bias.LeaguePriors) > 0 {
		leagues = make(map[string]bias.LeaguePrior, len(p.Bias.LeaguePriors))
		for name, prior := range p.Bias.LeaguePriors {
			leagues[name] = prior.toLeaguePrior()
		}
	}

	sizes := make([]int, len(p.Kombi.Sizes))
	copy(sizes, p.Kombi.Sizes)

	return pipeline.Config{
		Workers:        p.Workers,
		MinEV:          p.MinEV,
		SignalCacheTTL: p.SignalCache.TTL,
		SignalCacheMax: p.SignalCache.MaxSize,
		Fusion: fusion.Config{
			Prior:            p.Fusion.Prior,
			ThreeWayPrior:    p.Fusion.ThreeWayPrior,
			MinReliability:   p.Fusion.MinReliability,
			MaxEngines:       p.Fusion.MaxEngines,
			VolatilityWeight: p.Fusion.VolatilityWeight,
		},
		Bias: bias.Config{
			Weights: bias.Weights{
				Drift:    p.Bias.Weights.Drift,
				Market:   p.Bias.Weights.Market,
				ModelDev: p.Bias.Weights.ModelDev,
				Form:     p.Bias.Weights.Form,
			},
			MaxCorrection:  p.Bias.MaxCorrection,
			ShrinkStrength: p.Bias.ShrinkStrength,
			DefaultPrior:   p.Bias.DefaultPrior.toLeaguePrior(),
			LeaguePriors:   leagues,
		},
		Strategy: strategy.Config{
			MinOdds:          p.Strategy.MinOdds,
			ShortMinProb:     p.Strategy.ShortMinProb,
			ShortMinConf:     p.Strategy.ShortMinConf,
			ShortMaxRisk:     p.Strategy.ShortMaxRisk,
			ShortMinEdge:     p.Strategy.ShortMinEdge,
			KellyFraction:    p.Strategy.KellyFraction,
			MaxStakeFraction: p.Strategy.MaxStakeFraction,
		},
		Kombi: kombi.Config{
			Sizes:   sizes,
			MaxOdds: p.Kombi.MaxOdds,
			MaxRisk: p.Kombi.MaxRisk,
			TopN:    p.Kombi.TopN,
			MaxPool: p.Kombi.MaxPool,
			Workers: p.Kombi.Workers,
		},
	}
}

func (p PriorConfig) toLeaguePrior() bias.LeaguePrior {
	return bias.LeaguePrior{Home: p.Home, Draw: p.Draw, Away: p.Away}
}
