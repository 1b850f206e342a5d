package strategy

// Pick is a single outcome under consideration for publication
type Pick struct {
	Odds        float64
	Probability float64
	Confidence  float64
	Risk        float64
}

// ValueEdge is the fair value edge p*odds - 1
func (p Pick) ValueEdge() float64 {
	return p.Probability*p.Odds - 1
}

// AllowPick applies the short-odds filter. Picks at or above MinOdds pass;
// shorter prices need high probability, high confidence, low risk and a
// clear value edge.
func (b *BaseStrategy) AllowPick(p Pick) bool {
	if err := b.ValidateOdds(p.Odds); err != nil {
		return false
	}
	if p.Odds >= b.cfg.MinOdds {
		return true
	}
	if p.Probability < b.cfg.ShortMinProb {
		return false
	}
	if p.Confidence < b.cfg.ShortMinConf {
		return false
	}
	if p.Risk > b.cfg.ShortMaxRisk {
		return false
	}
	return p.ValueEdge() >= b.cfg.ShortMinEdge
}
