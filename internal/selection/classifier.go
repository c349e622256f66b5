package selection

import (
	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/internal/modelconfig"
)

// Classifier implements S4: percentile → signal, strength, priority
// ⭐ SSOT: 시그널 분류 임계값 적용은 여기서만
type Classifier struct {
	cfg modelconfig.Signals
}

// NewClassifier creates a new classifier
func NewClassifier(cfg modelconfig.Signals) *Classifier {
	return &Classifier{cfg: cfg}
}

// Signal is BUY above buy_above, SELL below sell_below, else NEUTRAL
func (c *Classifier) Signal(p float64) contracts.Signal {
	switch {
	case p > c.cfg.BuyAbove:
		return contracts.SignalBuy
	case p < c.cfg.SellBelow:
		return contracts.SignalSell
	default:
		return contracts.SignalNeutral
	}
}

// Strength is STRONG in either tail (above strong_above or below strong_below)
func (c *Classifier) Strength(p float64) contracts.Strength {
	if p > c.cfg.StrongAbove || p < c.cfg.StrongBelow {
		return contracts.StrengthStrong
	}
	return contracts.StrengthMedium
}

// Classify completes one date's ranked records in place. Priority is the
// descending tie-averaged rank of factor percentile (1 = highest).
func (c *Classifier) Classify(records []*contracts.ScoredRecord) {
	percentiles := make([]float64, len(records))
	for i, r := range records {
		percentiles[i] = r.FactorPercentile
	}
	priorities := DescendingRanks(percentiles)

	for i, r := range records {
		r.Signal = c.Signal(r.FactorPercentile)
		r.Strength = c.Strength(r.FactorPercentile)
		r.RebalancePriority = priorities[i]
		r.ToRebalance = 0
		if r.Signal != contracts.SignalNeutral {
			r.ToRebalance = 1
		}
	}
}
