package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/internal/modelconfig"
)

func TestClassifier_Thresholds(t *testing.T) {
	c := NewClassifier(modelconfig.Default().Signals)

	tests := []struct {
		p        float64
		signal   contracts.Signal
		strength contracts.Strength
	}{
		{1.0, contracts.SignalBuy, contracts.StrengthStrong},
		{0.95, contracts.SignalBuy, contracts.StrengthStrong},
		{0.9, contracts.SignalBuy, contracts.StrengthMedium},
		{0.71, contracts.SignalBuy, contracts.StrengthMedium},
		{0.7, contracts.SignalNeutral, contracts.StrengthMedium},
		{0.5, contracts.SignalNeutral, contracts.StrengthMedium},
		{0.3, contracts.SignalNeutral, contracts.StrengthMedium},
		{0.2, contracts.SignalSell, contracts.StrengthMedium},
		{0.1, contracts.SignalSell, contracts.StrengthMedium},
		{0.05, contracts.SignalSell, contracts.StrengthStrong},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.signal, c.Signal(tt.p), "p=%v", tt.p)
		assert.Equal(t, tt.strength, c.Strength(tt.p), "p=%v", tt.p)
	}
}

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(modelconfig.Default().Signals)
	records := []*contracts.ScoredRecord{
		{Symbol: "A", FactorPercentile: 0.2},
		{Symbol: "B", FactorPercentile: 1.0},
		{Symbol: "C", FactorPercentile: 0.6},
		{Symbol: "D", FactorPercentile: 0.6},
	}

	c.Classify(records)

	assert.Equal(t, []float64{4, 1, 2.5, 2.5}, []float64{
		records[0].RebalancePriority, records[1].RebalancePriority,
		records[2].RebalancePriority, records[3].RebalancePriority,
	})
	assert.Equal(t, contracts.SignalSell, records[0].Signal)
	assert.Equal(t, 1, records[0].ToRebalance)
	assert.Equal(t, contracts.SignalBuy, records[1].Signal)
	assert.Equal(t, contracts.StrengthStrong, records[1].Strength)
	assert.Equal(t, 0, records[2].ToRebalance)
}

func TestClassifier_Consistency(t *testing.T) {
	c := NewClassifier(modelconfig.Default().Signals)
	var records []*contracts.ScoredRecord
	for i := 1; i <= 200; i++ {
		records = append(records, &contracts.ScoredRecord{FactorPercentile: float64(i) / 200})
	}
	c.Classify(records)

	for _, r := range records {
		p := r.FactorPercentile
		assert.Equal(t, p > 0.7, r.Signal == contracts.SignalBuy)
		assert.Equal(t, p < 0.3, r.Signal == contracts.SignalSell)
		assert.Equal(t, p > 0.9 || p < 0.1, r.Strength == contracts.StrengthStrong)
		assert.Equal(t, r.Signal != contracts.SignalNeutral, r.ToRebalance == 1)
	}
}
