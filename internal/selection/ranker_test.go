package selection

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/internal/modelconfig"
	"github.com/wonny/factorflow/backend/pkg/logger"
)

var evalDate = time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

func newRanker() *Ranker {
	return NewRanker(modelconfig.Default().Ranking, logger.Nop())
}

func ext(symbol string, raw contracts.RawFactors) *contracts.Extraction {
	return &contracts.Extraction{
		Security: contracts.Security{Symbol: symbol, Name: symbol},
		Sector:   "Unknown",
		Industry: "Unknown",
		Raw:      raw,
	}
}

func flat(momentum float64) contracts.RawFactors {
	return contracts.RawFactors{Beta: 1, PBR: 1, MarketCapUSD: 1e9, Momentum12M: momentum, Volatility: 20}
}

func bySymbol(records []*contracts.ScoredRecord) map[string]*contracts.ScoredRecord {
	out := make(map[string]*contracts.ScoredRecord, len(records))
	for _, r := range records {
		out[r.Symbol] = r
	}
	return out
}

func TestRanker_MomentumExample(t *testing.T) {
	momentum := []float64{50, 40, 30, 20, 10, 0}
	var in []*contracts.Extraction
	for i, m := range momentum {
		in = append(in, ext(fmt.Sprintf("S%d", i), flat(m)))
	}

	records, err := newRanker().Rank(evalDate, in)
	require.NoError(t, err)
	require.Len(t, records, 6)

	got := bySymbol(records)
	want := []float64{1, 5.0 / 6, 4.0 / 6, 3.0 / 6, 2.0 / 6, 1.0 / 6}
	for i, w := range want {
		assert.InDelta(t, w, got[fmt.Sprintf("S%d", i)].Factors.Momentum, 1e-12)
	}

	// 나머지 팩터는 전원 동률 → 평균 순위 3.5/6
	for _, r := range records {
		assert.InDelta(t, 3.5/6, r.Factors.Beta, 1e-12)
		assert.InDelta(t, 3.5/6, r.Factors.Volatility, 1e-12)
		assert.Equal(t, evalDate, r.Date)
	}
}

func TestRanker_Directions(t *testing.T) {
	in := []*contracts.Extraction{
		ext("LOW", contracts.RawFactors{Beta: 0.5, PBR: 0.5, MarketCapUSD: 1e8, Momentum12M: 0, Volatility: 10}),
		ext("MID1", contracts.RawFactors{Beta: 1.0, PBR: 1.0, MarketCapUSD: 1e9, Momentum12M: 5, Volatility: 20}),
		ext("MID2", contracts.RawFactors{Beta: 1.0, PBR: 1.0, MarketCapUSD: 1e9, Momentum12M: 5, Volatility: 20}),
		ext("MID3", contracts.RawFactors{Beta: 1.2, PBR: 2.0, MarketCapUSD: 5e9, Momentum12M: 8, Volatility: 30}),
		ext("HIGH", contracts.RawFactors{Beta: 2.0, PBR: 4.0, MarketCapUSD: 1e11, Momentum12M: 40, Volatility: 60}),
	}

	records, err := newRanker().Rank(evalDate, in)
	require.NoError(t, err)
	got := bySymbol(records)

	// 낮을수록 좋은 팩터는 LOW가 1.0
	assert.Equal(t, 1.0, got["LOW"].Factors.Beta)
	assert.Equal(t, 1.0, got["LOW"].Factors.Value)
	assert.Equal(t, 1.0, got["LOW"].Factors.Size)
	assert.Equal(t, 1.0, got["LOW"].Factors.Volatility)
	assert.Equal(t, 0.2, got["LOW"].Factors.Momentum)
	assert.Equal(t, 1.0, got["HIGH"].Factors.Momentum)
	assert.Equal(t, 0.2, got["HIGH"].Factors.Beta)

	// 동률은 같은 백분위
	assert.Equal(t, got["MID1"].Factors, got["MID2"].Factors)
	assert.Equal(t, got["MID1"].FactorPercentile, got["MID2"].FactorPercentile)
	assert.InDelta(t, 0.7, got["MID1"].Factors.Beta, 1e-12) // ranks 3,4 → 3.5/5

	// weighted score = 0.2 × 팩터 합
	f := got["MID3"].Factors
	assert.InDelta(t, 0.2*(f.Beta+f.Value+f.Size+f.Momentum+f.Volatility), got["MID3"].WeightedScore, 1e-12)

	// 결과는 심볼 순
	for i := 1; i < len(records); i++ {
		assert.Less(t, records[i-1].Symbol, records[i].Symbol)
	}
	for _, r := range records {
		for _, v := range []float64{r.Factors.Beta, r.Factors.Value, r.Factors.Size, r.Factors.Momentum, r.Factors.Volatility, r.FactorPercentile} {
			assert.Greater(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestRanker_SkipPolicy(t *testing.T) {
	var in []*contracts.Extraction
	for i := 0; i < 4; i++ {
		in = append(in, ext(fmt.Sprintf("S%d", i), flat(float64(i))))
	}

	records, err := newRanker().Rank(evalDate, in)
	assert.True(t, errors.Is(err, contracts.ErrThinCrossSection))
	assert.Empty(t, records)

	in = append(in, ext("S4", flat(4)))
	records, err = newRanker().Rank(evalDate, in)
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestRanker_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var in []*contracts.Extraction
	for i := 0; i < 40; i++ {
		in = append(in, ext(fmt.Sprintf("S%02d", i), contracts.RawFactors{
			Beta:         float64(rng.Intn(5)) * 0.25,
			PBR:          float64(rng.Intn(8)) * 0.5,
			MarketCapUSD: float64(rng.Intn(10)) * 1e9,
			Momentum12M:  float64(rng.Intn(20)) - 5,
			Volatility:   float64(rng.Intn(6)) * 5,
		}))
	}

	base, err := newRanker().Rank(evalDate, in)
	require.NoError(t, err)

	for trial := 0; trial < 10; trial++ {
		shuffled := append([]*contracts.Extraction(nil), in...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := newRanker().Rank(evalDate, shuffled)
		require.NoError(t, err)
		assert.Equal(t, base, got)
	}
}

func TestRanker_EqualRankSetsTie(t *testing.T) {
	// S1 과 S2 는 같은 순위 집합 {2,3,4}/6 을 서로 다른 팩터에 가짐
	in := []*contracts.Extraction{
		ext("S0", contracts.RawFactors{Beta: 3.0, PBR: 6, MarketCapUSD: 6e9, Momentum12M: 0, Volatility: 20}),
		ext("S1", contracts.RawFactors{Beta: 2.5, PBR: 3, MarketCapUSD: 4e9, Momentum12M: 10, Volatility: 20}),
		ext("S2", contracts.RawFactors{Beta: 1.5, PBR: 4, MarketCapUSD: 5e9, Momentum12M: 10, Volatility: 20}),
		ext("S3", contracts.RawFactors{Beta: 2.0, PBR: 5, MarketCapUSD: 3e9, Momentum12M: 20, Volatility: 20}),
		ext("S4", contracts.RawFactors{Beta: 1.0, PBR: 2, MarketCapUSD: 2e9, Momentum12M: 30, Volatility: 20}),
		ext("S5", contracts.RawFactors{Beta: 0.5, PBR: 1, MarketCapUSD: 1e9, Momentum12M: 40, Volatility: 20}),
	}

	records, err := newRanker().Rank(evalDate, in)
	require.NoError(t, err)
	got := bySymbol(records)

	s1, s2 := got["S1"], got["S2"]
	assert.InDelta(t, 2.0/6, s1.Factors.Beta, 1e-12)
	assert.InDelta(t, 4.0/6, s1.Factors.Value, 1e-12)
	assert.InDelta(t, 3.0/6, s1.Factors.Size, 1e-12)
	assert.InDelta(t, 4.0/6, s2.Factors.Beta, 1e-12)
	assert.InDelta(t, 3.0/6, s2.Factors.Value, 1e-12)
	assert.InDelta(t, 2.0/6, s2.Factors.Size, 1e-12)

	assert.Equal(t, s1.WeightedScore, s2.WeightedScore)
	assert.Equal(t, s1.FactorPercentile, s2.FactorPercentile)

	NewClassifier(modelconfig.Default().Signals).Classify(records)
	assert.Equal(t, s1.RebalancePriority, s2.RebalancePriority)
	assert.Equal(t, s1.Signal, s2.Signal)
	assert.Equal(t, s1.Strength, s2.Strength)
}

func TestWeightedScore_Snapped(t *testing.T) {
	r := newRanker()
	a := r.weightedScore(contracts.FactorRecord{Beta: 1.0 / 3, Value: 2.0 / 3, Size: 0.5, Momentum: 2.5 / 6, Volatility: 3.5 / 6})
	b := r.weightedScore(contracts.FactorRecord{Beta: 2.0 / 3, Value: 0.5, Size: 1.0 / 3, Momentum: 2.5 / 6, Volatility: 3.5 / 6})
	assert.Equal(t, a, b)
}
