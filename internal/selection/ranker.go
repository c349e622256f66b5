package selection

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/internal/modelconfig"
	"github.com/wonny/factorflow/backend/pkg/logger"
)

// Ranker implements S3: cross-sectional percentile ranking
// ⭐ SSOT: 횡단면 랭킹 로직은 여기서만
type Ranker struct {
	weights         modelconfig.Weights
	minCrossSection int
	logger          *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(cfg modelconfig.Ranking, logger *logger.Logger) *Ranker {
	return &Ranker{
		weights:         cfg.Weights,
		minCrossSection: cfg.MinCrossSection,
		logger:          logger,
	}
}

// Rank turns one date's extractions into scored records (factors, weighted
// score and factor percentile set; classification left to the Classifier).
// A cross-section smaller than the configured minimum returns
// contracts.ErrThinCrossSection and no records.
//
// Every factor is the percentile of a "higher is better" value, so 1.0 is
// always best: beta, pbr, market cap and volatility are negated before
// ranking, momentum is ranked as is. The output is sorted by symbol.
func (r *Ranker) Rank(date time.Time, extractions []*contracts.Extraction) ([]*contracts.ScoredRecord, error) {
	n := len(extractions)
	if n < r.minCrossSection {
		return nil, fmt.Errorf("%w: %d < %d on %s",
			contracts.ErrThinCrossSection, n, r.minCrossSection, contracts.FormatDate(date))
	}

	sorted := append([]*contracts.Extraction(nil), extractions...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Security.Symbol < sorted[j].Security.Symbol
	})

	beta := make([]float64, n)
	pbr := make([]float64, n)
	size := make([]float64, n)
	momentum := make([]float64, n)
	volatility := make([]float64, n)
	for i, e := range sorted {
		beta[i] = -e.Raw.Beta
		pbr[i] = -e.Raw.PBR
		size[i] = -e.Raw.MarketCapUSD
		momentum[i] = e.Raw.Momentum12M
		volatility[i] = -e.Raw.Volatility
	}

	betaF := PercentileRank(beta)
	valueF := PercentileRank(pbr)
	sizeF := PercentileRank(size)
	momentumF := PercentileRank(momentum)
	volatilityF := PercentileRank(volatility)

	records := make([]*contracts.ScoredRecord, n)
	scores := make([]float64, n)
	for i, e := range sorted {
		factors := contracts.FactorRecord{
			Beta:       betaF[i],
			Value:      valueF[i],
			Size:       sizeF[i],
			Momentum:   momentumF[i],
			Volatility: volatilityF[i],
		}
		scores[i] = r.weightedScore(factors)

		records[i] = &contracts.ScoredRecord{
			Symbol:        e.Security.Symbol,
			Name:          e.Security.Name,
			Date:          date,
			Sector:        e.Sector,
			Industry:      e.Industry,
			Indicators:    e.Indicators,
			Raw:           e.Raw,
			Factors:       factors,
			WeightedScore: scores[i],
		}
	}

	percentiles := PercentileRank(scores)
	top := 0
	for i, rec := range records {
		rec.FactorPercentile = percentiles[i]
		if percentiles[i] > percentiles[top] {
			top = i
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"stage":        contracts.StageRanker.ShortName(),
		"date":         contracts.FormatDate(date),
		"total_stocks": n,
		"top_score":    records[top].WeightedScore,
		"top_symbol":   records[top].Symbol,
	}).Debug("Ranking completed")

	return records, nil
}

// scoreScale snaps weighted scores to a 1e-12 grid. Factor percentiles are
// multiples of 1/(2n), so equal rank sets placed in different factors must
// produce the same score even when float addition order differs.
const scoreScale = 1e12

// weightedScore sums factor × weight, snapped to scoreScale
func (r *Ranker) weightedScore(f contracts.FactorRecord) float64 {
	sum := f.Beta*r.weights.Beta +
		f.Value*r.weights.Value +
		f.Size*r.weights.Size +
		f.Momentum*r.weights.Momentum +
		f.Volatility*r.weights.Volatility
	return math.Round(sum*scoreScale) / scoreScale
}
