package s2_signals

import (
	"math"

	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/internal/modelconfig"
)

// UnknownClassification fills missing sector and industry
const UnknownClassification = "Unknown"

// Extractor maps indicators and fundamentals to raw factor values.
// Missing fundamentals never fail: every gap is filled from model defaults.
// ⭐ SSOT: 원시 팩터 추출은 여기서만
type Extractor struct {
	cfg       modelconfig.Factors
	betaTable map[string]float64
}

// NewExtractor creates an extractor. The beta table is copied so later
// changes to cfg cannot leak into a run.
func NewExtractor(cfg modelconfig.Factors) *Extractor {
	table := make(map[string]float64, len(cfg.BetaTable))
	for k, v := range cfg.BetaTable {
		table[k] = v
	}
	return &Extractor{cfg: cfg, betaTable: table}
}

// Extract builds the raw factor tuple of one security on one date
func (e *Extractor) Extract(sec contracts.Security, snap *contracts.FundamentalSnapshot, ind contracts.Indicators) contracts.Extraction {
	if snap == nil {
		snap = &contracts.FundamentalSnapshot{}
	}

	out := contracts.Extraction{
		Security:   sec,
		Sector:     orUnknown(snap.Sector),
		Industry:   orUnknown(snap.Industry),
		Indicators: ind,
		Raw: contracts.RawFactors{
			Beta:         e.beta(sec.Symbol, snap.Beta),
			PBR:          positiveOr(snap.PriceToBook, e.cfg.DefaultPBR),
			MarketCapUSD: positiveOr(snap.MarketCapUSD, e.cfg.DefaultMarketCapUSD),
			Momentum12M:  ind.Momentum12M,
			Volatility:   ind.Volatility,
		},
	}
	if out.Security.Name == "" {
		out.Security.Name = sec.Symbol
	}
	return out
}

// beta: snapshot → per-security table → universe default, clamped
func (e *Extractor) beta(symbol string, v *float64) float64 {
	beta := e.cfg.DefaultBeta
	if v != nil && isFinite(*v) {
		beta = *v
	} else if tb, ok := e.betaTable[symbol]; ok {
		beta = tb
	}
	return math.Max(e.cfg.BetaMin, math.Min(e.cfg.BetaMax, beta))
}

func positiveOr(v *float64, def float64) float64 {
	if v != nil && isFinite(*v) && *v > 0 {
		return *v
	}
	return def
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownClassification
	}
	return s
}
