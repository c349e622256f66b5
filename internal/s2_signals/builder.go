package s2_signals

import (
	"fmt"
	"time"

	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/internal/modelconfig"
	"github.com/wonny/factorflow/backend/pkg/logger"
)

// Input is everything S2 needs about one security for a whole run.
// Prices must already satisfy the series invariant (see s0_data/quality).
type Input struct {
	Security     contracts.Security
	Prices       []contracts.PricePoint
	Fundamentals *contracts.FundamentalSnapshot
}

// Builder runs indicator calculation and factor extraction for one security
// on one date. It holds no mutable state and is safe for concurrent use.
// ⭐ SSOT: S2 오케스트레이션 (종목 단위)
type Builder struct {
	calculator *Calculator
	extractor  *Extractor
	logger     *logger.Logger
}

// NewBuilder creates a new S2 builder from the model config
func NewBuilder(cfg *modelconfig.Config, log *logger.Logger) *Builder {
	return &Builder{
		calculator: NewCalculator(cfg.Indicators),
		extractor:  NewExtractor(cfg.Factors),
		logger:     log,
	}
}

// Build returns the extraction of in as of date. Errors wrap
// contracts.ErrNoData or contracts.ErrInsufficientHistory; callers exclude
// the security from that date's cross-section.
func (b *Builder) Build(in *Input, date time.Time) (*contracts.Extraction, error) {
	ind, err := b.calculator.Calculate(in.Prices, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.Security.Symbol, err)
	}

	ext := b.extractor.Extract(in.Security, in.Fundamentals, ind)

	b.logger.WithFields(map[string]interface{}{
		"symbol":       in.Security.Symbol,
		"date":         contracts.FormatDate(date),
		"as_of":        contracts.FormatDate(ind.AsOf),
		"momentum_12m": ind.Momentum12M,
		"volatility":   ind.Volatility,
		"rsi":          ind.RSI,
	}).Debug("Extracted factors")

	return &ext, nil
}
