package s2_signals

import (
	"fmt"
	"time"

	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/internal/modelconfig"
)

// Calculator computes technical indicators as of an evaluation date
// ⭐ SSOT: 지표 계산 진입점
type Calculator struct {
	cfg modelconfig.Indicators
}

// NewCalculator creates a new indicator calculator
func NewCalculator(cfg modelconfig.Indicators) *Calculator {
	return &Calculator{cfg: cfg}
}

// Calculate resolves the as-of bar (last bar on or before date) and computes
// every indicator from bars up to it. No later bar is ever read.
// With MaxStalenessDays > 0 an as-of bar older than that many calendar days
// is rejected with contracts.ErrStalePrice.
func (c *Calculator) Calculate(prices []contracts.PricePoint, date time.Time) (contracts.Indicators, error) {
	var ind contracts.Indicators

	asOf, ok := AsOfIndex(prices, date)
	if !ok {
		return ind, contracts.ErrNoData
	}
	if limit := c.cfg.MaxStalenessDays; limit > 0 {
		if age := calendarDays(prices[asOf].Date, date); age > limit {
			return ind, fmt.Errorf("%w: last bar %s is %d days before %s (limit %d)",
				contracts.ErrStalePrice, contracts.FormatDate(prices[asOf].Date), age, contracts.FormatDate(date), limit)
		}
	}
	if n := asOf + 1; n < c.cfg.MinHistory {
		return ind, fmt.Errorf("%w: %d points as of %s, need %d",
			contracts.ErrInsufficientHistory, n, contracts.FormatDate(date), c.cfg.MinHistory)
	}

	window := prices[:asOf+1]
	closes := make([]float64, len(window))
	for i, p := range window {
		closes[i] = p.AdjClose
	}

	ind.AsOf = window[asOf].Date
	ind.Price = closes[asOf]

	ind.Momentum1M = Momentum(window, asOf, MomentumMonths[0])
	ind.Momentum3M = Momentum(window, asOf, MomentumMonths[1])
	ind.Momentum6M = Momentum(window, asOf, MomentumMonths[2])
	ind.Momentum12M = Momentum(window, asOf, MomentumMonths[3])

	ind.Volatility = Volatility(closes, c.cfg.VolatilityMinReturns, c.cfg.AnnualizationDays)
	ind.RSI = RSI(closes, c.cfg.RSIPeriod, c.cfg.RSILossFloor, c.cfg.RSINeutral)
	ind.MACD, ind.MACDSignal, ind.MACDHist = MACD(closes, c.cfg.MACDFast, c.cfg.MACDSlow, c.cfg.MACDSignal)

	return ind, nil
}

// calendarDays counts whole days between the dates of from and to
func calendarDays(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
