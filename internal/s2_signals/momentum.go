package s2_signals

import (
	"github.com/wonny/factorflow/backend/internal/contracts"
)

// MomentumMonths are the calendar-month lookbacks reported per record
var MomentumMonths = [4]int{1, 3, 6, 12}

// Momentum returns the k-month price change in percent as of prices[asOf].
// The reference is the last bar on or before asOf date - k months; without
// one (or with a non-positive reference price) momentum is 0.
// ⭐ SSOT: 모멘텀 계산은 여기서만
func Momentum(prices []contracts.PricePoint, asOf int, months int) float64 {
	current := prices[asOf].AdjClose
	refDate := AddMonths(prices[asOf].Date, -months)

	ref, ok := AsOfIndex(prices[:asOf+1], refDate)
	if !ok {
		return 0
	}

	refPrice := prices[ref].AdjClose
	if refPrice <= 0 {
		return 0
	}
	return (current/refPrice - 1) * 100
}
