package s2_signals

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// ⭐ SSOT: 기술적 지표 공식은 여기서만 (순수 함수, []float64 입력)

// Returns converts prices to day-over-day fractional returns. Pairs with a
// non-positive previous price have no defined return and are skipped.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	return returns
}

// Volatility is the annualized sample standard deviation of daily returns in
// percent: std × sqrt(annualization) × 100. Fewer than minReturns returns
// yield 0.
func Volatility(closes []float64, minReturns, annualization int) float64 {
	returns := Returns(closes)
	if len(returns) < minReturns || len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil) * math.Sqrt(float64(annualization)) * 100
}

// RSI computes the relative strength index from the simple means of gains and
// losses over the last period deltas. A zero average loss is replaced by
// lossFloor; fewer than period+1 deltas yield neutral.
func RSI(closes []float64, period int, lossFloor, neutral float64) float64 {
	deltas := len(closes) - 1
	if deltas < period+1 {
		return neutral
	}

	gains := make([]float64, deltas)
	losses := make([]float64, deltas)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	avgGain := last(talib.Sma(gains, period))
	avgLoss := last(talib.Sma(losses, period))
	if avgLoss == 0 {
		avgLoss = lossFloor
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// EMA is the recursive exponential moving average seeded with the first
// value (no SMA warm-up): ema[i] = α·x[i] + (1-α)·ema[i-1], α = 2/(span+1).
// talib.Ema seeds with an SMA of the first span values instead.
func EMA(values []float64, span int) []float64 {
	if len(values) == 0 {
		return nil
	}

	alpha := 2.0 / (float64(span) + 1.0)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD returns the last MACD line (EMA fast - EMA slow), its signal line
// (EMA of MACD) and histogram. Fewer than slow values yield zeros.
func MACD(closes []float64, fast, slow, signal int) (macd, sig, hist float64) {
	if len(closes) < slow {
		return 0, 0, 0
	}

	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}
	signalLine := EMA(line, signal)

	macd = last(line)
	sig = last(signalLine)
	return macd, sig, macd - sig
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}
