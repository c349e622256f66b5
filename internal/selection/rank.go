package selection

import (
	"math"
	"sort"
)

// AverageRanks returns the 1-based ascending rank of every value, with tied
// values sharing the mean of the ranks they span ([10, 20, 20, 30] →
// [1, 2.5, 2.5, 4]). Equal values are grouped explicitly, so the result does
// not depend on input order or sort stability. NaN sorts lowest.
func AverageRanks(values []float64) []float64 {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return less(values[order[a]], values[order[b]])
	})

	ranks := make([]float64, n)
	for start := 0; start < n; {
		end := start + 1
		for end < n && equal(values[order[start]], values[order[end]]) {
			end++
		}
		// positions start..end-1 → ranks start+1..end
		avg := float64(start+1+end) / 2
		for k := start; k < end; k++ {
			ranks[order[k]] = avg
		}
		start = end
	}
	return ranks
}

// PercentileRank returns AverageRanks / n, a value in (0,1] per input
func PercentileRank(values []float64) []float64 {
	ranks := AverageRanks(values)
	n := float64(len(values))
	for i := range ranks {
		ranks[i] /= n
	}
	return ranks
}

// DescendingRanks ranks the highest value 1, with the same tie rule
func DescendingRanks(values []float64) []float64 {
	return AverageRanks(negate(values))
}

func negate(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = -v
	}
	return out
}

func less(a, b float64) bool {
	if math.IsNaN(a) {
		return !math.IsNaN(b)
	}
	return a < b
}

func equal(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}
