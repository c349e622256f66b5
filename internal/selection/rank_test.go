package selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverageRanks(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []float64
	}{
		{"distinct", []float64{30, 10, 20}, []float64{3, 1, 2}},
		{"pair tie", []float64{10, 20, 20, 30}, []float64{1, 2.5, 2.5, 4}},
		{"all equal", []float64{5, 5, 5}, []float64{2, 2, 2}},
		{"triple tie at top", []float64{1, 9, 9, 9}, []float64{1, 3, 3, 3}},
		{"nan lowest", []float64{1, math.NaN()}, []float64{2, 1}},
		{"empty", nil, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AverageRanks(tt.values))
		})
	}
}

func TestPercentileRank_Bounds(t *testing.T) {
	values := []float64{3, -1, 3, 8, 0, 0, 0, 12.5}
	for _, p := range PercentileRank(values) {
		assert.Greater(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
	assert.Equal(t, []float64{1}, PercentileRank([]float64{42}))
}

func TestDescendingRanks(t *testing.T) {
	assert.Equal(t, []float64{4, 1, 2.5, 2.5}, DescendingRanks([]float64{0.2, 1.0, 0.6, 0.6}))
}
