package contracts

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_ShortName(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StageData, "S0"},
		{StageIndicators, "S2"},
		{StageRanker, "S3"},
		{StageClassifier, "S4"},
		{StagePublish, "S5"},
		{Stage("bogus"), "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stage.ShortName())
		})
	}

	for _, s := range AllStages() {
		assert.NotEqual(t, "알 수 없음", s.Description())
	}
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "no_data", FailureReason(fmt.Errorf("A: %w", ErrNoData)))
	assert.Equal(t, "insufficient_history", FailureReason(fmt.Errorf("A: %w", ErrInsufficientHistory)))
	assert.Equal(t, "stale_price", FailureReason(fmt.Errorf("A: %w", ErrStalePrice)))
	assert.Equal(t, "error", FailureReason(errors.New("boom")))
}

func TestDateHelpers(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, d.Location())
	assert.Equal(t, "2024-02-29", FormatDate(d))

	_, err = ParseDate("2024/02/29")
	assert.Error(t, err)
}

func TestScoredRecord_Key(t *testing.T) {
	r := &ScoredRecord{Symbol: "005930.KS", Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "005930.KS|2024-01-15", r.Key())
}

func TestFloat(t *testing.T) {
	p := Float(1.25)
	require.NotNil(t, p)
	assert.Equal(t, 1.25, *p)
}
