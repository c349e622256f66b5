package commands

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/factorflow/backend/internal/brain"
	"github.com/wonny/factorflow/backend/internal/contracts"
)

func TestSummarizeFailures(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	failures := []contracts.SecurityFailure{
		{Symbol: "NEW", Date: d, Reason: "insufficient_history"},
		{Symbol: "NEW", Date: d.AddDate(0, 0, 1), Reason: "insufficient_history"},
		{Symbol: "BAD", Reason: "error"},
	}

	lines := summarizeFailures(failures)
	require.Len(t, lines, 2)
	assert.Equal(t, "NEW: insufficient_history ×2", lines[0])
	assert.Equal(t, "BAD: load: error ×1", lines[1])
}

func TestSummarizeFailures_Capped(t *testing.T) {
	var failures []contracts.SecurityFailure
	for i := 0; i < 15; i++ {
		failures = append(failures, contracts.SecurityFailure{Symbol: fmt.Sprintf("S%02d", i), Reason: "no_data"})
	}

	lines := summarizeFailures(failures)
	require.Len(t, lines, maxListedFailures+1)
	assert.Equal(t, "... 5 more", lines[maxListedFailures])
}

func TestPrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintRunSummary(&buf, &brain.RunResult{
		RunID:       "run-1",
		ModelHash:   "0123456789abcdef",
		DatesTotal:  3,
		DatesRanked: 2,
		Records:     4,
		SignalCounts: map[contracts.Signal]int{
			contracts.SignalBuy:     1,
			contracts.SignalNeutral: 3,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Run completed")
	assert.Contains(t, out, "0123456789ab")
	assert.NotContains(t, out, "0123456789abc")
	assert.Contains(t, out, "2 / 3")
	assert.Contains(t, out, "1 (25.0%)")
	assert.Contains(t, out, "3 (75.0%)")
}

func TestSplitSymbols(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "MSFT"}, splitSymbols(" AAPL, ,MSFT "))
	assert.Nil(t, splitSymbols(""))
}

func TestParseDateFlag(t *testing.T) {
	def := time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC)

	got, err := parseDateFlag("end", "", def)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	got, err = parseDateFlag("end", "2024-01-02", def)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), got)

	_, err = parseDateFlag("end", "01/02/2024", def)
	assert.Error(t, err)
}
