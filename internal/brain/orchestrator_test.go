package brain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/internal/modelconfig"
	"github.com/wonny/factorflow/backend/internal/s0_data"
	"github.com/wonny/factorflow/backend/pkg/logger"
)

const market = "US"

// collectSink keeps every batch and skip it receives
type collectSink struct {
	mu      sync.Mutex
	batches []*contracts.DateBatch
	skips   []contracts.SkippedDate
	onBatch func(n int)
	fail    error
}

func (s *collectSink) Name() string { return "collect" }

func (s *collectSink) PublishDate(_ context.Context, batch *contracts.DateBatch) error {
	if s.fail != nil {
		return s.fail
	}
	s.mu.Lock()
	s.batches = append(s.batches, batch)
	n := len(s.batches)
	s.mu.Unlock()
	if s.onBatch != nil {
		s.onBatch(n)
	}
	return nil
}

func (s *collectSink) RecordSkip(_ context.Context, _ string, skip contracts.SkippedDate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skips = append(s.skips, skip)
	return nil
}

func (s *collectSink) records() []*contracts.ScoredRecord {
	var out []*contracts.ScoredRecord
	for _, b := range s.batches {
		out = append(out, b.Records...)
	}
	return out
}

// weekdays returns n consecutive Mon-Fri dates starting at 2023-01-02
func weekdays(n int) []time.Time {
	out := make([]time.Time, 0, n)
	d := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for len(out) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			out = append(out, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return out
}

func bars(dates []time.Time, seed int) []contracts.PricePoint {
	out := make([]contracts.PricePoint, len(dates))
	for i, d := range dates {
		p := 100 + float64(i)*0.05*float64(seed+1) + 3*math.Sin(float64(i)/float64(5+seed))
		out[i] = contracts.PricePoint{Date: d, Open: p, High: p, Low: p, Close: p, AdjClose: p, Volume: 1000}
	}
	return out
}

// fixture builds a market of n securities over 400 weekdays with the last
// 250 as the trading calendar.
func fixture(n int) (*s0_data.MemorySource, []time.Time) {
	all := weekdays(400)
	src := s0_data.NewMemorySource()
	for j := 0; j < n; j++ {
		sym := fmt.Sprintf("S%02d", j)
		src.AddSecurity(contracts.Security{Symbol: sym, Name: "Stock " + sym, Market: market})
		src.SetPrices(sym, bars(all, j))
		src.SetFundamentals(sym, &contracts.FundamentalSnapshot{
			Beta:         contracts.Float(0.5 + 0.1*float64(j)),
			PriceToBook:  contracts.Float(1 + float64(j%3)),
			MarketCapUSD: contracts.Float(1e9 * float64(j+1)),
			Sector:       "Tech",
		})
	}
	cal := all[150:]
	src.SetCalendar(market, cal)
	return src, cal
}

func sourcesOf(src *s0_data.MemorySource) Sources {
	return Sources{Universe: src, Prices: src, Fundamentals: src, Calendar: src}
}

func newOrchestrator(src Sources, opts ...Option) *Orchestrator {
	return NewOrchestrator(modelconfig.Default(), src, logger.Nop(), opts...)
}

func runConfig(cal []time.Time, workers int) RunConfig {
	return RunConfig{
		RunID:   "run-test",
		Market:  market,
		Start:   cal[0],
		End:     cal[len(cal)-1],
		Workers: workers,
	}
}

func TestOrchestrator_Run(t *testing.T) {
	src, cal := fixture(8)
	sink := &collectSink{}
	o := newOrchestrator(sourcesOf(src), WithSinks(sink))

	result, err := o.Run(context.Background(), runConfig(cal, 4))
	require.NoError(t, err)

	assert.Equal(t, "run-test", result.RunID)
	assert.NotEmpty(t, result.ModelHash)
	assert.Equal(t, 8, result.SecuritiesLoaded)
	assert.Equal(t, 250, result.DatesTotal)
	assert.Equal(t, 250, result.DatesRanked)
	assert.Equal(t, 250*8, result.Records)
	assert.Empty(t, result.Skipped)
	assert.False(t, result.Cancelled)

	total := 0
	for _, n := range result.SignalCounts {
		total += n
	}
	assert.Equal(t, result.Records, total)

	require.Len(t, sink.batches, 250)
	for i, b := range sink.batches {
		assert.Equal(t, cal[i], b.Date, "batches follow calendar order")
		assert.Equal(t, result.ModelHash, b.ModelHash)
		require.Len(t, b.Records, 8)
		for k := 1; k < len(b.Records); k++ {
			assert.Less(t, b.Records[k-1].Symbol, b.Records[k].Symbol)
		}
	}
}

func TestOrchestrator_DeterministicAcrossWorkers(t *testing.T) {
	src, cal := fixture(7)

	sequential := &collectSink{}
	_, err := newOrchestrator(sourcesOf(src), WithSinks(sequential)).Run(context.Background(), runConfig(cal, 1))
	require.NoError(t, err)

	parallel := &collectSink{}
	_, err = newOrchestrator(sourcesOf(src), WithSinks(parallel)).Run(context.Background(), runConfig(cal, 16))
	require.NoError(t, err)

	assert.Equal(t, sequential.records(), parallel.records())
}

func TestOrchestrator_LateListing(t *testing.T) {
	src, cal := fixture(6)
	all := weekdays(400)

	// 32 bars ending on the last calendar date: 30 as-of points are first
	// reached three dates before the end.
	src.AddSecurity(contracts.Security{Symbol: "NEW", Name: "Newcomer", Market: market})
	src.SetPrices("NEW", bars(all[368:], 3))

	sink := &collectSink{}
	result, err := newOrchestrator(sourcesOf(src), WithSinks(sink)).Run(context.Background(), runConfig(cal, 4))
	require.NoError(t, err)

	var dates []time.Time
	for _, r := range sink.records() {
		if r.Symbol == "NEW" {
			dates = append(dates, r.Date)
		}
	}
	assert.Equal(t, []time.Time{all[397], all[398], all[399]}, dates)

	reasons := map[string]int{}
	for _, f := range result.Failures {
		if f.Symbol == "NEW" {
			reasons[f.Reason]++
			assert.Equal(t, contracts.StageIndicators, f.Stage)
		}
	}
	assert.Equal(t, 247, reasons["no_data"]+reasons["insufficient_history"])
	assert.Equal(t, 29, reasons["insufficient_history"])
}

func TestOrchestrator_ThinCrossSection(t *testing.T) {
	src, cal := fixture(4)
	sink := &collectSink{}

	result, err := newOrchestrator(sourcesOf(src), WithSinks(sink)).Run(context.Background(), runConfig(cal[:10], 2))
	require.NoError(t, err)

	assert.Zero(t, result.DatesRanked)
	assert.Empty(t, sink.batches)
	require.Len(t, result.Skipped, 10)
	assert.Equal(t, result.Skipped, sink.skips)
	assert.Equal(t, 4, result.Skipped[0].ValidCount)
}

type failingCalendar struct{}

func (failingCalendar) GetTradingCalendar(context.Context, string, time.Time, time.Time) ([]time.Time, error) {
	return nil, errors.New("calendar service down")
}

func TestOrchestrator_CalendarFailure(t *testing.T) {
	src, cal := fixture(6)
	sink := &collectSink{}

	sources := sourcesOf(src)
	sources.Calendar = failingCalendar{}

	_, err := newOrchestrator(sources, WithSinks(sink)).Run(context.Background(), runConfig(cal, 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrCalendarResolution))
	assert.Empty(t, sink.batches)

	// empty range
	empty := runConfig(cal, 2)
	empty.Start = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	empty.End = empty.Start.AddDate(0, 0, 5)
	_, err = newOrchestrator(sourcesOf(src)).Run(context.Background(), empty)
	assert.True(t, errors.Is(err, contracts.ErrCalendarResolution))
}

type flakyPrices struct {
	contracts.PriceSource
	bad string
}

func (f flakyPrices) GetPriceHistory(ctx context.Context, symbol string) ([]contracts.PricePoint, error) {
	if symbol == f.bad {
		return nil, errors.New("upstream timeout")
	}
	return f.PriceSource.GetPriceHistory(ctx, symbol)
}

func TestOrchestrator_FetchFailureExcludesSecurity(t *testing.T) {
	src, cal := fixture(7)
	sources := sourcesOf(src)
	sources.Prices = flakyPrices{PriceSource: src, bad: "S03"}

	sink := &collectSink{}
	result, err := newOrchestrator(sources, WithSinks(sink)).Run(context.Background(), runConfig(cal[:5], 2))
	require.NoError(t, err)

	assert.Equal(t, 6, result.SecuritiesLoaded)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "S03", result.Failures[0].Symbol)
	assert.Equal(t, contracts.StageData, result.Failures[0].Stage)
	assert.True(t, result.Failures[0].Date.IsZero())

	for _, r := range sink.records() {
		assert.NotEqual(t, "S03", r.Symbol)
	}
}

func TestOrchestrator_Cancellation(t *testing.T) {
	src, cal := fixture(6)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &collectSink{onBatch: func(n int) {
		if n == 2 {
			cancel()
		}
	}}

	result, err := newOrchestrator(sourcesOf(src), WithSinks(sink)).Run(ctx, runConfig(cal, 2))
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, result.Cancelled)
	assert.Equal(t, 2, result.DatesRanked)
	assert.Len(t, sink.batches, 2)
}

func TestOrchestrator_SinkFailureAbortsRun(t *testing.T) {
	src, cal := fixture(6)
	sink := &collectSink{fail: errors.New("disk full")}

	result, err := newOrchestrator(sourcesOf(src), WithSinks(sink)).Run(context.Background(), runConfig(cal, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Zero(t, result.DatesRanked)
}

func TestOrchestrator_SymbolsFilter(t *testing.T) {
	src, cal := fixture(8)
	sink := &collectSink{}

	cfg := runConfig(cal[:3], 2)
	cfg.Symbols = []string{"S00", "S01", "S02", "S03", "S04"}
	result, err := newOrchestrator(sourcesOf(src), WithSinks(sink)).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 5, result.SecuritiesLoaded)
	assert.Len(t, sink.records(), 15)
}

func TestOrchestrator_GeneratesRunID(t *testing.T) {
	src, cal := fixture(5)
	cfg := runConfig(cal[:1], 1)
	cfg.RunID = ""

	result, err := newOrchestrator(sourcesOf(src)).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, result.RunID, 36)
}
