package brain

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/internal/modelconfig"
	"github.com/wonny/factorflow/backend/internal/s0_data/quality"
	"github.com/wonny/factorflow/backend/internal/s2_signals"
	"github.com/wonny/factorflow/backend/internal/selection"
	"github.com/wonny/factorflow/backend/pkg/logger"
	"github.com/wonny/factorflow/backend/pkg/metrics"
)

// Sources bundles the read-only data collaborators of a run
type Sources struct {
	Universe     contracts.UniverseSource
	Prices       contracts.PriceSource
	Fundamentals contracts.FundamentalSource
	Calendar     contracts.CalendarSource
}

// Orchestrator runs the daily scoring pipeline over a date range
// S0 → S2 → S3 → S4 → S5, one evaluation date at a time
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	sources Sources

	builder    *s2_signals.Builder
	ranker     *selection.Ranker
	classifier *selection.Classifier

	sinks     []contracts.LedgerSink
	metrics   *metrics.Recorder
	modelHash string
	workers   int

	logger *logger.Logger
}

// Option customizes an Orchestrator
type Option func(*Orchestrator)

// WithSinks sets the ledger sinks that receive every completed date
func WithSinks(sinks ...contracts.LedgerSink) Option {
	return func(o *Orchestrator) {
		o.sinks = append(o.sinks, sinks...)
	}
}

// WithMetrics sets the Prometheus recorder
func WithMetrics(m *metrics.Recorder) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithWorkers sets the default per-date worker count
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		o.workers = n
	}
}

// WithModelHash tags every published batch with the model config hash
func WithModelHash(hash string) Option {
	return func(o *Orchestrator) {
		o.modelHash = hash
	}
}

// NewOrchestrator creates a new orchestrator for one model config
func NewOrchestrator(cfg *modelconfig.Config, sources Sources, log *logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sources:    sources,
		builder:    s2_signals.NewBuilder(cfg, log),
		ranker:     selection.NewRanker(cfg.Ranking, log),
		classifier: selection.NewClassifier(cfg.Signals),
		workers:    runtime.NumCPU(),
		logger:     log,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.modelHash == "" {
		if h, err := modelconfig.Hash(cfg); err == nil {
			o.modelHash = h
		}
	}
	return o
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	RunID   string // 비어 있으면 uuid 생성
	Market  string
	Start   time.Time
	End     time.Time
	Symbols []string // 비어 있으면 유니버스 전체
	Workers int      // 0 이면 Orchestrator 기본값
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID     string
	ModelHash string
	Market    string
	Start     time.Time
	End       time.Time

	SecuritiesLoaded int
	DatesTotal       int
	DatesRanked      int
	Records          int
	SignalCounts     map[contracts.Signal]int

	Skipped  []contracts.SkippedDate
	Failures []contracts.SecurityFailure

	Cancelled bool
	Duration  time.Duration
}

// Run scores every trading date of cfg.Market in [Start, End].
//
// Dates are processed in calendar order. Within a date, securities are
// evaluated concurrently and nothing is ranked until all of them are done.
// A date is published to every sink as one batch, or not at all: on
// cancellation the in-flight date is discarded and Run returns ctx.Err()
// with the partial result.
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	startTime := time.Now()

	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = o.workers
	}
	if workers <= 0 {
		workers = 1
	}

	result := &RunResult{
		RunID:        cfg.RunID,
		ModelHash:    o.modelHash,
		Market:       cfg.Market,
		Start:        cfg.Start,
		End:          cfg.End,
		SignalCounts: make(map[contracts.Signal]int),
	}

	log := o.logger.ForRun(cfg.RunID, cfg.Market)
	log.WithFields(map[string]interface{}{
		"start":      contracts.FormatDate(cfg.Start),
		"end":        contracts.FormatDate(cfg.End),
		"workers":    workers,
		"model_hash": o.modelHash,
	}).Info("Starting pipeline run")

	dates, err := o.resolveCalendar(ctx, cfg)
	if err != nil {
		return result, err
	}
	result.DatesTotal = len(dates)

	// S0: 종목별 전 기간 데이터를 한 번만 로드
	inputs, err := o.loadInputs(ctx, cfg, workers, result, log)
	if err != nil {
		if ctx.Err() != nil {
			result.Cancelled = true
			result.Duration = time.Since(startTime)
			return result, ctx.Err()
		}
		return result, err
	}
	result.SecuritiesLoaded = len(inputs)

	log.ForStage(contracts.StageData.ShortName()).WithFields(map[string]interface{}{
		"dates":      len(dates),
		"securities": len(inputs),
		"failed":     len(result.Failures),
	}).Info("S0 completed")

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			break
		}

		if err := o.runDate(ctx, log, cfg.RunID, date, inputs, workers, result); err != nil {
			if ctx.Err() != nil {
				result.Cancelled = true
				break
			}
			result.Duration = time.Since(startTime)
			return result, err
		}
	}

	result.Duration = time.Since(startTime)

	if result.Cancelled {
		log.WithFields(map[string]interface{}{
			"dates_ranked": result.DatesRanked,
			"duration":     result.Duration.Seconds(),
		}).Warn("Pipeline run cancelled")
		return result, ctx.Err()
	}

	log.WithFields(map[string]interface{}{
		"dates_ranked": result.DatesRanked,
		"skipped":      len(result.Skipped),
		"records":      result.Records,
		"buy":          result.SignalCounts[contracts.SignalBuy],
		"sell":         result.SignalCounts[contracts.SignalSell],
		"duration":     result.Duration.Seconds(),
	}).Info("Pipeline run completed successfully")

	return result, nil
}

// resolveCalendar returns the run's evaluation dates, ascending and unique.
// Any failure here aborts the run before a date is processed.
func (o *Orchestrator) resolveCalendar(ctx context.Context, cfg RunConfig) ([]time.Time, error) {
	if cfg.End.Before(cfg.Start) {
		return nil, fmt.Errorf("%w: end %s before start %s", contracts.ErrCalendarResolution,
			contracts.FormatDate(cfg.End), contracts.FormatDate(cfg.Start))
	}

	raw, err := o.sources.Calendar.GetTradingCalendar(ctx, cfg.Market, cfg.Start, cfg.End)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrCalendarResolution, err)
	}

	dates := make([]time.Time, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, d := range raw {
		key := contracts.FormatDate(d)
		if seen[key] || d.Before(cfg.Start) || d.After(cfg.End) {
			continue
		}
		seen[key] = true
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: no trading dates for %s in [%s, %s]", contracts.ErrCalendarResolution,
			cfg.Market, contracts.FormatDate(cfg.Start), contracts.FormatDate(cfg.End))
	}
	return dates, nil
}

// loadInputs fetches and sanitizes each security's history once per run.
// A security whose history cannot be fetched is excluded from every date.
func (o *Orchestrator) loadInputs(ctx context.Context, cfg RunConfig, workers int, result *RunResult, log *logger.Logger) ([]*s2_signals.Input, error) {
	log = log.ForStage(contracts.StageData.ShortName())

	universe, err := o.sources.Universe.GetUniverse(ctx, cfg.Market)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	universe = filterSymbols(universe, cfg.Symbols)

	slots := make([]*s2_signals.Input, len(universe))
	loadErrs := make([]error, len(universe))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range universe {
		i := i
		g.Go(func() error {
			sec := universe[i]

			prices, err := o.sources.Prices.GetPriceHistory(gctx, sec.Symbol)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				loadErrs[i] = err
				return nil
			}

			clean, report := quality.Sanitize(sec.Symbol, prices)
			if !report.Clean() {
				log.WithFields(map[string]interface{}{
					"symbol":     sec.Symbol,
					"unordered":  report.Unordered,
					"duplicates": report.Duplicates,
					"non_finite": report.NonFinite,
					"kept":       report.Kept,
				}).Warn("Price history sanitized")
			}

			snap, err := o.sources.Fundamentals.GetFundamentals(gctx, sec.Symbol)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.WithError(err).WithField("symbol", sec.Symbol).
					Warn("Fundamentals unavailable, using defaults")
				snap = nil
			}

			slots[i] = &s2_signals.Input{
				Security:     sec,
				Prices:       clean,
				Fundamentals: snap,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	inputs := make([]*s2_signals.Input, 0, len(slots))
	for i, in := range slots {
		if err := loadErrs[i]; err != nil {
			result.Failures = append(result.Failures, contracts.SecurityFailure{
				Symbol: universe[i].Symbol,
				Stage:  contracts.StageData,
				Reason: err.Error(),
			})
			o.metrics.RecordSecurityFailure(contracts.FailureReason(err))
			log.WithError(err).WithField("symbol", universe[i].Symbol).
				Warn("Security excluded from run")
			continue
		}
		if in != nil {
			inputs = append(inputs, in)
		}
	}
	return inputs, nil
}

// runDate scores one evaluation date. A returned error is fatal to the run.
func (o *Orchestrator) runDate(
	ctx context.Context,
	log *logger.Logger,
	runID string,
	date time.Time,
	inputs []*s2_signals.Input,
	workers int,
	result *RunResult,
) error {
	dateStart := time.Now()
	dateStr := contracts.FormatDate(date)

	// S2: 종목별 병렬 계산, g.Wait() 가 날짜 단위 배리어
	extractions := make([]*contracts.Extraction, len(inputs))
	errs := make([]error, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			extractions[i], errs[i] = o.builder.Build(inputs[i], date)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		o.metrics.RecordDate("cancelled", time.Since(dateStart))
		return err
	}
	if err := ctx.Err(); err != nil {
		o.metrics.RecordDate("cancelled", time.Since(dateStart))
		return err
	}

	valid := make([]*contracts.Extraction, 0, len(inputs))
	for i, ext := range extractions {
		if err := errs[i]; err != nil {
			reason := contracts.FailureReason(err)
			result.Failures = append(result.Failures, contracts.SecurityFailure{
				Symbol: inputs[i].Security.Symbol,
				Date:   date,
				Stage:  contracts.StageIndicators,
				Reason: reason,
			})
			o.metrics.RecordSecurityFailure(reason)
			continue
		}
		valid = append(valid, ext)
	}

	// S3: 횡단면 랭킹
	records, err := o.ranker.Rank(date, valid)
	if errors.Is(err, contracts.ErrThinCrossSection) {
		skip := contracts.SkippedDate{
			Date:       date,
			ValidCount: len(valid),
			Reason:     err.Error(),
		}
		result.Skipped = append(result.Skipped, skip)
		o.metrics.RecordDate("skipped", time.Since(dateStart))

		log.ForStage(contracts.StageRanker.ShortName()).WithFields(map[string]interface{}{
			"date":        dateStr,
			"valid_count": len(valid),
		}).Warn("Date skipped: cross-section too thin")

		return o.recordSkip(ctx, runID, skip)
	}
	if err != nil {
		return fmt.Errorf("rank %s: %w", dateStr, err)
	}

	// S4: 신호 분류
	o.classifier.Classify(records)

	// S5: 날짜 단위 발행
	batch := &contracts.DateBatch{
		RunID:     runID,
		ModelHash: o.modelHash,
		Date:      date,
		Records:   records,
	}
	if err := o.publish(ctx, batch); err != nil {
		return err
	}

	counts := make(map[contracts.Signal]int, 3)
	for _, r := range records {
		counts[r.Signal]++
	}
	for sig, n := range counts {
		result.SignalCounts[sig] += n
		o.metrics.RecordSignal(string(sig), n)
	}
	result.DatesRanked++
	result.Records += len(records)
	o.metrics.RecordCrossSection(len(records))
	o.metrics.RecordDate("ranked", time.Since(dateStart))

	log.WithFields(map[string]interface{}{
		"date":    dateStr,
		"ranked":  len(records),
		"failed":  len(inputs) - len(valid),
		"buy":     counts[contracts.SignalBuy],
		"sell":    counts[contracts.SignalSell],
		"neutral": counts[contracts.SignalNeutral],
	}).Info("Date published")

	return nil
}

// publish hands one batch to every sink in order
func (o *Orchestrator) publish(ctx context.Context, batch *contracts.DateBatch) error {
	for _, sink := range o.sinks {
		if err := sink.PublishDate(ctx, batch); err != nil {
			o.metrics.RecordSinkError(sink.Name())
			return fmt.Errorf("%s publish %s to %s: %w",
				contracts.StagePublish.ShortName(), contracts.FormatDate(batch.Date), sink.Name(), err)
		}
	}
	return nil
}

// recordSkip forwards a skipped date to the sinks that persist skips
func (o *Orchestrator) recordSkip(ctx context.Context, runID string, skip contracts.SkippedDate) error {
	for _, sink := range o.sinks {
		rec, ok := sink.(contracts.SkipRecorder)
		if !ok {
			continue
		}
		if err := rec.RecordSkip(ctx, runID, skip); err != nil {
			o.metrics.RecordSinkError(sink.Name())
			return fmt.Errorf("record skip %s to %s: %w", contracts.FormatDate(skip.Date), sink.Name(), err)
		}
	}
	return nil
}

func filterSymbols(universe []contracts.Security, symbols []string) []contracts.Security {
	if len(symbols) == 0 {
		return universe
	}
	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
	}
	out := make([]contracts.Security, 0, len(symbols))
	for _, sec := range universe {
		if want[sec.Symbol] {
			out = append(out, sec)
		}
	}
	return out
}
