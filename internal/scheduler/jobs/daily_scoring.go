package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/factorflow/backend/internal/brain"
	"github.com/wonny/factorflow/backend/pkg/logger"
)

// Runner runs one scoring pipeline (brain.Orchestrator)
type Runner interface {
	Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error)
}

// DailyScoringJob scores the trailing window of a market after the close.
// Publication replaces whole dates, so re-scoring the overlap is harmless
// and catches late price corrections.
type DailyScoringJob struct {
	runner       Runner
	market       string
	schedule     string
	lookbackDays int
	workers      int
	now          func() time.Time
	logger       *logger.Logger
}

// NewDailyScoringJob creates a new daily scoring job
func NewDailyScoringJob(runner Runner, market, schedule string, lookbackDays, workers int, log *logger.Logger) *DailyScoringJob {
	if lookbackDays < 0 {
		lookbackDays = 0
	}
	return &DailyScoringJob{
		runner:       runner,
		market:       market,
		schedule:     schedule,
		lookbackDays: lookbackDays,
		workers:      workers,
		now:          time.Now,
		logger:       log,
	}
}

// Name returns the job name
func (j *DailyScoringJob) Name() string {
	return fmt.Sprintf("daily_scoring_%s", j.market)
}

// Schedule returns the cron schedule
func (j *DailyScoringJob) Schedule() string {
	return j.schedule
}

// Window returns the evaluation range of a run started at now
func (j *DailyScoringJob) Window(now time.Time) (time.Time, time.Time) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -j.lookbackDays), end
}

// Run executes the scoring run
func (j *DailyScoringJob) Run(ctx context.Context) error {
	start, end := j.Window(j.now())

	result, err := j.runner.Run(ctx, brain.RunConfig{
		Market:  j.market,
		Start:   start,
		End:     end,
		Workers: j.workers,
	})
	if err != nil {
		return fmt.Errorf("daily scoring %s: %w", j.market, err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":       result.RunID,
		"market":       j.market,
		"dates_ranked": result.DatesRanked,
		"skipped":      len(result.Skipped),
		"failures":     len(result.Failures),
		"records":      result.Records,
	}).Info("Daily scoring completed")

	return nil
}
