package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/factorflow/backend/internal/brain"
	"github.com/wonny/factorflow/backend/pkg/logger"
)

type fakeRunner struct {
	got brain.RunConfig
	err error
}

func (f *fakeRunner) Run(_ context.Context, cfg brain.RunConfig) (*brain.RunResult, error) {
	f.got = cfg
	if f.err != nil {
		return nil, f.err
	}
	return &brain.RunResult{RunID: "r1", DatesRanked: 3}, nil
}

func TestDailyScoringJob(t *testing.T) {
	runner := &fakeRunner{}
	job := NewDailyScoringJob(runner, "KRX", "0 30 18 * * 1-5", 7, 4, logger.Nop())
	job.now = func() time.Time { return time.Date(2024, 3, 15, 18, 30, 5, 0, time.UTC) }

	assert.Equal(t, "daily_scoring_KRX", job.Name())
	assert.Equal(t, "0 30 18 * * 1-5", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, "KRX", runner.got.Market)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), runner.got.Start)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), runner.got.End)
	assert.Equal(t, 4, runner.got.Workers)
}

func TestDailyScoringJob_Error(t *testing.T) {
	runner := &fakeRunner{err: errors.New("calendar down")}
	job := NewDailyScoringJob(runner, "KRX", "@daily", 7, 0, logger.Nop())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calendar down")
}
