package scheduler

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name (unique per scheduler)
	Name() string

	// Run executes the job. ctx is cancelled when the scheduler stops.
	Run(ctx context.Context) error

	// Schedule returns the cron expression, seconds first
	// e.g. "0 30 18 * * 1-5" (weekdays 18:30), "@daily"
	Schedule() string
}

// JobResult is one execution of a job, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// DefaultHistoryLimit is the number of results kept per job
const DefaultHistoryLimit = 100

// JobHistory keeps the most recent results of one job, oldest first
type JobHistory struct {
	limit   int
	results []JobResult

	// 전체 누적 (limit 밖으로 밀려난 결과 포함)
	total       int
	failures    int
	lastSuccess time.Time
	lastFailure time.Time
}

func newJobHistory(limit int) *JobHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &JobHistory{limit: limit}
}

// Add records a result, dropping the oldest beyond the limit
func (h *JobHistory) Add(result JobResult) {
	if h.limit <= 0 {
		h.limit = DefaultHistoryLimit
	}

	h.results = append(h.results, result)
	if len(h.results) > h.limit {
		h.results = append([]JobResult(nil), h.results[len(h.results)-h.limit:]...)
	}

	h.total++
	if result.Success {
		h.lastSuccess = result.StartTime
	} else {
		h.failures++
		h.lastFailure = result.StartTime
	}
}

// Latest returns up to n most recent results, oldest first
func (h *JobHistory) Latest(n int) []JobResult {
	if n > len(h.results) {
		n = len(h.results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return append([]JobResult(nil), h.results[len(h.results)-n:]...)
}

// Last returns the most recent result
func (h *JobHistory) Last() (JobResult, bool) {
	if len(h.results) == 0 {
		return JobResult{}, false
	}
	return h.results[len(h.results)-1], true
}

// Failed returns the retained failed results
func (h *JobHistory) Failed() []JobResult {
	failed := make([]JobResult, 0)
	for _, r := range h.results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// SuccessRate is the share of successful runs over the whole lifetime (0.0 - 1.0)
func (h *JobHistory) SuccessRate() float64 {
	if h.total == 0 {
		return 0
	}
	return float64(h.total-h.failures) / float64(h.total)
}

// JobStats summarizes one job for `scheduler list` and monitoring
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
}

func (h *JobHistory) stats(name, schedule string) JobStats {
	st := JobStats{
		JobName:      name,
		Schedule:     schedule,
		TotalRuns:    h.total,
		SuccessCount: h.total - h.failures,
		FailureCount: h.failures,
		SuccessRate:  h.SuccessRate(),
	}
	if last, ok := h.Last(); ok {
		t := last.StartTime
		st.LastRun = &t
	}
	if !h.lastSuccess.IsZero() {
		t := h.lastSuccess
		st.LastSuccess = &t
	}
	if !h.lastFailure.IsZero() {
		t := h.lastFailure
		st.LastFailure = &t
	}
	return st
}
