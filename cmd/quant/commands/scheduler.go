package commands

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/wonny/factorflow/backend/internal/brain"
	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/internal/ledger"
	"github.com/wonny/factorflow/backend/internal/scheduler"
	"github.com/wonny/factorflow/backend/internal/scheduler/jobs"
	"github.com/wonny/factorflow/backend/pkg/config"
	"github.com/wonny/factorflow/backend/pkg/database"
	"github.com/wonny/factorflow/backend/pkg/metrics"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `일별 스코어링 스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run daily_scoring_KRX`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 SCORING_MARKET 의 시장마다 daily_scoring 작업을 등록합니다.

작업은 SCORING_SCHEDULE (초 필드 포함 cron) 에 따라 실행되며,
최근 SCORING_LOOKBACK_DAYS 일을 다시 스코어링합니다.

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== FactorFlow Scheduler ===")

	sched, cfg, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	// 스케줄러 프로세스의 run 메트릭은 별도 포트로 노출
	if cfg.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Printf("metrics server: %v\n", err)
			}
		}()
		defer metricsServer.Close()
		fmt.Printf("Metrics on http://localhost:%s/metrics\n", cfg.MetricsPort)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, _, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	sched.Start()
	defer sched.Stop()

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, _, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	result, err := sched.RunJob(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	PrintKeyValue(os.Stdout, "Duration", fmt.Sprintf("%.2fs", result.Duration.Seconds()), 10)
	PrintKeyValue(os.Stdout, "Attempts", fmt.Sprintf("%d", result.Attempts), 10)
	if !result.Success {
		return fmt.Errorf("job %s failed: %s", jobName, result.Error)
	}

	fmt.Println("✅ Job completed")
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		st := stats[jobName]
		line := fmt.Sprintf("  - %s [%s]", jobName, st.Schedule)
		if st.NextRun != nil {
			line += fmt.Sprintf(" next: %s", st.NextRun.Format("2006-01-02 15:04:05"))
		}
		fmt.Println(line)
	}
}

// initScheduler wires one daily scoring job per configured market
func initScheduler() (*scheduler.Scheduler, *config.Config, func(), error) {
	cfg, log, err := setup(false)
	if err != nil {
		return nil, nil, nil, err
	}

	model, hash, err := loadModel(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	repo := ledger.NewRepository(db.Pool)
	extra, closeSinks, err := outputSinks(cfg, repo, log)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	cleanup := func() {
		closeSinks()
		db.Close()
	}

	orchestrator := brain.NewOrchestrator(model, dbSources(db), log,
		brain.WithSinks(append([]contracts.LedgerSink{repo}, extra...)...),
		brain.WithMetrics(metrics.New()),
		brain.WithWorkers(cfg.Scoring.Workers),
		brain.WithModelHash(hash),
	)

	sched := scheduler.New(log, scheduler.WithRetry(2, time.Minute))

	for _, market := range splitSymbols(cfg.Scoring.Market) {
		job := jobs.NewDailyScoringJob(orchestrator, market, cfg.Scoring.Schedule,
			cfg.Scoring.LookbackDays, cfg.Scoring.Workers, log)
		if err := sched.AddJob(job); err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("add job %s: %w", job.Name(), err)
		}
	}

	return sched, cfg, cleanup, nil
}
