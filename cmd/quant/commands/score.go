package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/factorflow/backend/internal/brain"
	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/internal/ledger"
	"github.com/wonny/factorflow/backend/internal/s0_data"
	"github.com/wonny/factorflow/backend/pkg/database"
	"github.com/wonny/factorflow/backend/pkg/metrics"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "팩터 스코어링 실행",
	Long: `거래일 범위에 대해 팩터 스코어링 파이프라인을 실행합니다.

각 거래일마다:
- S2: 종목별 지표/팩터 계산 (병렬)
- S3: 횡단면 백분위 랭킹 (유효 종목 5개 미만이면 skip)
- S4: BUY/SELL/NEUTRAL 신호 분류
- S5: 날짜 단위 발행 (Postgres, Redis, Kafka, CSV)

입력:
  기본          Postgres (data.* 테이블)
  --input-dir   CSV 디렉터리 (securities.csv, prices.csv,
                fundamentals.csv, calendar.csv), DB 불필요

Example:
  go run ./cmd/quant score --start 2024-01-02 --end 2024-03-29
  go run ./cmd/quant score --market NYSE --symbols AAPL,MSFT,NVDA,AMZN,META
  go run ./cmd/quant score --input-dir ./testdata/us --csv factors.csv`,
	RunE: runScore,
}

var (
	scoreMarket    string
	scoreStart     string
	scoreEnd       string
	scoreInputDir  string
	scoreCSV       string
	scoreSymbols   string
	scoreWorkers   int
	scoreNoPersist bool
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&scoreMarket, "market", "", "시장 (기본: SCORING_MARKET)")
	scoreCmd.Flags().StringVar(&scoreStart, "start", "", "시작일 YYYY-MM-DD (기본: end - SCORING_LOOKBACK_DAYS)")
	scoreCmd.Flags().StringVar(&scoreEnd, "end", "", "종료일 YYYY-MM-DD (기본: 오늘)")
	scoreCmd.Flags().StringVar(&scoreInputDir, "input-dir", "", "CSV 입력 디렉터리 (오프라인 모드)")
	scoreCmd.Flags().StringVar(&scoreCSV, "csv", "", "결과 CSV 경로")
	scoreCmd.Flags().StringVar(&scoreSymbols, "symbols", "", "종목 제한 (쉼표 구분)")
	scoreCmd.Flags().IntVar(&scoreWorkers, "workers", 0, "날짜별 병렬 워커 수 (기본: SCORING_WORKERS)")
	scoreCmd.Flags().BoolVar(&scoreNoPersist, "no-persist", false, "DB/Redis/Kafka 발행 생략")
}

func runScore(cmd *cobra.Command, args []string) error {
	offline := scoreInputDir != ""

	cfg, log, err := setup(offline)
	if err != nil {
		return err
	}

	model, hash, err := loadModel(cfg, log)
	if err != nil {
		return err
	}

	end, err := parseDateFlag("end", scoreEnd, today())
	if err != nil {
		return err
	}
	start, err := parseDateFlag("start", scoreStart, end.AddDate(0, 0, -cfg.Scoring.LookbackDays))
	if err != nil {
		return err
	}

	workers := scoreWorkers
	if workers <= 0 {
		workers = cfg.Scoring.Workers
	}

	var (
		sources brain.Sources
		sinks   []contracts.LedgerSink
		source  string
	)

	memory := ledger.NewMemorySink()
	if scoreCSV != "" {
		sinks = append(sinks, memory)
	}

	market := scoreMarket
	if offline {
		src, err := s0_data.LoadDir(scoreInputDir)
		if err != nil {
			return fmt.Errorf("load input dir: %w", err)
		}
		sources = memorySources(src)
		source = scoreInputDir

		if market == "" {
			if markets := src.Markets(); len(markets) == 1 {
				market = markets[0]
			}
		}
	} else {
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		sources = dbSources(db)
		source = "postgres"

		if !scoreNoPersist {
			repo := ledger.NewRepository(db.Pool)
			extra, cleanup, err := outputSinks(cfg, repo, log)
			if err != nil {
				return err
			}
			defer cleanup()
			// Postgres 가 먼저 커밋된 뒤 캐시/스트림 발행
			sinks = append([]contracts.LedgerSink{repo}, append(sinks, extra...)...)
		}
	}
	if market == "" {
		market = cfg.Scoring.Market
	}

	runCfg := brain.RunConfig{
		Market:  market,
		Start:   start,
		End:     end,
		Symbols: splitSymbols(scoreSymbols),
		Workers: workers,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator := brain.NewOrchestrator(model, sources, log,
		brain.WithSinks(sinks...),
		brain.WithMetrics(metrics.New()),
		brain.WithWorkers(workers),
		brain.WithModelHash(hash),
	)

	PrintRunHeader(cmd.OutOrStdout(), "Factor Scoring Run", runCfg, source)

	result, runErr := orchestrator.Run(ctx, runCfg)
	if result != nil {
		PrintRunSummary(cmd.OutOrStdout(), result)
	}

	// 취소된 경우에도 완료된 날짜는 내보냄
	if scoreCSV != "" && result != nil {
		if err := ledger.WriteCSVFile(scoreCSV, memory.Records()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Saved %d records to %s\n", len(memory.Records()), scoreCSV)
	}

	return runErr
}
