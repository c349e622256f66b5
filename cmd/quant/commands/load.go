package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/factorflow/backend/internal/s0_data"
	"github.com/wonny/factorflow/backend/pkg/database"
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "CSV 입력 디렉터리를 DB 에 적재",
	Long: `CSV 입력 디렉터리 (securities.csv, prices.csv, fundamentals.csv,
calendar.csv) 를 data.* 테이블에 적재합니다.

종목/펀더멘털은 upsert, 가격은 (symbol, date) 기준 upsert 입니다.
calendar.csv 에 없는 시장은 거래일 캘린더를 적재하지 않습니다.

Example:
  go run ./cmd/quant load --input-dir ./testdata/us`,
	RunE: runLoad,
}

var (
	loadInputDir string
)

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVar(&loadInputDir, "input-dir", "", "CSV 입력 디렉터리")
	_ = loadCmd.MarkFlagRequired("input-dir")
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(false)
	if err != nil {
		return err
	}

	src, err := s0_data.LoadDir(loadInputDir)
	if err != nil {
		return fmt.Errorf("load input dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := s0_data.NewRepository(db.Pool)

	var securities, bars int
	for _, market := range src.Markets() {
		universe, err := src.GetUniverse(ctx, market)
		if err != nil {
			return err
		}

		for _, sec := range universe {
			if err := repo.SaveSecurity(ctx, sec); err != nil {
				return err
			}

			prices, err := src.GetPriceHistory(ctx, sec.Symbol)
			if err != nil {
				return err
			}
			if err := repo.SavePrices(ctx, sec.Symbol, prices); err != nil {
				return err
			}

			snap, err := src.GetFundamentals(ctx, sec.Symbol)
			if err != nil {
				return err
			}
			if snap != nil {
				if err := repo.SaveFundamentals(ctx, sec.Symbol, snap); err != nil {
					return err
				}
			}

			securities++
			bars += len(prices)
		}

		if dates, ok := src.Calendar(market); ok {
			if err := repo.SaveCalendar(ctx, market, dates); err != nil {
				return err
			}
		}

		log.WithFields(map[string]interface{}{
			"market":     market,
			"securities": len(universe),
		}).Info("Market loaded")
	}

	fmt.Printf("✅ Loaded %d securities, %d price bars from %s\n", securities, bars, loadInputDir)
	return nil
}
