package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/internal/ledger"
	"github.com/wonny/factorflow/backend/pkg/database"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "발행된 스코어를 CSV 로 내보내기",
	Long: `factor.scored_records 의 평가일 범위를 CSV 로 내보냅니다.
행은 (평가일, 종목) 순으로 정렬됩니다.

Example:
  go run ./cmd/quant export --from 2024-01-02 --to 2024-03-29 --out factors.csv`,
	RunE: runExport,
}

var (
	exportFrom string
	exportTo   string
	exportOut  string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFrom, "from", "", "시작일 YYYY-MM-DD (기본: to - 30일)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "종료일 YYYY-MM-DD (기본: 오늘)")
	exportCmd.Flags().StringVar(&exportOut, "out", "factors.csv", "출력 CSV 경로")
}

func runExport(cmd *cobra.Command, args []string) error {
	to, err := parseDateFlag("to", exportTo, today())
	if err != nil {
		return err
	}
	from, err := parseDateFlag("from", exportFrom, to.AddDate(0, 0, -30))
	if err != nil {
		return err
	}
	if from.After(to) {
		return fmt.Errorf("--from must not be after --to")
	}

	cfg, log, err := setup(false)
	if err != nil {
		return err
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	records, err := ledger.NewRepository(db.Pool).GetRange(ctx, from, to)
	if err != nil {
		return err
	}
	if err := ledger.WriteCSVFile(exportOut, records); err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"from":    contracts.FormatDate(from),
		"to":      contracts.FormatDate(to),
		"records": len(records),
	}).Info("Scores exported")
	fmt.Printf("✅ Exported %d records to %s\n", len(records), exportOut)
	return nil
}
