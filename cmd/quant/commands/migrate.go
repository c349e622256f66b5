package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/factorflow/backend/pkg/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "DB 스키마 적용",
	Long: `내장된 마이그레이션 파일을 순서대로 적용합니다.

적용된 파일은 public.schema_migrations 에 기록되어 다시 실행되지 않습니다.

Example:
  go run ./cmd/quant migrate
  go run ./cmd/quant migrate --dry-run`,
	RunE: runMigrate,
}

var (
	migrateDryRun bool
)

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "적용할 파일 목록만 출력")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if migrateDryRun {
		names, err := database.MigrationNames()
		if err != nil {
			return err
		}
		fmt.Println("Migrations:")
		PrintList(cmd.OutOrStdout(), names)
		return nil
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

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	applied, err := db.Migrate(ctx)
	if err != nil {
		return err
	}

	log.WithField("count", len(applied)).Info("Migrations applied")
	if len(applied) == 0 {
		fmt.Println("✅ Schema up to date")
		return nil
	}
	fmt.Println("✅ Migrations applied")
	PrintList(cmd.OutOrStdout(), applied)
	return nil
}
