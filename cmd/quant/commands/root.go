package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	modelPath string
	verbose   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "FactorFlow - 일별 5팩터 스코어링 & 리밸런싱 신호 엔진",
	Long: `FactorFlow Unified CLI

매 거래일 종목별 5개 팩터(베타, 가치, 규모, 모멘텀, 변동성)를
횡단면 백분위로 랭킹하고 BUY/SELL/NEUTRAL 신호를 산출합니다.

S0 (데이터) → S2 (지표/팩터) → S3 (랭킹) → S4 (신호) → S5 (발행)

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant migrate
  go run ./cmd/quant score --start 2024-01-02 --end 2024-03-29
  go run ./cmd/quant score --input-dir ./testdata/us --csv factors.csv
  go run ./cmd/quant api
  go run ./cmd/quant scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "", "모델 설정 YAML (기본: MODEL_CONFIG_PATH 또는 내장 기본값)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
