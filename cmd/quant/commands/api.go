package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/wonny/factorflow/backend/internal/api"
	"github.com/wonny/factorflow/backend/internal/api/handlers"
	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/internal/ledger"
	"github.com/wonny/factorflow/backend/pkg/database"
	"github.com/wonny/factorflow/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:     "api",
	Aliases: []string{"serve"},
	Short:   "스코어 조회 API 서버 시작",
	Long: `발행된 스코어 원장을 조회하는 REST API 서버를 시작합니다.

Endpoints:
  GET  /health                              - Health check
  GET  /metrics                             - Prometheus (METRICS_ENABLED)
  GET  /api/scores/latest                   - 최신 평가일 스코어
  GET  /api/scores/{date}?signal=BUY        - 평가일 스코어
  GET  /api/scores/{date}/rebalance         - 리밸런싱 대상 (우선순위 순)
  GET  /api/securities/{symbol}/scores      - 종목 스코어 이력 (?from=&to=)

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== FactorFlow API Server ===")

	cfg, log, err := setup(false)
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	var reader contracts.ScoreReader = ledger.NewRepository(db.Pool)
	if cfg.Redis.Enabled {
		client, err := redis.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer client.Close()
		reader = ledger.NewCachedReader(reader, redis.NewCache(client, redis.KeyPrefix), cfg.Redis.TTL, log)
		log.Info("Score cache enabled")
	}

	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metricsHandler = promhttp.Handler()
	}

	scoreHandler := handlers.NewScoreHandler(reader, log)
	router := api.NewRouter(scoreHandler, metricsHandler, log)
	server := api.New(cfg, log, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Server running on http://localhost%s\n", server.Addr())
	fmt.Println("\nPress Ctrl+C to stop")

	// Ctrl+C 시 진행 중 요청을 마친 뒤 종료
	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
