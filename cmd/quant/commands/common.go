package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/factorflow/backend/internal/brain"
	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/internal/ledger"
	"github.com/wonny/factorflow/backend/internal/modelconfig"
	"github.com/wonny/factorflow/backend/internal/s0_data"
	"github.com/wonny/factorflow/backend/pkg/config"
	"github.com/wonny/factorflow/backend/pkg/database"
	"github.com/wonny/factorflow/backend/pkg/kafka"
	"github.com/wonny/factorflow/backend/pkg/logger"
	"github.com/wonny/factorflow/backend/pkg/redis"
)

// setup loads process config and the logger. Offline commands do not
// require DATABASE_URL.
func setup(offline bool) (*config.Config, *logger.Logger, error) {
	load := config.Load
	if offline {
		load = config.LoadOffline
	}

	cfg, err := load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// loadModel resolves the model config: --model, then MODEL_CONFIG_PATH,
// then the built-in defaults
func loadModel(cfg *config.Config, log *logger.Logger) (*modelconfig.Config, string, error) {
	path := modelPath
	if path == "" {
		path = cfg.Scoring.ModelConfigPath
	}

	model, err := modelconfig.LoadOrDefault(path)
	if err != nil {
		return nil, "", fmt.Errorf("load model config: %w", err)
	}
	hash, err := modelconfig.Hash(model)
	if err != nil {
		return nil, "", fmt.Errorf("hash model config: %w", err)
	}

	source := path
	if source == "" {
		source = "built-in"
	}
	log.WithFields(map[string]interface{}{
		"model":      model.Meta.ModelID,
		"version":    model.Meta.Version,
		"source":     source,
		"model_hash": hash,
	}).Info("Model config loaded")

	return model, hash, nil
}

// dbSources serves every input from Postgres
func dbSources(db *database.DB) brain.Sources {
	repo := s0_data.NewRepository(db.Pool)
	return brain.Sources{Universe: repo, Prices: repo, Fundamentals: repo, Calendar: repo}
}

// memorySources serves every input from an offline directory
func memorySources(src *s0_data.MemorySource) brain.Sources {
	return brain.Sources{Universe: src, Prices: src, Fundamentals: src, Calendar: src}
}

// outputSinks builds the configured sinks after the Postgres ledger:
// Redis write-through and Kafka. The returned func releases them.
func outputSinks(cfg *config.Config, reader contracts.ScoreReader, log *logger.Logger) ([]contracts.LedgerSink, func(), error) {
	var (
		sinks   []contracts.LedgerSink
		closers []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Redis.Enabled {
		client, err := redis.New(cfg)
		if err != nil {
			return nil, func() {}, err
		}
		closers = append(closers, func() { client.Close() })
		cache := redis.NewCache(client, redis.KeyPrefix)
		sinks = append(sinks, ledger.NewCachedReader(reader, cache, cfg.Redis.TTL, log))
	}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(
			kafka.WithBrokers(cfg.Kafka.Brokers),
			kafka.WithCompression(cfg.Kafka.Compression),
		)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("create kafka producer: %w", err)
		}
		closers = append(closers, func() { producer.Close() })
		sinks = append(sinks, ledger.NewKafkaSink(producer, cfg.Kafka.Topic))
	}

	return sinks, cleanup, nil
}

// parseDateFlag parses a YYYY-MM-DD flag value; empty yields def
func parseDateFlag(name, value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	d, err := contracts.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", name, value)
	}
	return d, nil
}

// splitSymbols parses a comma separated --symbols value
func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
