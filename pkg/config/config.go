package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Kafka (scored record publishing)
	Kafka KafkaConfig

	// Scoring run
	Scoring ScoringConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	TTL      time.Duration // score table cache TTL
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// KafkaConfig holds the scored record producer configuration
type KafkaConfig struct {
	Brokers     []string
	Topic       string
	Compression string
	Enabled     bool
}

// ScoringConfig holds defaults for a factor scoring run
type ScoringConfig struct {
	ModelConfigPath string // YAML model config (empty: built-in defaults)
	Market          string // KRX, NYSE
	Workers         int    // per-date extraction workers
	Schedule        string // cron expression (seconds field enabled)
	LookbackDays    int    // calendar days re-scored by the scheduled job
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	return load(true)
}

// LoadOffline reads configuration for runs that never touch the database
// (CSV input directories). DATABASE_URL is optional.
func LoadOffline() (*Config, error) {
	return load(false)
}

func load(requireDB bool) (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "factorflow"),
			User:            getEnv("DB_USER", "factorflow"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			TTL:      getEnvAsDuration("REDIS_SCORE_TTL", "24h"),
		},

		// Kafka
		Kafka: KafkaConfig{
			Brokers:     getEnvAsList("KAFKA_BROKERS"),
			Topic:       getEnv("KAFKA_TOPIC", "factor.scored_records"),
			Compression: getEnv("KAFKA_COMPRESSION", "gzip"),
			Enabled:     getEnvAsBool("KAFKA_ENABLED", false),
		},

		// Scoring
		Scoring: ScoringConfig{
			ModelConfigPath: getEnv("MODEL_CONFIG_PATH", ""),
			Market:          getEnv("SCORING_MARKET", "KRX"),
			Workers:         getEnvAsInt("SCORING_WORKERS", 8),
			Schedule:        getEnv("SCORING_SCHEDULE", "0 30 18 * * 1-5"),
			LookbackDays:    getEnvAsInt("SCORING_LOOKBACK_DAYS", 7),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	if err := cfg.validate(requireDB); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate(requireDB bool) error {
	if requireDB && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Scoring.Workers < 1 {
		return fmt.Errorf("SCORING_WORKERS must be >= 1")
	}

	if c.Scoring.LookbackDays < 1 {
		return fmt.Errorf("SCORING_LOOKBACK_DAYS must be >= 1")
	}

	if strings.TrimSpace(c.Scoring.Market) == "" {
		return fmt.Errorf("SCORING_MARKET must not be empty")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
	}

	if c.Redis.Enabled && c.Redis.TTL <= 0 {
		return fmt.Errorf("REDIS_SCORE_TTL must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAs parses key with parse; unset or unparsable values yield def
func getEnvAs[T any](key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func getEnvAsInt(key string, def int) int {
	return getEnvAs(key, def, strconv.Atoi)
}

func getEnvAsBool(key string, def bool) bool {
	return getEnvAs(key, def, strconv.ParseBool)
}

func getEnvAsDuration(key string, def string) time.Duration {
	d, _ := time.ParseDuration(def)
	return getEnvAs(key, d, time.ParseDuration)
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
