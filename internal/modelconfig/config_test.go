package modelconfig

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "daily_5factor", cfg.Meta.ModelID)
	assert.Equal(t, 30, cfg.Indicators.MinHistory)
	assert.Zero(t, cfg.Indicators.MaxStalenessDays)
	assert.Equal(t, 14, cfg.Indicators.RSIPeriod)
	assert.Equal(t, 0.001, cfg.Indicators.RSILossFloor)
	assert.Equal(t, -2.0, cfg.Factors.BetaMin)
	assert.Equal(t, 4.0, cfg.Factors.BetaMax)
	assert.Equal(t, 1e9, cfg.Factors.DefaultMarketCapUSD)
	assert.Equal(t, 5, cfg.Ranking.MinCrossSection)
	assert.InDelta(t, 1.0, cfg.Ranking.Weights.Sum(), 1e-9)
	assert.Equal(t, 0.7, cfg.Signals.BuyAbove)
	assert.Equal(t, 0.1, cfg.Signals.StrongBelow)
	assert.Len(t, cfg.Factors.BetaTable, 31)
	assert.Equal(t, 0.85, cfg.Factors.BetaTable["005935.KS"])

	// 복사본이어야 함
	cfg.Factors.BetaTable["005935.KS"] = 9
	assert.Equal(t, 0.85, Default().Factors.BetaTable["005935.KS"])
}

func TestLoad(t *testing.T) {
	path := "../../config/model/daily_5factor.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("model config file not found")
	}

	cfg, yamlData, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, yamlData)

	// 파일과 내장 기본값은 동일 모델
	fileHash, err := Hash(cfg)
	require.NoError(t, err)
	defHash, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, defHash, fileHash)
	assert.Len(t, fileHash, 64)
}

func TestParse_PartialOverride(t *testing.T) {
	cfg, err := Parse([]byte(`
ranking:
  weights:
    beta: 0
    value: 0.25
    size: 0.25
    momentum: 0.25
    volatility: 0.25
`))
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.Ranking.Weights.Beta)
	assert.Equal(t, 5, cfg.Ranking.MinCrossSection)
	assert.Len(t, cfg.Factors.BetaTable, 31)
}

func TestParse_BetaTableReplaced(t *testing.T) {
	cfg, err := Parse([]byte(`
factors:
  beta_table:
    "AAPL": 1.2
`))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"AAPL": 1.2}, cfg.Factors.BetaTable)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("ranking:\n  wieghts: {}\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"weights sum", func(c *Config) { c.Ranking.Weights.Beta = 0.3 }, "ranking.weights"},
		{"sell above buy", func(c *Config) { c.Signals.SellBelow = 0.8 }, "signals"},
		{"strong below above sell", func(c *Config) { c.Signals.StrongBelow = 0.35 }, "signals"},
		{"strong above below buy", func(c *Config) { c.Signals.StrongAbove = 0.6 }, "signals"},
		{"beta bounds", func(c *Config) { c.Factors.BetaMin = 5 }, "factors.beta_min"},
		{"default beta outside clamp", func(c *Config) { c.Factors.DefaultBeta = 10 }, "factors.default_beta"},
		{"macd spans", func(c *Config) { c.Indicators.MACDFast = 30 }, "indicators.macd_fast"},
		{"min cross section", func(c *Config) { c.Ranking.MinCrossSection = 0 }, "Config.Ranking.MinCrossSection"},
		{"threshold range", func(c *Config) { c.Signals.BuyAbove = 1.5 }, "Config.Signals.BuyAbove"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var ve ValidationError
			require.True(t, errors.As(err, &ve), "got %T", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestHash_Deterministic(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	b, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	cfg := Default()
	cfg.Signals.BuyAbove = 0.75
	c, err := Hash(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "daily_5factor", cfg.Meta.ModelID)

	_, err = LoadOrDefault("does-not-exist.yaml")
	assert.Error(t, err)
}
