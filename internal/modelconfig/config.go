package modelconfig

import "github.com/creasty/defaults"

// Config는 일별 5-팩터 모델의 전체 설정
// ⭐ SSOT: 모델 파라미터는 여기서만 정의 (런타임 전역 상태 금지)
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Indicators Indicators `yaml:"indicators" json:"indicators"`
	Factors    Factors    `yaml:"factors" json:"factors"`
	Ranking    Ranking    `yaml:"ranking" json:"ranking"`
	Signals    Signals    `yaml:"signals" json:"signals"`
}

// Meta 메타 정보
type Meta struct {
	ModelID string `yaml:"model_id" json:"model_id" default:"daily_5factor" validate:"required"`
	Version string `yaml:"version" json:"version" default:"1" validate:"required"`
}

// Indicators S2: 기술 지표 파라미터
type Indicators struct {
	MinHistory           int     `yaml:"min_history" json:"min_history" default:"30" validate:"gte=2"`
	VolatilityMinReturns int     `yaml:"volatility_min_returns" json:"volatility_min_returns" default:"30" validate:"gte=2"`
	AnnualizationDays    int     `yaml:"annualization_days" json:"annualization_days" default:"252" validate:"gte=1"`
	RSIPeriod            int     `yaml:"rsi_period" json:"rsi_period" default:"14" validate:"gte=2"`
	RSILossFloor         float64 `yaml:"rsi_loss_floor" json:"rsi_loss_floor" default:"0.001" validate:"gt=0"`
	RSINeutral           float64 `yaml:"rsi_neutral" json:"rsi_neutral" default:"50" validate:"gte=0,lte=100"`
	MACDFast             int     `yaml:"macd_fast" json:"macd_fast" default:"12" validate:"gte=1"`
	MACDSlow             int     `yaml:"macd_slow" json:"macd_slow" default:"26" validate:"gte=2"`
	MACDSignal           int     `yaml:"macd_signal" json:"macd_signal" default:"9" validate:"gte=1"`

	// as-of 바가 평가일보다 이 일수(달력일) 넘게 오래되면 제외, 0 = 제한 없음
	MaxStalenessDays int `yaml:"max_staleness_days" json:"max_staleness_days" default:"0" validate:"gte=0"`
}

// Factors S2: 펀더멘털 기본값 (결측 시 대체)
type Factors struct {
	BetaMin             float64            `yaml:"beta_min" json:"beta_min" default:"-2"`
	BetaMax             float64            `yaml:"beta_max" json:"beta_max" default:"4"`
	DefaultBeta         float64            `yaml:"default_beta" json:"default_beta" default:"1"`
	DefaultPBR          float64            `yaml:"default_pbr" json:"default_pbr" default:"1" validate:"gt=0"`
	DefaultMarketCapUSD float64            `yaml:"default_market_cap_usd" json:"default_market_cap_usd" default:"1e9" validate:"gt=0"`
	BetaTable           map[string]float64 `yaml:"beta_table" json:"beta_table"` // 종목별 fallback beta
}

// Ranking S3: 횡단면 랭킹
type Ranking struct {
	MinCrossSection int     `yaml:"min_cross_section" json:"min_cross_section" default:"5" validate:"gte=1"`
	Weights         Weights `yaml:"weights" json:"weights"`
}

// Weights 팩터 가중치 (합 = 1.0)
type Weights struct {
	Beta       float64 `yaml:"beta" json:"beta" default:"0.2" validate:"gte=0,lte=1"`
	Value      float64 `yaml:"value" json:"value" default:"0.2" validate:"gte=0,lte=1"`
	Size       float64 `yaml:"size" json:"size" default:"0.2" validate:"gte=0,lte=1"`
	Momentum   float64 `yaml:"momentum" json:"momentum" default:"0.2" validate:"gte=0,lte=1"`
	Volatility float64 `yaml:"volatility" json:"volatility" default:"0.2" validate:"gte=0,lte=1"`
}

// Sum returns the total weight
func (w Weights) Sum() float64 {
	return w.Beta + w.Value + w.Size + w.Momentum + w.Volatility
}

// Signals S4: 분류 임계값 (백분위 기준)
type Signals struct {
	BuyAbove    float64 `yaml:"buy_above" json:"buy_above" default:"0.7" validate:"gt=0,lt=1"`
	SellBelow   float64 `yaml:"sell_below" json:"sell_below" default:"0.3" validate:"gt=0,lt=1"`
	StrongAbove float64 `yaml:"strong_above" json:"strong_above" default:"0.9" validate:"gt=0,lt=1"`
	StrongBelow float64 `yaml:"strong_below" json:"strong_below" default:"0.1" validate:"gt=0,lt=1"`
}

// Default returns the production model: equal 0.20 weights, 0.7/0.3 signal
// bands, 0.9/0.1 strength bands and the built-in fallback beta table.
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		// struct tags are static; a failure here is a programming error
		panic(err)
	}
	cfg.Factors.BetaTable = DefaultBetaTable()
	return cfg
}

// DefaultBetaTable returns a fresh copy of the built-in fallback betas
func DefaultBetaTable() map[string]float64 {
	return map[string]float64{
		"005935.KS": 0.85, // 삼성전자우
		"051910.KS": 1.25, // LG화학
		"006400.KS": 1.30, // 삼성SDI
		"035720.KS": 1.35, // 카카오
		"028260.KS": 1.10, // 삼성물산
		"066570.KS": 1.15, // LG전자
		"032830.KS": 0.80, // 삼성생명
		"000810.KS": 0.75, // 삼성화재
		"009150.KS": 1.05, // 삼성전기
		"018260.KS": 0.95, // 삼성에스디에스
		"017670.KS": 0.90, // SK텔레콤
		"034730.KS": 1.00, // SK
		"003550.KS": 1.10, // LG
		"036570.KS": 1.40, // 엔씨소프트
		"015760.KS": 0.65, // 한국전력
		"259960.KS": 1.50, // 크래프톤
		"009540.KS": 1.20, // HD한국조선해양
		"005490.KS": 1.05, // POSCO홀딩스
		"055550.KS": 0.95, // 신한지주
		"323410.KS": 1.30, // 카카오뱅크
		"316140.KS": 0.85, // 우리금융지주
		"086790.KS": 0.90, // 하나금융지주
		"097950.KS": 1.10, // CJ제일제당
		"030200.KS": 0.75, // KT
		"003670.KS": 1.15, // 포스코퓨처엠
		"096770.KS": 1.25, // SK이노베이션
		"000100.KS": 0.80, // 유한양행
		"033780.KS": 0.85, // KT&G
		"138040.KS": 0.95, // 메리츠금융지주
		"139480.KS": 0.70, // 이마트
		"000020.KS": 0.83, // 동화약품
	}
}
