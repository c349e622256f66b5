package contracts

import "time"

// Signal is the trade direction derived from a composite percentile
type Signal string

const (
	SignalBuy     Signal = "BUY"
	SignalSell    Signal = "SELL"
	SignalNeutral Signal = "NEUTRAL"
)

// Strength grades how extreme a composite percentile is
type Strength string

const (
	StrengthMedium Strength = "MEDIUM"
	StrengthStrong Strength = "STRONG"
)

// FactorRecord holds the five percentile-ranked factors of one security
// on one date. Every value lies in (0,1] and 1.0 is always best.
// ⭐ SSOT: S3 횡단면 랭킹 결과
type FactorRecord struct {
	Beta       float64 `json:"beta_factor"`
	Value      float64 `json:"value_factor"`
	Size       float64 `json:"size_factor"`
	Momentum   float64 `json:"momentum_factor"`
	Volatility float64 `json:"volatility_factor"`
}

// ScoredRecord is one (security, evaluation date) row of the output ledger
// ⭐ SSOT: S4 → S5 발행 단위
type ScoredRecord struct {
	Symbol   string    `json:"symbol"`
	Name     string    `json:"name"`
	Date     time.Time `json:"date"`
	Sector   string    `json:"sector"`
	Industry string    `json:"industry"`

	Indicators Indicators   `json:"indicators"`
	Raw        RawFactors   `json:"raw"`
	Factors    FactorRecord `json:"factors"`

	WeightedScore     float64  `json:"weighted_score"`
	FactorPercentile  float64  `json:"factor_percentile"`
	Signal            Signal   `json:"smart_signal"`
	Strength          Strength `json:"signal_strength"`
	RebalancePriority float64  `json:"rebalance_priority"` // 1 = 최상위, 동률은 평균 순위
	ToRebalance       int      `json:"to_rebalance"`
}

// Key returns the ledger key of the record
func (r *ScoredRecord) Key() string {
	return r.Symbol + "|" + FormatDate(r.Date)
}

// SecurityFailure records a security excluded from one date's cross-section
type SecurityFailure struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date,omitempty"` // zero: 로딩 단계 실패 (전 기간 제외)
	Stage  Stage     `json:"stage"`
	Reason string    `json:"reason"`
}

// SkippedDate records an evaluation date that produced no records
type SkippedDate struct {
	Date       time.Time `json:"date"`
	ValidCount int       `json:"valid_count"`
	Reason     string    `json:"reason"`
}

// DateBatch is the all-or-nothing publication unit of one evaluation date
type DateBatch struct {
	RunID     string          `json:"run_id"`
	ModelHash string          `json:"model_hash"`
	Date      time.Time       `json:"date"`
	Records   []*ScoredRecord `json:"records"` // Symbol 오름차순
}
