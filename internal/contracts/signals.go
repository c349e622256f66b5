package contracts

import "time"

// Indicators are the technical indicators of one security as of one date
// ⭐ SSOT: S2 지표 계산 결과
type Indicators struct {
	AsOf  time.Time `json:"as_of"` // 평가일 이하 마지막 거래일
	Price float64   `json:"price"` // as-of adjusted close

	Momentum1M  float64 `json:"momentum_1m"`
	Momentum3M  float64 `json:"momentum_3m"`
	Momentum6M  float64 `json:"momentum_6m"`
	Momentum12M float64 `json:"momentum_12m"`
	Volatility  float64 `json:"volatility"` // 연율화 %, sample std

	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_hist"`
}

// RawFactors are the un-ranked factor inputs of one security on one date
// ⭐ SSOT: S2 → S3 원시 팩터 전달
type RawFactors struct {
	Beta         float64 `json:"beta"`
	PBR          float64 `json:"pbr"`
	MarketCapUSD float64 `json:"market_cap_usd"`
	Momentum12M  float64 `json:"momentum_12m"`
	Volatility   float64 `json:"volatility"`
}

// Extraction is one security's S2 output for one evaluation date
type Extraction struct {
	Security   Security   `json:"security"`
	Sector     string     `json:"sector"`
	Industry   string     `json:"industry"`
	Indicators Indicators `json:"indicators"`
	Raw        RawFactors `json:"raw"`
}
