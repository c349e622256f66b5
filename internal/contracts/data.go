package contracts

import "time"

// DateLayout is the canonical evaluation date format (ledger keys, CSV, API)
const DateLayout = "2006-01-02"

// PricePoint is one daily bar of a security
// ⭐ SSOT: S0 → S2 가격 데이터 전달 (날짜 오름차순, 중복 없음)
type PricePoint struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// FundamentalSnapshot holds slowly-changing side inputs of a security.
// Nil fields are missing values and fall back to model defaults.
type FundamentalSnapshot struct {
	Beta         *float64 `json:"beta,omitempty"`
	PriceToBook  *float64 `json:"price_to_book,omitempty"`
	MarketCapUSD *float64 `json:"market_cap_usd,omitempty"` // 통화 환산은 upstream 책임
	Sector       string   `json:"sector,omitempty"`
	Industry     string   `json:"industry,omitempty"`
}

// Security is one member of a market's universe
type Security struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Market string `json:"market"`
}

// Float returns a pointer to v (snapshot construction helper)
func Float(v float64) *float64 {
	return &v
}

// FormatDate formats an evaluation date with DateLayout
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a DateLayout string as a UTC date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
