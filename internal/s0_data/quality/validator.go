package quality

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/factorflow/backend/internal/contracts"
)

// SeriesReport describes what Sanitize changed in one price history
type SeriesReport struct {
	Symbol      string `json:"symbol"`
	Input       int    `json:"input"`
	Kept        int    `json:"kept"`
	Unordered   int    `json:"unordered"`    // 날짜 역전 개수
	Duplicates  int    `json:"duplicates"`   // 같은 날짜 중복 (마지막 값 유지)
	NonFinite   int    `json:"non_finite"`   // NaN/Inf adj close (제거)
	NonPositive int    `json:"non_positive"` // adj close <= 0 (유지, 수익률 계산에서 제외)
}

// Clean reports whether the input already satisfied the series invariant
func (r SeriesReport) Clean() bool {
	return r.Unordered == 0 && r.Duplicates == 0 && r.NonFinite == 0
}

// Sanitize enforces the PricePoint invariant on a history: dates strictly
// increasing with no duplicates. Upstream data may be partial or stale, so
// the input is never trusted; it is also never mutated.
// ⭐ SSOT: S0 가격 시계열 품질 게이트
func Sanitize(symbol string, in []contracts.PricePoint) ([]contracts.PricePoint, SeriesReport) {
	report := SeriesReport{Symbol: symbol, Input: len(in)}

	out := make([]contracts.PricePoint, 0, len(in))
	for i, p := range in {
		if i > 0 && p.Date.Before(in[i-1].Date) {
			report.Unordered++
		}
		if math.IsNaN(p.AdjClose) || math.IsInf(p.AdjClose, 0) {
			report.NonFinite++
			continue
		}
		if p.AdjClose <= 0 {
			report.NonPositive++
		}
		out = append(out, p)
	}

	if report.Unordered > 0 {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	}

	// 같은 날짜는 입력 순서상 마지막 값 유지
	dedup := out[:0]
	for _, p := range out {
		if n := len(dedup); n > 0 && sameDay(dedup[n-1].Date, p.Date) {
			dedup[n-1] = p
			report.Duplicates++
			continue
		}
		dedup = append(dedup, p)
	}

	report.Kept = len(dedup)
	return dedup, report
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
