package s2_signals

import (
	"sort"
	"time"

	"github.com/wonny/factorflow/backend/internal/contracts"
)

// AsOfIndex returns the index of the last bar dated on or before date.
// prices must be ascending; ok is false when every bar is after date.
func AsOfIndex(prices []contracts.PricePoint, date time.Time) (int, bool) {
	// 첫 번째로 date 이후인 위치
	i := sort.Search(len(prices), func(i int) bool {
		return prices[i].Date.After(date)
	})
	if i == 0 {
		return 0, false
	}
	return i - 1, true
}

// AddMonths shifts t by n calendar months, clamping the day to the last day
// of the target month (Mar 31 - 1M = Feb 29 in a leap year).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
