package contracts

import "errors"

// ⭐ SSOT: 파이프라인 에러 분류

var (
	// ErrNoData means no price exists on or before the evaluation date.
	ErrNoData = errors.New("no price data on or before evaluation date")

	// ErrInsufficientHistory means fewer than the minimum as-of price points exist.
	ErrInsufficientHistory = errors.New("insufficient price history")

	// ErrStalePrice means the as-of bar is older than the configured staleness limit.
	ErrStalePrice = errors.New("as-of price is stale")

	// ErrThinCrossSection means a date has fewer valid securities than ranking needs.
	ErrThinCrossSection = errors.New("cross-section below minimum size")

	// ErrCalendarResolution aborts a run: no evaluation dates could be resolved.
	ErrCalendarResolution = errors.New("trading calendar resolution failed")

	// ErrNotFound is returned by readers when nothing matches the query.
	ErrNotFound = errors.New("not found")
)

// FailureReason maps a per-security error to a stable metric/ledger label
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrNoData):
		return "no_data"
	case errors.Is(err, ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, ErrStalePrice):
		return "stale_price"
	default:
		return "error"
	}
}
