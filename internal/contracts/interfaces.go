package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: 외부 협력자 인터페이스 정의는 여기서만

// PriceSource supplies a security's ordered daily history
type PriceSource interface {
	GetPriceHistory(ctx context.Context, symbol string) ([]PricePoint, error)
}

// FundamentalSource supplies a security's point-in-time fundamentals.
// A missing snapshot is (nil, nil).
type FundamentalSource interface {
	GetFundamentals(ctx context.Context, symbol string) (*FundamentalSnapshot, error)
}

// CalendarSource supplies the ordered trading dates of a market
type CalendarSource interface {
	GetTradingCalendar(ctx context.Context, market string, start, end time.Time) ([]time.Time, error)
}

// UniverseSource lists the securities of a market
type UniverseSource interface {
	GetUniverse(ctx context.Context, market string) ([]Security, error)
}

// LedgerSink receives each completed evaluation date exactly once per run
type LedgerSink interface {
	Name() string
	PublishDate(ctx context.Context, batch *DateBatch) error
}

// SkipRecorder is implemented by sinks that also persist skipped dates
type SkipRecorder interface {
	RecordSkip(ctx context.Context, runID string, skip SkippedDate) error
}

// ScoreReader reads published records back out of the ledger
type ScoreReader interface {
	GetByDate(ctx context.Context, date time.Time) ([]*ScoredRecord, error)
	GetBySymbol(ctx context.Context, symbol string, from, to time.Time) ([]*ScoredRecord, error)
	LatestDate(ctx context.Context) (time.Time, error)
}
