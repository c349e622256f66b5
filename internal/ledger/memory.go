package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wonny/factorflow/backend/internal/contracts"
)

// MemorySink is an in-process ledger. Offline runs publish into it before
// export, and it backs the read API when no database is configured.
type MemorySink struct {
	mu      sync.RWMutex
	dates   map[string][]*contracts.ScoredRecord
	skipped map[string]contracts.SkippedDate
}

// NewMemorySink creates an empty in-memory ledger
func NewMemorySink() *MemorySink {
	return &MemorySink{
		dates:   make(map[string][]*contracts.ScoredRecord),
		skipped: make(map[string]contracts.SkippedDate),
	}
}

// Name implements contracts.LedgerSink
func (m *MemorySink) Name() string {
	return "memory"
}

// PublishDate implements contracts.LedgerSink. It replaces the whole date.
func (m *MemorySink) PublishDate(_ context.Context, batch *contracts.DateBatch) error {
	key := contracts.FormatDate(batch.Date)
	records := append([]*contracts.ScoredRecord(nil), batch.Records...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dates[key] = records
	delete(m.skipped, key)
	return nil
}

// RecordSkip implements contracts.SkipRecorder
func (m *MemorySink) RecordSkip(_ context.Context, _ string, skip contracts.SkippedDate) error {
	key := contracts.FormatDate(skip.Date)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.dates, key)
	m.skipped[key] = skip
	return nil
}

// GetByDate implements contracts.ScoreReader
func (m *MemorySink) GetByDate(_ context.Context, date time.Time) ([]*contracts.ScoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*contracts.ScoredRecord(nil), m.dates[contracts.FormatDate(date)]...), nil
}

// GetBySymbol implements contracts.ScoreReader
func (m *MemorySink) GetBySymbol(_ context.Context, symbol string, from, to time.Time) ([]*contracts.ScoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*contracts.ScoredRecord
	for _, records := range m.dates {
		for _, r := range records {
			if r.Symbol == symbol && !r.Date.Before(from) && !r.Date.After(to) {
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// LatestDate implements contracts.ScoreReader
func (m *MemorySink) LatestDate(_ context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest time.Time
	for _, records := range m.dates {
		if len(records) > 0 && records[0].Date.After(latest) {
			latest = records[0].Date
		}
	}
	if latest.IsZero() {
		return time.Time{}, contracts.ErrNotFound
	}
	return latest, nil
}

// Records returns every stored record sorted by (Date, Symbol)
func (m *MemorySink) Records() []*contracts.ScoredRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*contracts.ScoredRecord
	for _, records := range m.dates {
		out = append(out, records...)
	}
	SortRecords(out)
	return out
}

// Skipped returns the skipped dates in date order
func (m *MemorySink) Skipped() []contracts.SkippedDate {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]contracts.SkippedDate, 0, len(m.skipped))
	for _, s := range m.skipped {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// SortRecords orders records by (Date, Symbol), the ledger's canonical order
func SortRecords(records []*contracts.ScoredRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].Symbol < records[j].Symbol
	})
}
