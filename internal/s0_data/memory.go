package s0_data

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/factorflow/backend/internal/contracts"
)

// MemorySource serves scoring inputs from memory. It backs offline runs
// over CSV input directories and the pipeline tests.
type MemorySource struct {
	mu           sync.RWMutex
	securities   map[string][]contracts.Security // key: market
	prices       map[string][]contracts.PricePoint
	fundamentals map[string]*contracts.FundamentalSnapshot
	calendars    map[string][]time.Time

	// Fallback serves markets without an explicit calendar (nil: error)
	Fallback contracts.CalendarSource
}

// NewMemorySource creates an empty source
func NewMemorySource() *MemorySource {
	return &MemorySource{
		securities:   make(map[string][]contracts.Security),
		prices:       make(map[string][]contracts.PricePoint),
		fundamentals: make(map[string]*contracts.FundamentalSnapshot),
		calendars:    make(map[string][]time.Time),
	}
}

// AddSecurity registers a universe member
func (m *MemorySource) AddSecurity(s contracts.Security) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.securities[s.Market] = append(m.securities[s.Market], s)
}

// SetPrices replaces the history of symbol
func (m *MemorySource) SetPrices(symbol string, prices []contracts.PricePoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[symbol] = prices
}

// AppendPrice adds one bar to the history of symbol
func (m *MemorySource) AppendPrice(symbol string, p contracts.PricePoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[symbol] = append(m.prices[symbol], p)
}

// SetFundamentals replaces the snapshot of symbol
func (m *MemorySource) SetFundamentals(symbol string, snap *contracts.FundamentalSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fundamentals[symbol] = snap
}

// SetCalendar replaces the trading dates of market
func (m *MemorySource) SetCalendar(market string, dates []time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := append([]time.Time(nil), dates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	m.calendars[market] = sorted
}

// Calendar returns the explicit trading dates of market, if any
func (m *MemorySource) Calendar(market string) ([]time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dates, ok := m.calendars[market]
	return append([]time.Time(nil), dates...), ok
}

// Markets lists markets with registered securities
func (m *MemorySource) Markets() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	markets := make([]string, 0, len(m.securities))
	for k := range m.securities {
		markets = append(markets, k)
	}
	sort.Strings(markets)
	return markets
}

// GetUniverse implements contracts.UniverseSource
func (m *MemorySource) GetUniverse(_ context.Context, market string) ([]contracts.Security, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]contracts.Security(nil), m.securities[market]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// GetPriceHistory implements contracts.PriceSource
func (m *MemorySource) GetPriceHistory(_ context.Context, symbol string) ([]contracts.PricePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]contracts.PricePoint(nil), m.prices[symbol]...), nil
}

// GetFundamentals implements contracts.FundamentalSource
func (m *MemorySource) GetFundamentals(_ context.Context, symbol string) (*contracts.FundamentalSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.fundamentals[symbol]
	if !ok || snap == nil {
		return nil, nil
	}
	cp := *snap
	return &cp, nil
}

// GetTradingCalendar implements contracts.CalendarSource
func (m *MemorySource) GetTradingCalendar(ctx context.Context, market string, start, end time.Time) ([]time.Time, error) {
	m.mu.RLock()
	dates, ok := m.calendars[market]
	m.mu.RUnlock()

	if !ok {
		if m.Fallback != nil {
			return m.Fallback.GetTradingCalendar(ctx, market, start, end)
		}
		return nil, fmt.Errorf("no trading calendar for market %s", market)
	}

	var out []time.Time
	for _, d := range dates {
		if !d.Before(start) && !d.After(end) {
			out = append(out, d)
		}
	}
	return out, nil
}
