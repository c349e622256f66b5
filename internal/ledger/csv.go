package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/wonny/factorflow/backend/internal/contracts"
)

// Columns is the fixed column order of the tabular export
var Columns = []string{
	"Symbol", "Name", "Date", "Beta", "PBR", "MarketCap",
	"Momentum1M", "Momentum3M", "Momentum6M", "Momentum12M",
	"Volatility", "RSI", "MACD", "Signal", "MACD_Hist",
	"Sector", "Industry",
	"Beta_Factor", "Value_Factor", "Size_Factor", "Momentum_Factor", "Volatility_Factor",
	"weighted_score", "factor_percentile", "smart_signal", "signal_strength",
	"rebalance_priority", "to_rebalance",
}

// WriteCSV writes records in (Date, Symbol) order with a header row.
// Raw indicator and fundamental columns are rounded to 2 decimals and
// MarketCap is in billions of USD. Ranked columns keep full precision.
// ⭐ SSOT: CSV 내보내기 포맷
func WriteCSV(w io.Writer, records []*contracts.ScoredRecord) error {
	sorted := append([]*contracts.ScoredRecord(nil), records...)
	SortRecords(sorted)

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range sorted {
		if err := cw.Write(csvRow(r)); err != nil {
			return fmt.Errorf("write %s: %w", r.Key(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes records to path, replacing any existing file
func WriteCSVFile(path string, records []*contracts.ScoredRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func csvRow(r *contracts.ScoredRecord) []string {
	ind := r.Indicators
	return []string{
		r.Symbol,
		r.Name,
		contracts.FormatDate(r.Date),
		round2(r.Raw.Beta),
		round2(r.Raw.PBR),
		round2(r.Raw.MarketCapUSD / 1e9),
		round2(ind.Momentum1M),
		round2(ind.Momentum3M),
		round2(ind.Momentum6M),
		round2(ind.Momentum12M),
		round2(ind.Volatility),
		round2(ind.RSI),
		round2(ind.MACD),
		round2(ind.MACDSignal),
		round2(ind.MACDHist),
		r.Sector,
		r.Industry,
		formatFloat(r.Factors.Beta),
		formatFloat(r.Factors.Value),
		formatFloat(r.Factors.Size),
		formatFloat(r.Factors.Momentum),
		formatFloat(r.Factors.Volatility),
		formatFloat(r.WeightedScore),
		formatFloat(r.FactorPercentile),
		string(r.Signal),
		string(r.Strength),
		formatFloat(r.RebalancePriority),
		strconv.Itoa(r.ToRebalance),
	}
}

func round2(v float64) string {
	return formatFloat(math.Round(v*100) / 100)
}

// formatFloat uses the shortest representation that round-trips
func formatFloat(v float64) string {
	if v == 0 {
		v = 0 // -0 → 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
