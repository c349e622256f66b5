package s0_data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/factorflow/backend/internal/contracts"
)

// Input file names of an offline input directory
const (
	SecuritiesFile   = "securities.csv"   // symbol,name,market
	PricesFile       = "prices.csv"       // symbol,date,open,high,low,close,adj_close,volume
	FundamentalsFile = "fundamentals.csv" // symbol,beta,price_to_book,market_cap_usd,sector,industry
	CalendarFile     = "calendar.csv"     // market,date
)

// LoadDir reads an input directory into a MemorySource.
// securities.csv and prices.csv are required. Without calendar.csv every
// market falls back to WeekdayCalendar. Empty fundamental cells are missing
// values.
func LoadDir(dir string) (*MemorySource, error) {
	src := NewMemorySource()

	if err := readCSV(filepath.Join(dir, SecuritiesFile), 3, func(rec []string) error {
		src.AddSecurity(contracts.Security{Symbol: rec[0], Name: rec[1], Market: rec[2]})
		return nil
	}); err != nil {
		return nil, err
	}

	if err := readCSV(filepath.Join(dir, PricesFile), 8, func(rec []string) error {
		p, err := parsePrice(rec)
		if err != nil {
			return err
		}
		src.AppendPrice(rec[0], p)
		return nil
	}); err != nil {
		return nil, err
	}

	err := readCSV(filepath.Join(dir, FundamentalsFile), 6, func(rec []string) error {
		snap, err := parseFundamentals(rec)
		if err != nil {
			return err
		}
		src.SetFundamentals(rec[0], snap)
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	calendars := make(map[string][]time.Time)
	err = readCSV(filepath.Join(dir, CalendarFile), 2, func(rec []string) error {
		d, err := contracts.ParseDate(rec[1])
		if err != nil {
			return err
		}
		calendars[rec[0]] = append(calendars[rec[0]], d)
		return nil
	})
	switch {
	case errors.Is(err, fs.ErrNotExist):
		src.Fallback = WeekdayCalendar{}
	case err != nil:
		return nil, err
	}
	for market, dates := range calendars {
		src.SetCalendar(market, dates)
	}

	return src, nil
}

// readCSV streams the data rows of a headered CSV file into fn
func readCSV(path string, fields int, fn func([]string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = fields
	r.TrimLeadingSpace = true

	if _, err := r.Read(); err != nil {
		return fmt.Errorf("%s: read header: %w", filepath.Base(path), err)
	}

	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if err := fn(rec); err != nil {
			return fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
	}
}

func parsePrice(rec []string) (contracts.PricePoint, error) {
	var p contracts.PricePoint

	d, err := contracts.ParseDate(rec[1])
	if err != nil {
		return p, err
	}
	p.Date = d

	vals := make([]float64, 5)
	for i := range vals {
		if vals[i], err = strconv.ParseFloat(strings.TrimSpace(rec[2+i]), 64); err != nil {
			return p, fmt.Errorf("column %d: %w", 3+i, err)
		}
	}
	p.Open, p.High, p.Low, p.Close, p.AdjClose = vals[0], vals[1], vals[2], vals[3], vals[4]

	if p.Volume, err = strconv.ParseInt(strings.TrimSpace(rec[7]), 10, 64); err != nil {
		return p, fmt.Errorf("volume: %w", err)
	}
	return p, nil
}

func parseFundamentals(rec []string) (*contracts.FundamentalSnapshot, error) {
	snap := &contracts.FundamentalSnapshot{Sector: rec[4], Industry: rec[5]}

	targets := []**float64{&snap.Beta, &snap.PriceToBook, &snap.MarketCapUSD}
	for i, target := range targets {
		cell := strings.TrimSpace(rec[1+i])
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", 2+i, err)
		}
		*target = contracts.Float(v)
	}
	return snap, nil
}
