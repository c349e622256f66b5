package s0_data

import (
	"context"
	"fmt"
	"time"
)

// GetTradingCalendar retrieves the trading dates of market within [start, end]
func (r *Repository) GetTradingCalendar(ctx context.Context, market string, start, end time.Time) ([]time.Time, error) {
	query := `
		SELECT trade_date
		FROM data.trading_calendar
		WHERE market = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.db.Query(ctx, query, market, start, end)
	if err != nil {
		return nil, fmt.Errorf("query calendar %s: %w", market, err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan calendar %s: %w", market, err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// WeekdayCalendar is a CalendarSource that treats every Monday to Friday as
// a trading day. Holidays are not known; securities without a bar on such a
// day resolve to their previous close.
type WeekdayCalendar struct{}

// GetTradingCalendar lists weekdays within [start, end]
func (WeekdayCalendar) GetTradingCalendar(_ context.Context, _ string, start, end time.Time) ([]time.Time, error) {
	start = truncateDay(start)
	end = truncateDay(end)

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, d)
		}
	}
	return dates, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SaveCalendar inserts trading dates of market, ignoring existing ones
func (r *Repository) SaveCalendar(ctx context.Context, market string, dates []time.Time) error {
	for _, d := range dates {
		_, err := r.db.Exec(ctx,
			`INSERT INTO data.trading_calendar (market, trade_date) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			market, d,
		)
		if err != nil {
			return fmt.Errorf("save calendar %s: %w", market, err)
		}
	}
	return nil
}
