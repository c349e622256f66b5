package s0_data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/factorflow/backend/internal/contracts"
)

// GetPriceHistory retrieves the full daily history of a symbol, oldest first
func (r *Repository) GetPriceHistory(ctx context.Context, symbol string) ([]contracts.PricePoint, error) {
	query := `
		SELECT trade_date, open_price, high_price, low_price, close_price, adj_close, volume
		FROM data.daily_prices
		WHERE symbol = $1
		ORDER BY trade_date ASC
	`

	rows, err := r.db.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query prices %s: %w", symbol, err)
	}
	defer rows.Close()

	var prices []contracts.PricePoint
	for rows.Next() {
		var p contracts.PricePoint
		if err := rows.Scan(&p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.AdjClose, &p.Volume); err != nil {
			return nil, fmt.Errorf("scan price %s: %w", symbol, err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// SavePrices upserts daily bars of a symbol in one batch
func (r *Repository) SavePrices(ctx context.Context, symbol string, prices []contracts.PricePoint) error {
	if len(prices) == 0 {
		return nil
	}

	query := `
		INSERT INTO data.daily_prices (symbol, trade_date, open_price, high_price, low_price, close_price, adj_close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			adj_close = EXCLUDED.adj_close,
			volume = EXCLUDED.volume
	`

	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(query, symbol, p.Date, p.Open, p.High, p.Low, p.Close, p.AdjClose, p.Volume)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for range prices {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save prices %s: %w", symbol, err)
		}
	}
	return nil
}
