package s0_data

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/factorflow/backend/internal/contracts"
)

// GetFundamentals retrieves the latest snapshot of a symbol.
// A symbol without a row returns (nil, nil); defaults apply downstream.
func (r *Repository) GetFundamentals(ctx context.Context, symbol string) (*contracts.FundamentalSnapshot, error) {
	query := `
		SELECT beta, price_to_book, market_cap_usd, sector, industry
		FROM data.fundamentals
		WHERE symbol = $1
	`

	var (
		snap             contracts.FundamentalSnapshot
		sector, industry *string
	)
	err := r.db.QueryRow(ctx, query, symbol).Scan(
		&snap.Beta, &snap.PriceToBook, &snap.MarketCapUSD, &sector, &industry,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query fundamentals %s: %w", symbol, err)
	}

	if sector != nil {
		snap.Sector = *sector
	}
	if industry != nil {
		snap.Industry = *industry
	}
	return &snap, nil
}

// SaveFundamentals upserts the snapshot of a symbol
func (r *Repository) SaveFundamentals(ctx context.Context, symbol string, snap *contracts.FundamentalSnapshot) error {
	query := `
		INSERT INTO data.fundamentals (symbol, beta, price_to_book, market_cap_usd, sector, industry, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NOW())
		ON CONFLICT (symbol) DO UPDATE SET
			beta = EXCLUDED.beta,
			price_to_book = EXCLUDED.price_to_book,
			market_cap_usd = EXCLUDED.market_cap_usd,
			sector = EXCLUDED.sector,
			industry = EXCLUDED.industry,
			updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query,
		symbol, snap.Beta, snap.PriceToBook, snap.MarketCapUSD, snap.Sector, snap.Industry,
	)
	if err != nil {
		return fmt.Errorf("save fundamentals %s: %w", symbol, err)
	}
	return nil
}
