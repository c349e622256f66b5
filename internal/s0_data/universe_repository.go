package s0_data

import (
	"context"
	"fmt"

	"github.com/wonny/factorflow/backend/internal/contracts"
)

// GetUniverse retrieves the active securities of market, ordered by symbol
func (r *Repository) GetUniverse(ctx context.Context, market string) ([]contracts.Security, error) {
	query := `
		SELECT symbol, name, market
		FROM data.securities
		WHERE market = $1 AND is_active = TRUE
		ORDER BY symbol
	`

	rows, err := r.db.Query(ctx, query, market)
	if err != nil {
		return nil, fmt.Errorf("query universe %s: %w", market, err)
	}
	defer rows.Close()

	var securities []contracts.Security
	for rows.Next() {
		var s contracts.Security
		if err := rows.Scan(&s.Symbol, &s.Name, &s.Market); err != nil {
			return nil, fmt.Errorf("scan universe %s: %w", market, err)
		}
		securities = append(securities, s)
	}
	return securities, rows.Err()
}

// SaveSecurity upserts a universe member
func (r *Repository) SaveSecurity(ctx context.Context, s contracts.Security) error {
	query := `
		INSERT INTO data.securities (symbol, name, market, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			market = EXCLUDED.market,
			is_active = TRUE
	`

	if _, err := r.db.Exec(ctx, query, s.Symbol, s.Name, s.Market); err != nil {
		return fmt.Errorf("save security %s: %w", s.Symbol, err)
	}
	return nil
}
