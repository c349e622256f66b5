package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/factorflow/backend/internal/contracts"
)

// Repository persists scored records in factor.scored_records
// ⭐ SSOT: 출력 원장 DB 접근은 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new ledger repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Name implements contracts.LedgerSink
func (r *Repository) Name() string {
	return "postgres"
}

const recordColumns = `
	symbol, eval_date, name, as_of_date, price,
	beta, pbr, market_cap_usd,
	momentum_1m, momentum_3m, momentum_6m, momentum_12m, volatility,
	rsi, macd, macd_signal, macd_hist,
	sector, industry,
	beta_factor, value_factor, size_factor, momentum_factor, volatility_factor,
	weighted_score, factor_percentile, smart_signal, signal_strength,
	rebalance_priority, to_rebalance`

// PublishDate replaces every record of batch.Date in one transaction.
// Re-publishing a date is idempotent and a failure leaves the previous
// contents of the date untouched.
func (r *Repository) PublishDate(ctx context.Context, batch *contracts.DateBatch) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM factor.scored_records WHERE eval_date = $1", batch.Date); err != nil {
		return fmt.Errorf("failed to delete old records: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM factor.skipped_dates WHERE eval_date = $1", batch.Date); err != nil {
		return fmt.Errorf("failed to clear skip marker: %w", err)
	}

	query := `INSERT INTO factor.scored_records (` + recordColumns + `, run_id, model_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)`

	b := &pgx.Batch{}
	for _, rec := range batch.Records {
		b.Queue(query,
			rec.Symbol, batch.Date, rec.Name, rec.Indicators.AsOf, rec.Indicators.Price,
			rec.Raw.Beta, rec.Raw.PBR, rec.Raw.MarketCapUSD,
			rec.Indicators.Momentum1M, rec.Indicators.Momentum3M, rec.Indicators.Momentum6M,
			rec.Indicators.Momentum12M, rec.Indicators.Volatility,
			rec.Indicators.RSI, rec.Indicators.MACD, rec.Indicators.MACDSignal, rec.Indicators.MACDHist,
			rec.Sector, rec.Industry,
			rec.Factors.Beta, rec.Factors.Value, rec.Factors.Size, rec.Factors.Momentum, rec.Factors.Volatility,
			rec.WeightedScore, rec.FactorPercentile, string(rec.Signal), string(rec.Strength),
			rec.RebalancePriority, rec.ToRebalance,
			batch.RunID, batch.ModelHash,
		)
	}

	br := tx.SendBatch(ctx, b)
	for range batch.Records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert scored record: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RecordSkip marks date as skipped and drops records a previous run left for it
func (r *Repository) RecordSkip(ctx context.Context, runID string, skip contracts.SkippedDate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM factor.scored_records WHERE eval_date = $1", skip.Date); err != nil {
		return fmt.Errorf("failed to delete old records: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO factor.skipped_dates (eval_date, valid_count, reason, run_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (eval_date) DO UPDATE SET
			valid_count = EXCLUDED.valid_count,
			reason = EXCLUDED.reason,
			run_id = EXCLUDED.run_id,
			created_at = NOW()
	`, skip.Date, skip.ValidCount, skip.Reason, runID)
	if err != nil {
		return fmt.Errorf("failed to save skipped date: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByDate retrieves every record of one evaluation date, ordered by symbol
func (r *Repository) GetByDate(ctx context.Context, date time.Time) ([]*contracts.ScoredRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM factor.scored_records
		WHERE eval_date = $1
		ORDER BY symbol`

	return r.query(ctx, query, date)
}

// GetBySymbol retrieves one security's records in [from, to], oldest first
func (r *Repository) GetBySymbol(ctx context.Context, symbol string, from, to time.Time) ([]*contracts.ScoredRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM factor.scored_records
		WHERE symbol = $1 AND eval_date BETWEEN $2 AND $3
		ORDER BY eval_date`

	return r.query(ctx, query, symbol, from, to)
}

// GetRange retrieves every record in [from, to] ordered by (date, symbol)
func (r *Repository) GetRange(ctx context.Context, from, to time.Time) ([]*contracts.ScoredRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM factor.scored_records
		WHERE eval_date BETWEEN $1 AND $2
		ORDER BY eval_date, symbol`

	return r.query(ctx, query, from, to)
}

// LatestDate returns the most recent published evaluation date
func (r *Repository) LatestDate(ctx context.Context) (time.Time, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx, "SELECT MAX(eval_date) FROM factor.scored_records").Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest date: %w", err)
	}
	if latest == nil {
		return time.Time{}, contracts.ErrNotFound
	}
	return *latest, nil
}

// GetSkipped lists skipped dates in [from, to]
func (r *Repository) GetSkipped(ctx context.Context, from, to time.Time) ([]contracts.SkippedDate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT eval_date, valid_count, reason
		FROM factor.skipped_dates
		WHERE eval_date BETWEEN $1 AND $2
		ORDER BY eval_date
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query skipped dates: %w", err)
	}
	defer rows.Close()

	var out []contracts.SkippedDate
	for rows.Next() {
		var s contracts.SkippedDate
		if err := rows.Scan(&s.Date, &s.ValidCount, &s.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan skipped date: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) ([]*contracts.ScoredRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scored records: %w", err)
	}
	defer rows.Close()

	var out []*contracts.ScoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (*contracts.ScoredRecord, error) {
	var (
		rec              contracts.ScoredRecord
		signal, strength string
	)
	err := row.Scan(
		&rec.Symbol, &rec.Date, &rec.Name, &rec.Indicators.AsOf, &rec.Indicators.Price,
		&rec.Raw.Beta, &rec.Raw.PBR, &rec.Raw.MarketCapUSD,
		&rec.Indicators.Momentum1M, &rec.Indicators.Momentum3M, &rec.Indicators.Momentum6M,
		&rec.Indicators.Momentum12M, &rec.Indicators.Volatility,
		&rec.Indicators.RSI, &rec.Indicators.MACD, &rec.Indicators.MACDSignal, &rec.Indicators.MACDHist,
		&rec.Sector, &rec.Industry,
		&rec.Factors.Beta, &rec.Factors.Value, &rec.Factors.Size, &rec.Factors.Momentum, &rec.Factors.Volatility,
		&rec.WeightedScore, &rec.FactorPercentile, &signal, &strength,
		&rec.RebalancePriority, &rec.ToRebalance,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan scored record: %w", err)
	}

	rec.Signal = contracts.Signal(signal)
	rec.Strength = contracts.Strength(strength)
	rec.Raw.Momentum12M = rec.Indicators.Momentum12M
	rec.Raw.Volatility = rec.Indicators.Volatility
	return &rec, nil
}
