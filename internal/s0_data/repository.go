package s0_data

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads scoring inputs from PostgreSQL.
// It implements contracts.PriceSource, FundamentalSource, CalendarSource
// and UniverseSource over the data schema.
// ⭐ SSOT: 입력 데이터 조회는 여기서만
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}
