package s0_data

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/pkg/config"
	"github.com/wonny/factorflow/backend/pkg/database"
)

func TestRepository_RoundTrip(t *testing.T) {
	if testing.Short() || os.Getenv("DATABASE_URL") == "" {
		t.Skip("skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	db, err := database.New(cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err = db.Migrate(ctx)
	require.NoError(t, err)

	repo := NewRepository(db.Pool)
	const symbol = "TEST_S0.KS"
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	require.NoError(t, repo.SaveSecurity(ctx, contracts.Security{Symbol: symbol, Name: "Test", Market: "TEST"}))
	require.NoError(t, repo.SavePrices(ctx, symbol, []contracts.PricePoint{
		{Date: d2, Open: 2, High: 2, Low: 2, Close: 2, AdjClose: 2, Volume: 20},
		{Date: d1, Open: 1, High: 1, Low: 1, Close: 1, AdjClose: 1, Volume: 10},
	}))
	require.NoError(t, repo.SaveFundamentals(ctx, symbol, &contracts.FundamentalSnapshot{Beta: contracts.Float(0.9)}))
	require.NoError(t, repo.SaveCalendar(ctx, "TEST", []time.Time{d1, d2}))

	universe, err := repo.GetUniverse(ctx, "TEST")
	require.NoError(t, err)
	assert.Len(t, universe, 1)

	prices, err := repo.GetPriceHistory(ctx, symbol)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.True(t, prices[0].Date.Before(prices[1].Date))

	snap, err := repo.GetFundamentals(ctx, symbol)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Nil(t, snap.PriceToBook)
	assert.Empty(t, snap.Sector)

	none, err := repo.GetFundamentals(ctx, "NO_SUCH_SYMBOL")
	require.NoError(t, err)
	assert.Nil(t, none)

	dates, err := repo.GetTradingCalendar(ctx, "TEST", d1, d2)
	require.NoError(t, err)
	assert.Len(t, dates, 2)
}
