package ledger

import (
	"context"
	"time"

	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/pkg/logger"
	"github.com/wonny/factorflow/backend/pkg/redis"
)

// CachedReader serves score tables from Redis in front of another reader.
// As a sink it writes each published date through to the cache and drops
// cached symbol windows, so a re-run never leaves a stale table behind.
type CachedReader struct {
	reader contracts.ScoreReader
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedReader wraps reader with cache. A zero ttl means redis.TTLDaily.
func NewCachedReader(reader contracts.ScoreReader, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedReader {
	if ttl <= 0 {
		ttl = redis.TTLDaily
	}
	return &CachedReader{reader: reader, cache: cache, ttl: ttl, logger: log}
}

// Name implements contracts.LedgerSink
func (c *CachedReader) Name() string {
	return "redis"
}

// PublishDate implements contracts.LedgerSink
func (c *CachedReader) PublishDate(ctx context.Context, batch *contracts.DateBatch) error {
	if err := c.cache.Set(ctx, redis.ScoreDateKey(contracts.FormatDate(batch.Date)), batch.Records, c.ttl); err != nil {
		return err
	}

	removed, err := c.cache.DeleteMatch(ctx, redis.ScoreSymbolPattern())
	if err != nil {
		return err
	}
	if removed > 0 {
		c.logger.WithField("keys", removed).Debug("Dropped cached symbol windows")
	}
	return nil
}

// RecordSkip implements contracts.SkipRecorder
func (c *CachedReader) RecordSkip(ctx context.Context, _ string, skip contracts.SkippedDate) error {
	return c.cache.Delete(ctx, redis.ScoreDateKey(contracts.FormatDate(skip.Date)))
}

// GetByDate implements contracts.ScoreReader
func (c *CachedReader) GetByDate(ctx context.Context, date time.Time) ([]*contracts.ScoredRecord, error) {
	key := redis.ScoreDateKey(contracts.FormatDate(date))

	var cached []*contracts.ScoredRecord
	if found, err := c.cache.Get(ctx, key, &cached); err != nil {
		c.logger.WithError(err).Warn("Score cache read failed")
	} else if found {
		return cached, nil
	}

	records, err := c.reader.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		if err := c.cache.Set(ctx, key, records, c.ttl); err != nil {
			c.logger.WithError(err).Warn("Score cache write failed")
		}
	}
	return records, nil
}

// GetBySymbol implements contracts.ScoreReader. Ranges are cached briefly
// since a later publish can extend them.
func (c *CachedReader) GetBySymbol(ctx context.Context, symbol string, from, to time.Time) ([]*contracts.ScoredRecord, error) {
	key := redis.ScoreSymbolKey(symbol, contracts.FormatDate(from), contracts.FormatDate(to))

	var cached []*contracts.ScoredRecord
	if found, err := c.cache.Get(ctx, key, &cached); err != nil {
		c.logger.WithError(err).Warn("Score cache read failed")
	} else if found {
		return cached, nil
	}

	records, err := c.reader.GetBySymbol(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, records, redis.TTLMedium); err != nil {
		c.logger.WithError(err).Warn("Score cache write failed")
	}
	return records, nil
}

// LatestDate implements contracts.ScoreReader
func (c *CachedReader) LatestDate(ctx context.Context) (time.Time, error) {
	return c.reader.LatestDate(ctx)
}
