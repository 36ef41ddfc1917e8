package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/infrastructure/metrics"
)

// RecordCache is a read-through cache of accounts, debts and goals keyed by
// owner and id. Cache failures are logged and never fail the caller.
type RecordCache struct {
	cache   Cache
	ttl     time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewRecordCache wraps cache. A nil cache disables caching.
func NewRecordCache(cache Cache, ttl time.Duration, logger zerolog.Logger, m *metrics.Metrics) *RecordCache {
	return &RecordCache{cache: cache, ttl: ttl, logger: logger, metrics: m}
}

func recordKey(kind, ownerID, id string) string {
	return fmt.Sprintf("%s:%s:%s", kind, ownerID, id)
}

// fetchRecord returns the cached record, falling back to load and storing
// its result.
func fetchRecord[T any](ctx context.Context, c *RecordCache, kind, ownerID, id string, load func() (*T, error)) (*T, error) {
	if c == nil || c.cache == nil {
		return load()
	}

	key := recordKey(kind, ownerID, id)
	raw, err := c.cache.Get(ctx, key)
	if err == nil {
		var rec T
		if jsonErr := json.Unmarshal(raw, &rec); jsonErr == nil {
			c.hit(kind)
			return &rec, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	c.miss(kind)

	rec, err := load()
	if err != nil {
		return nil, err
	}
	c.store(ctx, kind, ownerID, id, rec)
	return rec, nil
}

func (c *RecordCache) store(ctx context.Context, kind, ownerID, id string, rec any) {
	if c == nil || c.cache == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	key := recordKey(kind, ownerID, id)
	if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Invalidate removes the cached records.
func (c *RecordCache) Invalidate(ctx context.Context, kind, ownerID string, ids ...string) error {
	if c == nil || c.cache == nil || len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(kind, ownerID, id)
	}
	return c.cache.Delete(ctx, keys...)
}

// GetAccount reads an account through the cache.
func (c *RecordCache) GetAccount(ctx context.Context, repo AccountRepository, ownerID, id string) (*domain.Account, error) {
	return fetchRecord(ctx, c, kindAccount, ownerID, id, func() (*domain.Account, error) {
		return repo.GetByID(ctx, ownerID, id)
	})
}

// GetDebt reads a debt through the cache.
func (c *RecordCache) GetDebt(ctx context.Context, repo DebtRepository, ownerID, id string) (*domain.Debt, error) {
	return fetchRecord(ctx, c, kindDebt, ownerID, id, func() (*domain.Debt, error) {
		return repo.GetByID(ctx, ownerID, id)
	})
}

// GetGoal reads a goal through the cache.
func (c *RecordCache) GetGoal(ctx context.Context, repo GoalRepository, ownerID, id string) (*domain.Goal, error) {
	return fetchRecord(ctx, c, kindGoal, ownerID, id, func() (*domain.Goal, error) {
		return repo.GetByID(ctx, ownerID, id)
	})
}

// InvalidateOnFailure registers the eviction of the changed records as a
// compensation, so a failed mutation never leaves them cached.
func (c *RecordCache) InvalidateOnFailure(ownerID string, changes domain.Changes, comp *Compensations) {
	if c == nil || c.cache == nil {
		return
	}

	accountIDs, debtIDs, goalIDs := changedIDs(changes)
	comp.Add("invalidate cache", func(ctx context.Context) error {
		return errors.Join(
			c.Invalidate(ctx, kindAccount, ownerID, accountIDs...),
			c.Invalidate(ctx, kindDebt, ownerID, debtIDs...),
			c.Invalidate(ctx, kindGoal, ownerID, goalIDs...),
		)
	})
}

// WriteThrough stores committed records. Call it only after the store
// transaction has committed.
func (c *RecordCache) WriteThrough(ctx context.Context, ownerID string, changes domain.Changes) {
	if c == nil || c.cache == nil {
		return
	}
	for _, a := range changes.Accounts {
		c.store(ctx, kindAccount, ownerID, a.ID, a)
	}
	for _, d := range changes.Debts {
		c.store(ctx, kindDebt, ownerID, d.ID, d)
	}
	for _, g := range changes.Goals {
		c.store(ctx, kindGoal, ownerID, g.ID, g)
	}
}

func changedIDs(changes domain.Changes) (accountIDs, debtIDs, goalIDs []string) {
	for _, a := range changes.Accounts {
		accountIDs = append(accountIDs, a.ID)
	}
	for _, d := range changes.Debts {
		debtIDs = append(debtIDs, d.ID)
	}
	for _, g := range changes.Goals {
		goalIDs = append(goalIDs, g.ID)
	}
	return accountIDs, debtIDs, goalIDs
}

func (c *RecordCache) hit(kind string) {
	if c.metrics != nil {
		c.metrics.CacheHits.WithLabelValues(kind).Inc()
	}
}

func (c *RecordCache) miss(kind string) {
	if c.metrics != nil {
		c.metrics.CacheMisses.WithLabelValues(kind).Inc()
	}
}
