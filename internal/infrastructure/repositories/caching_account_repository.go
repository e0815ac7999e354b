package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/avatarctic/ledger/internal/core/domain/ledger"
	"github.com/avatarctic/ledger/internal/core/ports"
)

const (
	accountsAllKey     = "accounts:all"
	accountsSummaryKey = "accounts:summary"
)

func accountKey(id int64) string {
	return "account:id:" + strconv.FormatInt(id, 10)
}

func cacheSetSilently(c ports.Cache, ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.Set(ctx, key, b, ttl)
}

func cacheGet[T any](c ports.Cache, ctx context.Context, key string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// CachingAccountRepository decorates an AccountRepository with cache-aside.
// Single records and the unfiltered list and summary are cached; filtered
// queries always go to the inner repository.
type CachingAccountRepository struct {
	inner ports.AccountRepository
	cache ports.Cache
	ttl   time.Duration
	sf    singleflight.Group
}

func NewCachingAccountRepository(inner ports.AccountRepository, cache ports.Cache, ttl time.Duration) ports.AccountRepository {
	return &CachingAccountRepository{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachingAccountRepository) Create(ctx context.Context, a *ledger.Account) error {
	if err := c.inner.Create(ctx, a); err != nil {
		return err
	}
	cacheSetSilently(c.cache, ctx, accountKey(a.ID), a, c.ttl)
	c.invalidateAggregates(ctx)
	return nil
}

func (c *CachingAccountRepository) GetByID(ctx context.Context, id int64) (*ledger.Account, error) {
	if v, ok := cacheGet[ledger.Account](c.cache, ctx, accountKey(id)); ok {
		return v, nil
	}
	a, err := c.inner.GetByID(ctx, id)
	if err == nil {
		cacheSetSilently(c.cache, ctx, accountKey(id), a, c.ttl)
	}
	return a, err
}

func (c *CachingAccountRepository) Update(ctx context.Context, a *ledger.Account) error {
	if err := c.inner.Update(ctx, a); err != nil {
		return err
	}
	cacheSetSilently(c.cache, ctx, accountKey(a.ID), a, c.ttl)
	c.invalidateAggregates(ctx)
	return nil
}

func (c *CachingAccountRepository) Delete(ctx context.Context, id int64) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	if c.cache != nil {
		_ = c.cache.Delete(ctx, accountKey(id), accountsAllKey, accountsSummaryKey)
	}
	return nil
}

func (c *CachingAccountRepository) List(ctx context.Context, filter *ledger.AccountFilter) ([]*ledger.Account, error) {
	if c.cache == nil || !unfiltered(filter) {
		return c.inner.List(ctx, filter)
	}
	all, err := c.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	offset, limit := 0, 0
	if filter != nil {
		offset, limit = filter.Offset, filter.Limit
	}
	if offset >= len(all) {
		return []*ledger.Account{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (c *CachingAccountRepository) Count(ctx context.Context, filter *ledger.AccountFilter) (int, error) {
	if c.cache != nil && unfiltered(filter) {
		if v, ok := cacheGet[[]*ledger.Account](c.cache, ctx, accountsAllKey); ok {
			return len(*v), nil
		}
	}
	return c.inner.Count(ctx, filter)
}

func (c *CachingAccountRepository) Summarize(ctx context.Context, filter *ledger.AccountFilter) (*ledger.Summary, error) {
	if c.cache == nil || !unfiltered(filter) {
		return c.inner.Summarize(ctx, filter)
	}
	if v, ok := cacheGet[ledger.Summary](c.cache, ctx, accountsSummaryKey); ok {
		return v, nil
	}
	s, err := c.inner.Summarize(ctx, filter)
	if err == nil {
		cacheSetSilently(c.cache, ctx, accountsSummaryKey, s, c.ttl)
	}
	return s, err
}

// loadAll coalesces concurrent misses on the full list into one query.
func (c *CachingAccountRepository) loadAll(ctx context.Context) ([]*ledger.Account, error) {
	if v, ok := cacheGet[[]*ledger.Account](c.cache, ctx, accountsAllKey); ok {
		return *v, nil
	}
	res, err, _ := c.sf.Do(accountsAllKey, func() (any, error) {
		if v, ok := cacheGet[[]*ledger.Account](c.cache, ctx, accountsAllKey); ok {
			return *v, nil
		}
		all, err := c.inner.List(ctx, nil)
		if err != nil {
			return nil, err
		}
		cacheSetSilently(c.cache, ctx, accountsAllKey, all, c.ttl)
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	all, ok := res.([]*ledger.Account)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight result")
	}
	return all, nil
}

func (c *CachingAccountRepository) invalidateAggregates(ctx context.Context) {
	if c.cache != nil {
		_ = c.cache.Delete(ctx, accountsAllKey, accountsSummaryKey)
	}
}

func unfiltered(f *ledger.AccountFilter) bool {
	return f == nil || (f.Keyword == "" && f.StartDate == "" && f.EndDate == "" && f.IsPaid == nil)
}
