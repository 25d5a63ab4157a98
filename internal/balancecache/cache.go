// Package balancecache caches derived account balances in Redis.
//
// The cache is a display-only projection: the transaction chain stays
// authoritative, funds checks always read the ledger under the account lock,
// and every entry is invalidated whenever a new transaction is appended for
// the account. A read-through Set racing an append can still land after that
// append's Invalidate, so the TTL is kept short to bound how long such a
// stale value can live. Cache failures degrade to recomputing from the
// ledger.
package balancecache

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const keyPrefix = "balance:"

// Cache holds the Redis backed balance projection.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns a Cache around the given Redis client.
func New(rdb *redis.Client) *Cache {
	return &Cache{
		rdb: rdb,
		ttl: time.Minute,
	}
}

func key(accountID int64) string {
	return keyPrefix + strconv.FormatInt(accountID, 10)
}

// Get returns the cached balance for the account and whether it was present.
func (c *Cache) Get(ctx context.Context, accountID int64) (int64, bool) {
	if c == nil || c.rdb == nil {
		return 0, false
	}

	val, err := c.rdb.Get(ctx, key(accountID)).Result()
	if err != nil {
		if err != redis.Nil {
			zerolog.Ctx(ctx).Warn().Err(err).Send()
		}

		return 0, false
	}

	balance, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Send()
		return 0, false
	}

	return balance, true
}

// Set stores the balance for the account.
func (c *Cache) Set(ctx context.Context, accountID, balance int64) {
	if c == nil || c.rdb == nil {
		return
	}

	if err := c.rdb.Set(ctx, key(accountID), strconv.FormatInt(balance, 10), c.ttl).Err(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Send()
	}
}

// Invalidate drops the cached balances for the given accounts.
func (c *Cache) Invalidate(ctx context.Context, accountIDs ...int64) {
	if c == nil || c.rdb == nil || len(accountIDs) == 0 {
		return
	}

	keys := make([]string, len(accountIDs))
	for i, id := range accountIDs {
		keys[i] = key(id)
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Send()
	}
}
