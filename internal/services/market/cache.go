package market

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const pricesKey = "blackmarket:market:prices"

// RedisCache keeps the last good price feed so a restart can come up while the
// pricing backend is unreachable.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Save(ctx context.Context, prices map[string]int) error {
	values := make(map[string]interface{}, len(prices))
	for tpl, p := range prices {
		values[tpl] = p
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, pricesKey)
		if len(values) > 0 {
			pipe.HSet(ctx, pricesKey, values)
		}
		return nil
	})
	return err
}

func (c *RedisCache) Load(ctx context.Context) (map[string]int, error) {
	raw, err := c.rdb.HGetAll(ctx, pricesKey).Result()
	if err != nil {
		return nil, err
	}

	prices := make(map[string]int, len(raw))
	for tpl, v := range raw {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("cached price for %s: %w", tpl, err)
		}
		prices[tpl] = p
	}
	return prices, nil
}
