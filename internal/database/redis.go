package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// InitRedis connects to redis. It returns nil when addr is empty or the server
// does not answer, and callers run without the cache.
func InitRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.WithField("component", "database").WithError(err).Warnf("Redis at %s unavailable, market cache disabled", addr)
		rdb.Close()
		return nil
	}

	logrus.WithField("component", "database").Infof("Connected to redis at %s", addr)
	return rdb
}
