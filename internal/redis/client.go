package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis backs only the availability cache here, never correctness: every
// caller must survive a miss or an error. The client is tuned for that
// role with short timeouts, so a slow cache degrades to a Postgres read
// instead of stalling the request.
const (
	cacheReadTimeout  = 500 * time.Millisecond
	cacheWriteTimeout = time.Second
	connectTimeout    = 5 * time.Second
)

func NewCacheClient(addr, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		ReadTimeout:  cacheReadTimeout,
		WriteTimeout: cacheWriteTimeout,
		PoolSize:     10,
		MinIdleConns: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}
