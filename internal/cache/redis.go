package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"newsdesk/portal/internal/config"
	"newsdesk/portal/internal/logger"
)

// Connect opens the shared Redis client used by the catalog cache, the mock
// email sink and the service API health check. asynq keeps its own pool built
// from the same settings.
func Connect(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", cfg.RedisAddr, err)
	}

	logger.L().Infow("Redis ready", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return rdb, nil
}

// Close releases the client; a nil client is ignored.
func Close(rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}
	if err := rdb.Close(); err != nil {
		return fmt.Errorf("closing redis: %w", err)
	}
	return nil
}
