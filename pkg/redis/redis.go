package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/eshop-admin-backend/config"
	"github.com/ikkim/eshop-admin-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Dashboard stat cache keys.
const (
	StatOrderCount = "order_count"
	StatTotalSales = "total_sales"
)

const statKeyPrefix = "stats:"

var client *redis.Client

// Init initializes the Redis connection. Redis is optional; when it is
// disabled the stat helpers become no-ops and every read hits the database.
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client = nil
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance, or nil when Redis is disabled.
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection.
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// SetStat caches a dashboard statistic for ttl.
func SetStat(ctx context.Context, name, value string, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	return client.Set(ctx, statKeyPrefix+name, value, ttl).Err()
}

// GetStat returns a cached statistic and whether it was present.
func GetStat(ctx context.Context, name string) (string, bool, error) {
	if client == nil {
		return "", false, nil
	}

	value, err := client.Get(ctx, statKeyPrefix+name).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		logger.Error("Failed to read cached stat", err, map[string]interface{}{
			"name": name,
		})
		return "", false, err
	}
	return value, true, nil
}

// InvalidateStats drops every cached statistic. Called after writes that
// change the order book.
func InvalidateStats(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Del(ctx, statKeyPrefix+StatOrderCount, statKeyPrefix+StatTotalSales).Err()
}
