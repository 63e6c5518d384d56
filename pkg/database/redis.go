package database

import (
	"context"
	"fmt"

	"community-service/configs"

	"github.com/go-redis/redis/v8"
)

// ConnectRedis returns nil, nil when no REDIS_HOST is configured.
func ConnectRedis(ctx context.Context, cfg configs.Config) (*redis.Client, error) {
	addr := cfg.RedisAddr()
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to redis: %w", err)
	}
	return client, nil
}
