// Package cache keeps enriched task records in redis so repeated reads of
// the same shift skip the joins.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"community-service/internal/models"
	"community-service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type TaskCache interface {
	Get(ctx context.Context, id int) (models.TaskDetails, bool)
	Set(ctx context.Context, task models.TaskDetails)
	Invalidate(ctx context.Context, ids ...int)
}

// RedisTaskCache never fails a request: redis errors are logged and treated
// as a miss.
type RedisTaskCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTaskCache(client *redis.Client, ttl time.Duration) *RedisTaskCache {
	return &RedisTaskCache{client: client, ttl: ttl}
}

func taskKey(id int) string { return fmt.Sprintf("task:%d", id) }

func (c *RedisTaskCache) Get(ctx context.Context, id int) (models.TaskDetails, bool) {
	raw, err := c.client.Get(ctx, taskKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.ErrorLogger.Error("Cache read failed", zap.Int("task_id", id), zap.Error(err))
		}
		return models.TaskDetails{}, false
	}

	var task models.TaskDetails
	if err := json.Unmarshal(raw, &task); err != nil {
		logger.ErrorLogger.Error("Cache entry is corrupt", zap.Int("task_id", id), zap.Error(err))
		c.Invalidate(ctx, id)
		return models.TaskDetails{}, false
	}
	return task, true
}

func (c *RedisTaskCache) Set(ctx context.Context, task models.TaskDetails) {
	raw, err := json.Marshal(task)
	if err != nil {
		logger.ErrorLogger.Error("Cache encode failed", zap.Int("task_id", task.ID), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, taskKey(task.ID), raw, c.ttl).Err(); err != nil {
		logger.ErrorLogger.Error("Cache write failed", zap.Int("task_id", task.ID), zap.Error(err))
	}
}

func (c *RedisTaskCache) Invalidate(ctx context.Context, ids ...int) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = taskKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.ErrorLogger.Error("Cache invalidate failed", zap.Ints("task_ids", ids), zap.Error(err))
	}
}

// Nop is used when no redis is configured.
type Nop struct{}

func (Nop) Get(context.Context, int) (models.TaskDetails, bool) { return models.TaskDetails{}, false }

func (Nop) Set(context.Context, models.TaskDetails) {}

func (Nop) Invalidate(context.Context, ...int) {}
