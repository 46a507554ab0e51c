package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"projectboard/internal/model"
	"projectboard/internal/repository"
	"projectboard/pkg/metrics"
)

const (
	keyPrefix  = "cache:tasks:"
	tagPrefix  = "tag:tasks:"
	allTag     = "tag:tasks:all"
	defaultTTL = 60 * time.Second
)

// TaskListCache is a read-through Redis cache for filtered task lists.
// Every cached key is registered under a tag set per task id it contains,
// plus a catch-all set, so mutations can invalidate exactly the lists that
// held the touched task. The cache is never authoritative: any Redis error
// degrades to a miss.
type TaskListCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewTaskListCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *TaskListCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &TaskListCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *TaskListCache) Get(ctx context.Context, filter repository.TaskFilter) ([]model.Task, bool) {
	key := keyPrefix + filter.CacheKey()

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Task cache read failed, falling back to database",
				zap.String("key", key),
				zap.Error(err),
			)
			metrics.RecordCacheLookup("error")
			return nil, false
		}
		metrics.RecordCacheLookup("miss")
		return nil, false
	}

	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		c.logger.Warn("Task cache entry corrupt, dropping",
			zap.String("key", key),
			zap.Error(err),
		)
		c.rdb.Del(ctx, key)
		metrics.RecordCacheLookup("error")
		return nil, false
	}

	metrics.RecordCacheLookup("hit")
	c.logger.Debug("Task cache hit", zap.String("key", key), zap.Int("count", len(tasks)))
	return tasks, true
}

func (c *TaskListCache) Set(ctx context.Context, filter repository.TaskFilter, tasks []model.Task) {
	key := keyPrefix + filter.CacheKey()

	data, err := json.Marshal(tasks)
	if err != nil {
		c.logger.Warn("Failed to marshal task list for cache", zap.Error(err))
		return
	}

	pipe := c.rdb.Pipeline()
	pipe.Set(ctx, key, data, c.ttl)
	pipe.SAdd(ctx, allTag, key)
	pipe.Expire(ctx, allTag, c.ttl)
	for _, t := range tasks {
		tag := tagKey(t.ID)
		pipe.SAdd(ctx, tag, key)
		pipe.Expire(ctx, tag, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("Task cache write failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// InvalidateTask drops every cached list that contained the task.
func (c *TaskListCache) InvalidateTask(ctx context.Context, taskID int) {
	tag := tagKey(taskID)

	keys, err := c.rdb.SMembers(ctx, tag).Result()
	if err != nil {
		c.logger.Warn("Failed to read cache tag, flushing all task lists",
			zap.String("tag", tag),
			zap.Error(err),
		)
		c.InvalidateAll(ctx)
		return
	}

	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			c.logger.Warn("Failed to delete tagged cache keys", zap.Error(err))
		}
	}
	c.rdb.Del(ctx, tag)

	c.logger.Debug("Invalidated task lists for task",
		zap.Int("task_id", taskID),
		zap.Int("keys", len(keys)),
	)
}

// InvalidateAll drops every cached task list. Used for mutations that change
// list membership without a stable id, such as creates.
func (c *TaskListCache) InvalidateAll(ctx context.Context) {
	keys, err := c.rdb.SMembers(ctx, allTag).Result()
	if err != nil {
		c.logger.Warn("Failed to read all-lists tag", zap.Error(err))
		return
	}

	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			c.logger.Warn("Failed to delete cached task lists", zap.Error(err))
		}
	}
	c.rdb.Del(ctx, allTag)

	c.logger.Debug("Invalidated all task lists", zap.Int("keys", len(keys)))
}

func tagKey(taskID int) string {
	return tagPrefix + strconv.Itoa(taskID)
}
