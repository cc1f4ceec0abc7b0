// internal/storage/redis_archive.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Corphon/LifeJourney/internal/errors"
	"github.com/Corphon/LifeJourney/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisRecordPrefix = "journey:"
	redisIndexKey     = "journeys:index"
)

// RedisArchive 把存档保存在 Redis 中：
// journey:{id} -> 存档 JSON（带 TTL）
// journeys:index -> 有序集合，score 为完成时间
type RedisArchive struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisArchive 创建 Redis 存档；ttl <= 0 表示永不过期
func NewRedisArchive(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisArchive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisArchive{client: client, ttl: ttl, logger: logger.Named("RedisArchive")}
}

// ConnectRedis 解析 redis:// URL 并确认连接可用
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("解析 REDIS_URL 失败: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}
	return client, nil
}

// Save 写入存档并登记到索引
func (r *RedisArchive) Save(ctx context.Context, record *models.JourneyRecord) error {
	if record == nil {
		return apperrors.NewValidationError("存档为空", nil)
	}
	if err := validateID(record.ID); err != nil {
		return err
	}

	content, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, redisRecordPrefix+record.ID, content, r.ttl)
	pipe.ZAdd(ctx, redisIndexKey, redis.Z{
		Score:  float64(record.CompletedAt.UnixMilli()),
		Member: record.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to save journey to redis", zap.Error(err), zap.String("id", record.ID))
		return fmt.Errorf("failed to save journey to redis: %w", err)
	}

	r.logger.Debug("Journey archived", zap.String("id", record.ID), zap.Duration("ttl", r.ttl))
	return nil
}

// Load 读取存档
func (r *RedisArchive) Load(ctx context.Context, id string) (*models.JourneyRecord, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	content, err := r.client.Get(ctx, redisRecordPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NewNotFoundError("存档不存在: "+id, err)
		}
		return nil, fmt.Errorf("failed to load journey from redis: %w", err)
	}

	var record models.JourneyRecord
	if err := json.Unmarshal(content, &record); err != nil {
		return nil, fmt.Errorf("解析JSON失败: %w", err)
	}
	return &record, nil
}

// List 按完成时间倒序列出存档；过期的存档顺带从索引中移除
func (r *RedisArchive) List(ctx context.Context, limit int) ([]models.JourneySummary, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := r.client.ZRevRange(ctx, redisIndexKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list journeys: %w", err)
	}
	if len(ids) == 0 {
		return []models.JourneySummary{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisRecordPrefix + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load journeys: %w", err)
	}

	summaries := make([]models.JourneySummary, 0, len(values))
	var expired []interface{}
	for i, value := range values {
		text, ok := value.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var record models.JourneyRecord
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			r.logger.Warn("Skipping corrupt journey", zap.String("id", ids[i]), zap.Error(err))
			continue
		}
		summaries = append(summaries, record.Summarize())
	}

	if len(expired) > 0 {
		if err := r.client.ZRem(ctx, redisIndexKey, expired...).Err(); err != nil {
			r.logger.Warn("Failed to prune journey index", zap.Error(err))
		}
	}
	return summaries, nil
}
