/*
 * @Description: 缓存服务（Redis 实现）
 * @Author: 星河
 * @Date: 2025-04-09 22:30:11
 * @LastEditTime: 2025-08-19 15:02:37
 * @LastEditors: 星河
 */
package utility

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss 键不存在
var ErrCacheMiss = errors.New("缓存未命中")

// CacheService 定义了业务代码依赖的缓存能力。
// 生产环境使用 Redis 实现，未配置 Redis 时自动降级为内存实现。
type CacheService interface {
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	// Scan 返回匹配 pattern 的所有键
	Scan(ctx context.Context, pattern string) ([]string, error)
	// SAdd 向集合添加成员，返回新增成员数（已存在返回 0）
	SAdd(ctx context.Context, key string, member string) (int64, error)
}

type redisCacheService struct {
	client *redis.Client
}

// NewRedisCacheService 基于 go-redis 客户端创建缓存服务
func NewRedisCacheService(client *redis.Client) CacheService {
	return &redisCacheService{client: client}
}

func (s *redisCacheService) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return s.client.Set(ctx, key, value, expiration).Err()
}

func (s *redisCacheService) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

func (s *redisCacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *redisCacheService) Increment(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, key).Result()
}

func (s *redisCacheService) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return s.client.Expire(ctx, key, expiration).Err()
}

func (s *redisCacheService) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("扫描缓存键失败: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

func (s *redisCacheService) SAdd(ctx context.Context, key string, member string) (int64, error) {
	return s.client.SAdd(ctx, key, member).Result()
}
