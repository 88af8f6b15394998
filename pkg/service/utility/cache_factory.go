/*
 * @Description: 缓存服务工厂（自动降级）
 * @Author: 星河
 * @Date: 2025-04-10 10:12:55
 * @LastEditTime: 2025-08-19 15:14:26
 * @LastEditors: 星河
 */
package utility

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewCacheServiceWithFallback 优先使用 Redis，连接不可用时降级到内存缓存。
// client 为 nil 表示未配置 Redis，直接使用内存实现。
func NewCacheServiceWithFallback(client *redis.Client) CacheService {
	if client == nil {
		log.Println("⚠️ 未配置 Redis，使用内存缓存。重启后缓存数据将丢失。")
		return NewMemoryCacheService()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Redis 连接失败 (%v)，降级为内存缓存。", err)
		return NewMemoryCacheService()
	}

	log.Println("✅ Redis 连接成功，使用 Redis 缓存。")
	return NewRedisCacheService(client)
}
