/*
 * @Description: Redis 客户端初始化
 * @Author: 星河
 * @Date: 2025-04-09 22:10:33
 * @LastEditTime: 2025-08-19 14:48:06
 * @LastEditors: 星河
 */
package database

import (
	"github.com/redis/go-redis/v9"

	"github.com/xinghe-v/xinghe-video/pkg/config"
)

// NewRedisClient 创建 Redis 客户端。未配置地址时返回 nil，
// 由缓存工厂负责降级到内存实现。
func NewRedisClient(cfg *config.Config) *redis.Client {
	addr := cfg.GetString(config.KeyRedisAddr)
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.GetString(config.KeyRedisPassword),
		DB:       cfg.GetInt(config.KeyRedisDB),
	})
}
