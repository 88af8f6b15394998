/*
 * @Description: 内存缓存降级实现的单元测试
 * @Author: 星河
 * @Date: 2025-06-14 16:48:09
 * @LastEditTime: 2025-08-22 10:31:55
 * @LastEditors: 星河
 */
package utility

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

func TestMemoryCacheSetGetDelete(t *testing.T) {
	cache := NewMemoryCacheService()
	ctx := context.Background()

	if _, err := cache.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("读取不存在的键应返回 ErrCacheMiss，实际: %v", err)
	}

	if err := cache.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	got, err := cache.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("Get = (%q, %v), 期望 (\"v\", nil)", got, err)
	}

	if err := cache.Delete(ctx, "k"); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if _, err := cache.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("删除后读取应返回 ErrCacheMiss，实际: %v", err)
	}
}

func TestMemoryCacheExpiration(t *testing.T) {
	cache := NewMemoryCacheService()
	ctx := context.Background()

	if err := cache.Set(ctx, "short", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := cache.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("过期键读取应返回 ErrCacheMiss，实际: %v", err)
	}
}

func TestMemoryCacheScan(t *testing.T) {
	cache := NewMemoryCacheService()
	ctx := context.Background()

	cache.Set(ctx, "upload:session:a", "1", time.Minute)
	cache.Set(ctx, "upload:session:b", "2", time.Minute)
	cache.Set(ctx, "video:detail:1", "3", time.Minute)

	keys, err := cache.Scan(ctx, "upload:session:*")
	if err != nil {
		t.Fatalf("扫描失败: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "upload:session:a" || keys[1] != "upload:session:b" {
		t.Fatalf("Scan = %v, 期望前缀匹配的两个键", keys)
	}
}

func TestMemoryCacheSAdd(t *testing.T) {
	cache := NewMemoryCacheService()
	ctx := context.Background()

	added, err := cache.SAdd(ctx, "set", "m1")
	if err != nil || added != 1 {
		t.Fatalf("首次 SAdd = (%d, %v), 期望 (1, nil)", added, err)
	}
	added, err = cache.SAdd(ctx, "set", "m1")
	if err != nil || added != 0 {
		t.Fatalf("重复 SAdd = (%d, %v), 期望 (0, nil)", added, err)
	}
	added, err = cache.SAdd(ctx, "set", "m2")
	if err != nil || added != 1 {
		t.Fatalf("新成员 SAdd = (%d, %v), 期望 (1, nil)", added, err)
	}
}

func TestMemoryCacheIncrement(t *testing.T) {
	cache := NewMemoryCacheService()
	ctx := context.Background()

	n, err := cache.Increment(ctx, "counter")
	if err != nil || n != 1 {
		t.Fatalf("首次自增 = (%d, %v), 期望 (1, nil)", n, err)
	}
	n, err = cache.Increment(ctx, "counter")
	if err != nil || n != 2 {
		t.Fatalf("再次自增 = (%d, %v), 期望 (2, nil)", n, err)
	}
}
