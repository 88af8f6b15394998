/*
 * @Description: 内存缓存实现（Redis 不可用时的降级方案）
 * @Author: 星河
 * @Date: 2025-04-09 23:05:48
 * @LastEditTime: 2025-08-19 15:10:02
 * @LastEditors: 星河
 */
package utility

import (
	"context"
	"path"
	"strconv"
	"sync"
	"time"
)

type memoryCacheItem struct {
	value     string
	members   map[string]struct{}
	expiresAt time.Time
}

func (it *memoryCacheItem) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

type memoryCacheService struct {
	mu    sync.RWMutex
	items map[string]*memoryCacheItem
	done  chan struct{}
}

// NewMemoryCacheService 创建内存缓存。后台协程定期清理过期键。
func NewMemoryCacheService() CacheService {
	s := &memoryCacheService{
		items: make(map[string]*memoryCacheItem),
		done:  make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *memoryCacheService) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for k, it := range s.items {
				if it.expired(now) {
					delete(s.items, k)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *memoryCacheService) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := &memoryCacheItem{value: value}
	if expiration > 0 {
		it.expiresAt = time.Now().Add(expiration)
	}
	s.items[key] = it
	return nil
}

func (s *memoryCacheService) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if !ok || it.expired(time.Now()) {
		return "", ErrCacheMiss
	}
	return it.value, nil
}

func (s *memoryCacheService) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.items, k)
	}
	return nil
}

func (s *memoryCacheService) Increment(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[key]
	if !ok || it.expired(time.Now()) {
		it = &memoryCacheItem{value: "0"}
		s.items[key] = it
	}
	n, err := strconv.ParseInt(it.value, 10, 64)
	if err != nil {
		return 0, err
	}
	n++
	it.value = strconv.FormatInt(n, 10)
	return n, nil
}

func (s *memoryCacheService) Expire(ctx context.Context, key string, expiration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.items[key]; ok {
		it.expiresAt = time.Now().Add(expiration)
	}
	return nil
}

func (s *memoryCacheService) Scan(ctx context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	var keys []string
	for k, it := range s.items {
		if it.expired(now) {
			continue
		}
		if matched, _ := path.Match(pattern, k); matched {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *memoryCacheService) SAdd(ctx context.Context, key string, member string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[key]
	if !ok || it.expired(time.Now()) {
		it = &memoryCacheItem{members: make(map[string]struct{})}
		s.items[key] = it
	}
	if it.members == nil {
		it.members = make(map[string]struct{})
	}
	if _, exists := it.members[member]; exists {
		return 0, nil
	}
	it.members[member] = struct{}{}
	return 1, nil
}
