/*
 * @Description: 按键互斥锁（用于上传会话的并发控制）
 * @Author: 星河
 * @Date: 2025-05-06 16:33:19
 * @LastEditTime: 2025-05-06 16:33:19
 * @LastEditors: 星河
 */
package utility

import "sync"

// KeyLocker 为任意字符串键提供互斥锁。
// 同一个键的 Lock/Unlock 互斥，不同键互不影响。
type KeyLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLockEntry
}

type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyLocker() *KeyLocker {
	return &KeyLocker{locks: make(map[string]*keyLockEntry)}
}

// Lock 获取指定键的锁，阻塞直到成功
func (l *KeyLocker) Lock(key string) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &keyLockEntry{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

// Unlock 释放指定键的锁。引用计数归零后回收条目，避免 map 无限增长。
func (l *KeyLocker) Unlock(key string) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		l.mu.Unlock()
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
