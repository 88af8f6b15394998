/*
 * @Description: 分片临时文件存储
 * @Author: 星河
 * @Date: 2025-05-07 14:22:51
 * @LastEditTime: 2025-08-11 16:30:44
 * @LastEditors: 星河
 */
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// ChunkStore 管理上传会话的分片临时文件。
// 目录结构: <baseDir>/<sessionID>/<chunkIndex>
type ChunkStore struct {
	baseDir string
}

func NewChunkStore(baseDir string) *ChunkStore {
	if baseDir == "" {
		baseDir = "data/temp/uploads"
	}
	return &ChunkStore{baseDir: baseDir}
}

func (s *ChunkStore) sessionDir(sessionID string) string {
	return filepath.Join(s.baseDir, sessionID)
}

func (s *ChunkStore) chunkPath(sessionID string, index int) string {
	return filepath.Join(s.sessionDir(sessionID), strconv.Itoa(index))
}

// Save 写入一个分片。同一索引重复写入会整体覆盖旧数据。
// 先写临时文件再重命名，保证读取方不会看到半截分片。
func (s *ChunkStore) Save(sessionID string, index int, r io.Reader) (int64, error) {
	dir := s.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("创建分片目录失败: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".chunk-*")
	if err != nil {
		return 0, fmt.Errorf("创建分片临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	size, err := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("写入分片数据失败: %w", err)
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("关闭分片文件失败: %w", closeErr)
	}
	if err := os.Rename(tmpName, s.chunkPath(sessionID, index)); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("落盘分片文件失败: %w", err)
	}
	return size, nil
}

// Open 打开一个分片读取流
func (s *ChunkStore) Open(sessionID string, index int) (io.ReadCloser, error) {
	return os.Open(s.chunkPath(sessionID, index))
}

// Exists 判断分片文件是否存在
func (s *ChunkStore) Exists(sessionID string, index int) bool {
	_, err := os.Stat(s.chunkPath(sessionID, index))
	return err == nil
}

// Delete 删除单个分片文件
func (s *ChunkStore) Delete(sessionID string, index int) error {
	err := os.Remove(s.chunkPath(sessionID, index))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveSession 删除整个会话的分片目录
func (s *ChunkStore) RemoveSession(sessionID string) error {
	return os.RemoveAll(s.sessionDir(sessionID))
}

// ListSessions 列出磁盘上现存的会话目录，用于清理孤儿目录
func (s *ChunkStore) ListSessions() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var sessions []string
	for _, entry := range entries {
		if entry.IsDir() {
			sessions = append(sessions, entry.Name())
		}
	}
	return sessions, nil
}
