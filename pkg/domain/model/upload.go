/*
 * @Description: 分片上传相关的领域模型
 * @Author: 星河
 * @Date: 2025-03-22 00:48:19
 * @LastEditTime: 2025-08-11 15:23:51
 * @LastEditors: 星河
 */
package model

import "time"

// --- API 请求模型 ---

// InitUploadRequest 对应"创建上传会话"API的请求体。
type InitUploadRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	FileSize    int64  `json:"file_size" binding:"required,min=1"`
	MimeType    string `json:"mime_type" binding:"required"`
	TotalChunks int    `json:"total_chunks" binding:"required,min=1"`
	ChunkSize   int64  `json:"chunk_size,omitempty"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
}

// CompleteUploadRequest 对应"合并上传"API的请求体
type CompleteUploadRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// --- API 响应模型 ---

// UploadSessionData 创建上传会话后返回给前端的数据
type UploadSessionData struct {
	SessionID   string `json:"session_id"`
	VideoID     string `json:"video_id"`
	ChunkSize   int64  `json:"chunk_size"`
	TotalChunks int    `json:"total_chunks"`
	ExpiresAt   int64  `json:"expires_at"`
}

// ChunkUploadResult 单个分片上传成功后的响应体
type ChunkUploadResult struct {
	UploadedChunks int     `json:"uploaded_chunks"`
	TotalChunks    int     `json:"total_chunks"`
	Progress       float64 `json:"progress"`
	IsComplete     bool    `json:"is_complete"`
}

// UploadStatusResponse 会话状态查询的响应体
type UploadStatusResponse struct {
	SessionID      string    `json:"session_id"`
	Status         string    `json:"status"`
	UploadedChunks []int     `json:"uploaded_chunks"`
	MissingChunks  []int     `json:"missing_chunks"`
	TotalChunks    int       `json:"total_chunks"`
	Progress       float64   `json:"progress"`
	IsComplete     bool      `json:"is_complete"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// IncompleteUploadData 是合并前置校验失败时随 400 返回的数据体，
// 客户端据此只补传缺失分片即可续传。
type IncompleteUploadData struct {
	MissingChunks []int   `json:"missing_chunks"`
	Progress      float64 `json:"progress"`
}

// --- 内部领域模型 ---

// UploadSession 定义了分片上传会话（存储在缓存中，JSON 序列化）。
// UploadedChunks 记录已接收的分片索引；分片到达顺序不保证，
// 合并时始终按索引序重排。
type UploadSession struct {
	SessionID      string       `json:"session_id"`
	OwnerID        uint         `json:"owner_id"`
	VideoID        uint         `json:"video_id"`
	FileName       string       `json:"file_name"`
	FileSize       int64        `json:"file_size"`
	MimeType       string       `json:"mime_type"`
	ChunkSize      int64        `json:"chunk_size"`
	TotalChunks    int          `json:"total_chunks"`
	UploadedChunks map[int]bool `json:"uploaded_chunks"`
	Status         string       `json:"status"`
	ExpireAt       time.Time    `json:"expire_at"`
}

// UploadedCount 返回已接收的分片数。
func (s *UploadSession) UploadedCount() int {
	return len(s.UploadedChunks)
}

// Progress 返回当前进度百分比，[0,100]。
func (s *UploadSession) Progress() float64 {
	if s.TotalChunks <= 0 {
		return 0
	}
	return float64(s.UploadedCount()) / float64(s.TotalChunks) * 100
}

// MissingChunks 返回 [0,total_chunks) 与已上传集合的差集，升序。
func (s *UploadSession) MissingChunks() []int {
	missing := make([]int, 0)
	for i := 0; i < s.TotalChunks; i++ {
		if !s.UploadedChunks[i] {
			missing = append(missing, i)
		}
	}
	return missing
}

// AllChunksUploaded 判断是否所有分片均已接收。
func (s *UploadSession) AllChunksUploaded() bool {
	return s.UploadedCount() >= s.TotalChunks
}
