/*
 * @Description: 视频目录领域模型
 * @Author: 星河
 * @Date: 2025-03-20 16:05:12
 * @LastEditTime: 2025-08-09 22:18:47
 * @LastEditors: 星河
 */
package model

import (
	"database/sql"
	"time"
)

// Video 是视频目录记录。
// 上传进行中时 Status 为 processing，FilePath 为空占位；
// 只有合并完全成功后才会原子地切换到 active 并写入最终 FilePath。
type Video struct {
	ID          uint          `json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	OwnerID     uint          `json:"owner_id"`
	CategoryID  sql.NullInt64 `json:"-"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	FileName    string        `json:"file_name"`
	FilePath    string        `json:"-"`
	FileSize    int64         `json:"file_size"`
	MimeType    string        `json:"mime_type"`
	Duration    float64       `json:"duration"`
	Status      string        `json:"status"`
	Visibility  string        `json:"visibility"`
	Views       int64         `json:"views"`
}

// UpdateVideoRequest 更新视频元信息的请求体
type UpdateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CategoryID  *string `json:"category_id"`
	Visibility  *string `json:"visibility"`
}

// VideoListOptions 目录查询条件
type VideoListOptions struct {
	OwnerID    uint
	CategoryID uint
	Status     string
	Visibility string
	Keyword    string
	Page       int
	PageSize   int
}

// VideoResponse 是视频目录记录的 API 响应体，ID 使用公共 ID。
type VideoResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CategoryID  string    `json:"category_id,omitempty"`
	OwnerID     string    `json:"owner_id"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	MimeType    string    `json:"mime_type"`
	Duration    float64   `json:"duration"`
	Status      string    `json:"status"`
	Visibility  string    `json:"visibility"`
	Views       int64     `json:"views"`
	CreatedAt   time.Time `json:"created_at"`
}

// VideoListResponse 目录分页响应体
type VideoListResponse struct {
	List     []*VideoResponse `json:"list"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}
