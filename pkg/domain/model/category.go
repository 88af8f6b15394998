/*
 * @Description: 视频分类领域模型
 * @Author: 星河
 * @Date: 2025-03-25 09:20:41
 * @LastEditTime: 2025-05-30 14:11:08
 * @LastEditors: 星河
 */
package model

import "time"

type Category struct {
	ID          uint      `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// CreateCategoryRequest 创建/更新分类的请求体
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description,omitempty"`
}

// CategoryResponse 分类的 API 响应体，ID 使用公共 ID。
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
