/*
 * @Description:
 * @Author: 星河
 * @Date: 2025-03-26 15:14:02
 * @LastEditTime: 2025-08-10 20:55:16
 * @LastEditors: 星河
 */
package repository

import (
	"context"

	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
)

// VideoRepository 定义了视频目录记录的持久化接口。
type VideoRepository interface {
	Create(ctx context.Context, video *model.Video) error
	FindByID(ctx context.Context, id uint) (*model.Video, error)
	List(ctx context.Context, opts model.VideoListOptions) ([]*model.Video, int64, error)
	Update(ctx context.Context, video *model.Video) error
	// UpdateStatus 只改状态字段，用于上传失败/中止时的标记。
	UpdateStatus(ctx context.Context, id uint, status string) error
	// MarkActive 在合并成功后一次性写入最终文件指针并切换到 active。
	MarkActive(ctx context.Context, id uint, filePath string, fileSize int64, mimeType string) error
	// UpdateDuration 由时长探测异步回填。
	UpdateDuration(ctx context.Context, id uint, duration float64) error
	// IncrementViews 在存储层以 views = views + 1 的方式原子自增，
	// 并发观看无需在应用层串行化。
	IncrementViews(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}
