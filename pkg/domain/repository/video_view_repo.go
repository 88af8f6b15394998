/*
 * @Description:
 * @Author: 星河
 * @Date: 2025-04-10 19:40:15
 * @LastEditTime: 2025-07-08 12:02:40
 * @LastEditors: 星河
 */
package repository

import (
	"context"

	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
)

// VideoViewRepository 定义了观看去重记录的持久化接口。
// 查不到记录时返回 constant.ErrNotFound。
type VideoViewRepository interface {
	Create(ctx context.Context, view *model.VideoView) error
	FindByVideoAndUser(ctx context.Context, videoID, userID uint) (*model.VideoView, error)
	// FindAnonymousByVideoAndIP 只命中未关联用户的匿名记录。
	FindAnonymousByVideoAndIP(ctx context.Context, videoID uint, ip string) (*model.VideoView, error)
	FindByVideoAndIP(ctx context.Context, videoID uint, ip string) (*model.VideoView, error)
	// AttachUser 把匿名记录升级为带用户 ID 的记录并刷新时间戳。
	AttachUser(ctx context.Context, id uint, userID uint) error
}
