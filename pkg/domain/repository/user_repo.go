/*
 * @Description:
 * @Author: 星河
 * @Date: 2025-03-26 15:08:33
 * @LastEditTime: 2025-06-12 10:37:54
 * @LastEditors: 星河
 */
package repository

import (
	"context"
	"time"

	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
)

// UserRepository 定义了用户数据的持久化接口。
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
}
