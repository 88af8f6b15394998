/*
 * @Description:
 * @Author: 星河
 * @Date: 2025-03-26 15:20:48
 * @LastEditTime: 2025-05-30 14:16:33
 * @LastEditors: 星河
 */
package repository

import (
	"context"

	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
)

// CategoryRepository 定义了视频分类的持久化接口。
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id uint) (*model.Category, error)
	FindByName(ctx context.Context, name string) (*model.Category, error)
	List(ctx context.Context) ([]*model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uint) error
}
