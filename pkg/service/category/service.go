/*
 * @Description: 视频分类服务
 * @Author: 星河
 * @Date: 2025-03-27 15:40:02
 * @LastEditTime: 2025-05-30 15:08:41
 * @LastEditors: 星河
 */
package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
	"github.com/xinghe-v/xinghe-video/pkg/domain/repository"
	"github.com/xinghe-v/xinghe-video/pkg/idgen"
)

// ICategoryService 定义了分类的管理操作。创建与删改仅限管理员，由路由层控制。
type ICategoryService interface {
	Create(ctx context.Context, req *model.CreateCategoryRequest) (*model.CategoryResponse, error)
	List(ctx context.Context) ([]*model.CategoryResponse, error)
	Update(ctx context.Context, publicID string, req *model.CreateCategoryRequest) (*model.CategoryResponse, error)
	Delete(ctx context.Context, publicID string) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) ICategoryService {
	return &categoryService{repo: repo}
}

func toResponse(c *model.Category) (*model.CategoryResponse, error) {
	publicID, err := idgen.GeneratePublicID(c.ID, idgen.EntityTypeCategory)
	if err != nil {
		return nil, err
	}
	return &model.CategoryResponse{
		ID:          publicID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}, nil
}

func resolveID(publicID string) (uint, error) {
	id, entityType, err := idgen.DecodePublicID(publicID)
	if err != nil || entityType != idgen.EntityTypeCategory {
		return 0, constant.ErrInvalidPublicID
	}
	return id, nil
}

func (s *categoryService) Create(ctx context.Context, req *model.CreateCategoryRequest) (*model.CategoryResponse, error) {
	if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
		return nil, fmt.Errorf("%w: 分类名称已存在", constant.ErrConflict)
	} else if !errors.Is(err, constant.ErrNotFound) {
		return nil, err
	}

	c := &model.Category{Name: req.Name, Description: req.Description}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return toResponse(c)
}

func (s *categoryService) List(ctx context.Context) ([]*model.CategoryResponse, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]*model.CategoryResponse, 0, len(categories))
	for _, c := range categories {
		resp, err := toResponse(c)
		if err != nil {
			return nil, err
		}
		list = append(list, resp)
	}
	return list, nil
}

func (s *categoryService) Update(ctx context.Context, publicID string, req *model.CreateCategoryRequest) (*model.CategoryResponse, error) {
	id, err := resolveID(publicID)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = req.Name
	c.Description = req.Description
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return toResponse(c)
}

func (s *categoryService) Delete(ctx context.Context, publicID string) error {
	id, err := resolveID(publicID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
