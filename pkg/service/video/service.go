/*
 * @Description: 视频目录服务（元信息查询、更新与删除）
 * @Author: 星河
 * @Date: 2025-03-27 11:08:33
 * @LastEditTime: 2025-08-28 14:02:19
 * @LastEditors: 星河
 */
package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/xinghe-v/xinghe-video/internal/infra/storage"
	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
	"github.com/xinghe-v/xinghe-video/pkg/domain/repository"
	"github.com/xinghe-v/xinghe-video/pkg/idgen"
	"github.com/xinghe-v/xinghe-video/pkg/service/utility"
	"github.com/xinghe-v/xinghe-video/pkg/service/volume"
)

const (
	detailCachePrefix = "video:detail:"
	detailCacheTTL    = 10 * time.Minute
)

// Viewer 描述当前请求者的身份。ID 为 0 表示匿名。
type Viewer struct {
	ID      uint
	IsAdmin bool
}

// IVideoService 定义了视频目录的查询与管理操作。
type IVideoService interface {
	// ResolvePublicID 把视频公共 ID 解码为内部 ID。
	ResolvePublicID(publicID string) (uint, error)
	GetVideo(ctx context.Context, viewer Viewer, publicID string) (*model.VideoResponse, error)
	// FindPlayable 供流媒体端使用：返回内部记录并完成可见性校验。
	FindPlayable(ctx context.Context, viewer Viewer, publicID string) (*model.Video, error)
	List(ctx context.Context, viewer Viewer, opts model.VideoListOptions) (*model.VideoListResponse, error)
	Update(ctx context.Context, viewer Viewer, publicID string, req *model.UpdateVideoRequest) (*model.VideoResponse, error)
	Delete(ctx context.Context, viewer Viewer, publicID string) error
	// InvalidateCache 由事件监听器在状态变化后调用。
	InvalidateCache(ctx context.Context, videoID uint)
}

type videoService struct {
	repo      repository.VideoRepository
	cache     utility.CacheService
	policySvc volume.IStoragePolicyService
}

func NewVideoService(repo repository.VideoRepository, cache utility.CacheService, policySvc volume.IStoragePolicyService) IVideoService {
	return &videoService{repo: repo, cache: cache, policySvc: policySvc}
}

func (s *videoService) ResolvePublicID(publicID string) (uint, error) {
	id, entityType, err := idgen.DecodePublicID(publicID)
	if err != nil || entityType != idgen.EntityTypeVideo {
		return 0, constant.ErrInvalidPublicID
	}
	return id, nil
}

func (s *videoService) findByID(ctx context.Context, id uint) (*model.Video, error) {
	cacheKey := fmt.Sprintf("%s%d", detailCachePrefix, id)
	if data, err := s.cache.Get(ctx, cacheKey); err == nil {
		var v model.Video
		if err := json.Unmarshal([]byte(data), &v); err == nil {
			return &v, nil
		}
	}

	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(v); err == nil {
		if err := s.cache.Set(ctx, cacheKey, string(data), detailCacheTTL); err != nil {
			log.Printf("⚠️ 写入视频详情缓存失败: %v", err)
		}
	}
	return v, nil
}

// canSee 判断观看者是否有权看到这条记录。
// private 只有所有者和管理员可见，其余可见性对所有人开放。
func canSee(viewer Viewer, v *model.Video) bool {
	if v.Visibility != constant.VisibilityPrivate {
		return true
	}
	return viewer.IsAdmin || (viewer.ID != 0 && viewer.ID == v.OwnerID)
}

func canManage(viewer Viewer, v *model.Video) bool {
	return viewer.IsAdmin || (viewer.ID != 0 && viewer.ID == v.OwnerID)
}

func (s *videoService) GetVideo(ctx context.Context, viewer Viewer, publicID string) (*model.VideoResponse, error) {
	id, err := s.ResolvePublicID(publicID)
	if err != nil {
		return nil, err
	}
	v, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// 对无权者隐藏存在性
	if !canSee(viewer, v) {
		return nil, constant.ErrNotFound
	}
	return ToResponse(v)
}

func (s *videoService) FindPlayable(ctx context.Context, viewer Viewer, publicID string) (*model.Video, error) {
	id, err := s.ResolvePublicID(publicID)
	if err != nil {
		return nil, err
	}
	v, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(viewer, v) {
		return nil, constant.ErrForbidden
	}
	// processing/failed 没有有效的文件指针，inactive 是主动下架
	if v.Status != constant.VideoStatusActive || v.FilePath == "" {
		return nil, constant.ErrVideoNotPlayable
	}
	return v, nil
}

func (s *videoService) List(ctx context.Context, viewer Viewer, opts model.VideoListOptions) (*model.VideoListResponse, error) {
	// 非管理员的公共列表只展示 active + public，
	// 查询自己的列表时不做限制。
	listingOwn := viewer.ID != 0 && opts.OwnerID == viewer.ID
	if !viewer.IsAdmin && !listingOwn {
		opts.Status = constant.VideoStatusActive
		opts.Visibility = constant.VisibilityPublic
	}

	videos, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	list := make([]*model.VideoResponse, 0, len(videos))
	for _, v := range videos {
		resp, err := ToResponse(v)
		if err != nil {
			return nil, err
		}
		list = append(list, resp)
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return &model.VideoListResponse{List: list, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *videoService) Update(ctx context.Context, viewer Viewer, publicID string, req *model.UpdateVideoRequest) (*model.VideoResponse, error) {
	id, err := s.ResolvePublicID(publicID)
	if err != nil {
		return nil, err
	}
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(viewer, v) {
		return nil, constant.ErrForbidden
	}

	if req.Title != nil {
		v.Title = *req.Title
	}
	if req.Description != nil {
		v.Description = *req.Description
	}
	if req.Visibility != nil {
		switch *req.Visibility {
		case constant.VisibilityPublic, constant.VisibilityUnlisted, constant.VisibilityPrivate:
			v.Visibility = *req.Visibility
		default:
			return nil, fmt.Errorf("%w: 无效的可见性取值 %q", constant.ErrBadRequest, *req.Visibility)
		}
	}
	if req.CategoryID != nil {
		if *req.CategoryID == "" {
			v.CategoryID.Valid = false
		} else {
			categoryID, entityType, err := idgen.DecodePublicID(*req.CategoryID)
			if err != nil || entityType != idgen.EntityTypeCategory {
				return nil, constant.ErrInvalidPublicID
			}
			v.CategoryID.Int64 = int64(categoryID)
			v.CategoryID.Valid = true
		}
	}

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	s.InvalidateCache(ctx, v.ID)
	return ToResponse(v)
}

func (s *videoService) Delete(ctx context.Context, viewer Viewer, publicID string) error {
	id, err := s.ResolvePublicID(publicID)
	if err != nil {
		return err
	}
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(viewer, v) {
		return constant.ErrForbidden
	}

	if v.FilePath != "" {
		policy, err := s.policySvc.GetActivePolicy(ctx)
		if err == nil {
			if provider, perr := storage.NewProvider(policy.Type); perr == nil {
				if _, derr := provider.Delete(ctx, policy, []string{v.FilePath}); derr != nil {
					log.Printf("⚠️ 删除视频 %d 的存储对象失败: %v", v.ID, derr)
				}
			}
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, constant.ErrNotFound) {
			return nil
		}
		return err
	}
	s.InvalidateCache(ctx, id)
	return nil
}

func (s *videoService) InvalidateCache(ctx context.Context, videoID uint) {
	cacheKey := fmt.Sprintf("%s%d", detailCachePrefix, videoID)
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		log.Printf("⚠️ 失效视频详情缓存失败: %v", err)
	}
}
