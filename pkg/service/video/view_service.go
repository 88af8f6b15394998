/*
 * @Description: 独立观看计数服务（用户/IP 去重）
 * @Author: 星河
 * @Date: 2025-07-08 14:33:20
 * @LastEditTime: 2025-08-28 16:21:55
 * @LastEditors: 星河
 */
package video

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
	"github.com/xinghe-v/xinghe-video/pkg/domain/repository"
	"github.com/xinghe-v/xinghe-video/pkg/service/utility"
)

const (
	viewerSetCachePrefix = "video:viewers:"
	viewerSetTTL         = 7 * 24 * time.Hour
)

// IViewService 负责观看计数。一个观看者对同一视频只计一次：
// 登录用户以用户 ID 识别，匿名观看退化为客户端 IP。
type IViewService interface {
	// RecordView 登记一次观看，返回这次观看是否产生了新计数。
	RecordView(ctx context.Context, v *model.Video, viewerID uint, ip string) (bool, error)
}

type viewService struct {
	viewRepo  repository.VideoViewRepository
	videoRepo repository.VideoRepository
	cache     utility.CacheService
}

func NewViewService(viewRepo repository.VideoViewRepository, videoRepo repository.VideoRepository, cache utility.CacheService) IViewService {
	return &viewService{viewRepo: viewRepo, videoRepo: videoRepo, cache: cache}
}

func (s *viewService) RecordView(ctx context.Context, v *model.Video, viewerID uint, ip string) (bool, error) {
	// private 视频的观看不进入公开计数
	if v.Visibility == constant.VisibilityPrivate {
		return false, nil
	}

	// 缓存集合挡掉绝大多数重复观看，未命中再查库
	member := fmt.Sprintf("ip:%s", ip)
	if viewerID != 0 {
		member = fmt.Sprintf("u:%d", viewerID)
	}
	setKey := fmt.Sprintf("%s%d", viewerSetCachePrefix, v.ID)
	if added, err := s.cache.SAdd(ctx, setKey, member); err == nil {
		if added == 0 {
			return false, nil
		}
		// 集合只是加速层，真正的去重依据在数据库里
		if err := s.cache.Expire(ctx, setKey, viewerSetTTL); err != nil {
			log.Printf("⚠️ 设置观看者集合过期时间失败: %v", err)
		}
	}

	counted, err := s.dedupAndRecord(ctx, v.ID, viewerID, ip)
	if err != nil {
		return false, err
	}
	if counted {
		if err := s.videoRepo.IncrementViews(ctx, v.ID); err != nil {
			return false, err
		}
	}
	return counted, nil
}

// dedupAndRecord 执行数据库层面的去重判定并落观看记录。
func (s *viewService) dedupAndRecord(ctx context.Context, videoID, viewerID uint, ip string) (bool, error) {
	if viewerID != 0 {
		// 该用户已有记录则不重复计数
		if _, err := s.viewRepo.FindByVideoAndUser(ctx, videoID, viewerID); err == nil {
			return false, nil
		} else if !errors.Is(err, constant.ErrNotFound) {
			return false, err
		}

		// 同一 IP 的匿名记录视为同一个观看者登录后的回访，
		// 升级该记录而不是新增计数。
		if anon, err := s.viewRepo.FindAnonymousByVideoAndIP(ctx, videoID, ip); err == nil {
			if err := s.viewRepo.AttachUser(ctx, anon.ID, viewerID); err != nil {
				log.Printf("⚠️ 升级匿名观看记录 %d 失败: %v", anon.ID, err)
			}
			return false, nil
		} else if !errors.Is(err, constant.ErrNotFound) {
			return false, err
		}

		view := &model.VideoView{
			VideoID: videoID,
			UserID:  sql.NullInt64{Int64: int64(viewerID), Valid: true},
			IP:      ip,
		}
		if err := s.viewRepo.Create(ctx, view); err != nil {
			// 并发首看撞上唯一约束，另一条请求已经计过数
			if errors.Is(err, constant.ErrConflict) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	}

	// 匿名观看者：同一 IP 只计一次（包括已被登录用户占用的 IP）
	if _, err := s.viewRepo.FindByVideoAndIP(ctx, videoID, ip); err == nil {
		return false, nil
	} else if !errors.Is(err, constant.ErrNotFound) {
		return false, err
	}

	view := &model.VideoView{VideoID: videoID, IP: ip}
	if err := s.viewRepo.Create(ctx, view); err != nil {
		return false, err
	}
	return true, nil
}
