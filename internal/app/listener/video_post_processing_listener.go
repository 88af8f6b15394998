/*
 * @Description: 视频上传后处理监听器（时长回填与缓存失效）
 * @Author: 星河
 * @Date: 2025-06-30 11:15:44
 * @LastEditTime: 2025-08-28 22:03:51
 * @LastEditors: 星河
 */
package listener

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/xinghe-v/xinghe-video/internal/pkg/event"
	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/repository"
	"github.com/xinghe-v/xinghe-video/pkg/service/probe"
	"github.com/xinghe-v/xinghe-video/pkg/service/video"
	"github.com/xinghe-v/xinghe-video/pkg/service/volume"
)

// VideoPostProcessingListener 订阅上传完成与状态变化事件。
// 上传完成后异步探测时长并回填，状态变化后失效详情缓存。
type VideoPostProcessingListener struct {
	videoRepo repository.VideoRepository
	videoSvc  video.IVideoService
	policySvc volume.IStoragePolicyService
	probeSvc  probe.IProbeService
}

func NewVideoPostProcessingListener(
	videoRepo repository.VideoRepository,
	videoSvc video.IVideoService,
	policySvc volume.IStoragePolicyService,
	probeSvc probe.IProbeService,
) *VideoPostProcessingListener {
	return &VideoPostProcessingListener{
		videoRepo: videoRepo,
		videoSvc:  videoSvc,
		policySvc: policySvc,
		probeSvc:  probeSvc,
	}
}

// Register 把监听器挂到事件总线上
func (l *VideoPostProcessingListener) Register(bus *event.Bus) {
	bus.Subscribe(event.VideoUploaded, l.onVideoUploaded)
	bus.Subscribe(event.VideoStatusChanged, l.onVideoStatusChanged)
}

func (l *VideoPostProcessingListener) onVideoUploaded(e event.Event) {
	videoID, ok := e.Payload.(uint)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	v, err := l.videoRepo.FindByID(ctx, videoID)
	if err != nil {
		log.Printf("⚠️ 时长探测: 查询视频 %d 失败: %v", videoID, err)
		return
	}

	policy, err := l.policySvc.GetActivePolicy(ctx)
	if err != nil {
		return
	}
	// 时长探测需要本地文件路径，云端存储暂不支持
	if policy.Type != constant.PolicyTypeLocal {
		return
	}

	duration, err := l.probeSvc.Duration(ctx, filepath.Join(policy.BasePath, filepath.FromSlash(v.FilePath)))
	if err != nil {
		log.Printf("⚠️ 探测视频 %d 时长失败: %v", videoID, err)
		return
	}
	if duration <= 0 {
		return
	}

	if err := l.videoRepo.UpdateDuration(ctx, videoID, duration); err != nil {
		log.Printf("⚠️ 回填视频 %d 时长失败: %v", videoID, err)
		return
	}
	l.videoSvc.InvalidateCache(ctx, videoID)
}

func (l *VideoPostProcessingListener) onVideoStatusChanged(e event.Event) {
	videoID, ok := e.Payload.(uint)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	l.videoSvc.InvalidateCache(ctx, videoID)
}
