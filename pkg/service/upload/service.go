/*
 * @Description: 分片上传会话服务（会话生命周期、断点续传、合并入库）
 * @Author: 星河
 * @Date: 2025-05-07 15:40:18
 * @LastEditTime: 2025-08-28 11:22:46
 * @LastEditors: 星河
 */
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xinghe-v/xinghe-video/internal/infra/storage"
	"github.com/xinghe-v/xinghe-video/internal/pkg/event"
	"github.com/xinghe-v/xinghe-video/pkg/config"
	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
	"github.com/xinghe-v/xinghe-video/pkg/domain/repository"
	"github.com/xinghe-v/xinghe-video/pkg/idgen"
	"github.com/xinghe-v/xinghe-video/pkg/service/utility"
	"github.com/xinghe-v/xinghe-video/pkg/service/video"
	"github.com/xinghe-v/xinghe-video/pkg/service/volume"
)

const (
	sessionCachePrefix = "upload:session:"

	// 会话的业务有效期。过期后不再接受分片与合并请求。
	sessionLifetime = 24 * time.Hour
	// 缓存条目保留时间比业务有效期长，让清理任务能看到已过期的会话并回收临时文件。
	sessionCacheTTL = 48 * time.Hour
	// 已完成的会话短暂保留，让客户端的重试合并请求拿到相同结果。
	completedRetention = 10 * time.Minute

	defaultChunkSize   = 10 * 1024 * 1024  // 10MB
	defaultMaxFileSize = 500 * 1024 * 1024 // 500MB
)

// IncompleteUploadError 表示合并前置校验失败，携带缺失分片列表。
type IncompleteUploadError struct {
	Missing  []int
	Progress float64
}

func (e *IncompleteUploadError) Error() string {
	return fmt.Sprintf("上传尚未完成，缺失 %d 个分片", len(e.Missing))
}

func (e *IncompleteUploadError) Unwrap() error { return constant.ErrBadRequest }

// IUploadService 定义了分片上传会话的完整生命周期操作。
type IUploadService interface {
	InitUpload(ctx context.Context, ownerID uint, req *model.InitUploadRequest) (*model.UploadSessionData, error)
	UploadChunk(ctx context.Context, ownerID uint, sessionID string, index int, chunk io.Reader) (*model.ChunkUploadResult, error)
	CompleteUpload(ctx context.Context, ownerID uint, sessionID string) (*model.VideoResponse, error)
	GetStatus(ctx context.Context, ownerID uint, sessionID string) (*model.UploadStatusResponse, error)
	AbortUpload(ctx context.Context, ownerID uint, sessionID string) error
	// CleanupExpiredSessions 由定时任务调用，回收过期会话与孤儿分片目录。
	CleanupExpiredSessions(ctx context.Context) (int, error)
}

type uploadService struct {
	cache            utility.CacheService
	locker           *utility.KeyLocker
	videoRepo        repository.VideoRepository
	categoryRepo     repository.CategoryRepository
	policySvc        volume.IStoragePolicyService
	chunks           *ChunkStore
	bus              *event.Bus
	maxFileSize      int64
	defaultChunkSize int64
}

func NewUploadService(
	cache utility.CacheService,
	locker *utility.KeyLocker,
	videoRepo repository.VideoRepository,
	categoryRepo repository.CategoryRepository,
	policySvc volume.IStoragePolicyService,
	chunks *ChunkStore,
	bus *event.Bus,
	cfg *config.Config,
) IUploadService {
	maxFileSize := cfg.GetInt64(config.KeyUploadMaxFileSize)
	if maxFileSize <= 0 {
		maxFileSize = defaultMaxFileSize
	}
	chunkSize := cfg.GetInt64(config.KeyUploadChunkSize)
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &uploadService{
		cache:            cache,
		locker:           locker,
		videoRepo:        videoRepo,
		categoryRepo:     categoryRepo,
		policySvc:        policySvc,
		chunks:           chunks,
		bus:              bus,
		maxFileSize:      maxFileSize,
		defaultChunkSize: chunkSize,
	}
}

func sessionCacheKey(sessionID string) string {
	return sessionCachePrefix + sessionID
}

func (s *uploadService) loadSession(ctx context.Context, sessionID string) (*model.UploadSession, error) {
	data, err := s.cache.Get(ctx, sessionCacheKey(sessionID))
	if err != nil {
		if errors.Is(err, utility.ErrCacheMiss) {
			return nil, constant.ErrSessionNotFound
		}
		return nil, fmt.Errorf("读取上传会话失败: %w", err)
	}
	var sess model.UploadSession
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("解析上传会话失败: %w", err)
	}
	if sess.UploadedChunks == nil {
		sess.UploadedChunks = make(map[int]bool)
	}
	return &sess, nil
}

func (s *uploadService) saveSession(ctx context.Context, sess *model.UploadSession, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("序列化上传会话失败: %w", err)
	}
	if err := s.cache.Set(ctx, sessionCacheKey(sess.SessionID), string(data), ttl); err != nil {
		return fmt.Errorf("写入上传会话失败: %w", err)
	}
	return nil
}

// InitUpload 创建上传会话，并在目录中登记一条 processing 状态的占位记录。
func (s *uploadService) InitUpload(ctx context.Context, ownerID uint, req *model.InitUploadRequest) (*model.UploadSessionData, error) {
	if req.FileSize > s.maxFileSize {
		return nil, fmt.Errorf("%w: 文件大小超出上限 %d 字节", constant.ErrBadRequest, s.maxFileSize)
	}

	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		chunkSize = s.defaultChunkSize
	}
	// 声明的分片规格必须能覆盖整个文件
	if chunkSize*int64(req.TotalChunks) < req.FileSize {
		return nil, fmt.Errorf("%w: 分片规格与文件大小不匹配", constant.ErrBadRequest)
	}

	visibility := req.Visibility
	switch visibility {
	case "":
		visibility = constant.VisibilityPublic
	case constant.VisibilityPublic, constant.VisibilityUnlisted, constant.VisibilityPrivate:
	default:
		return nil, fmt.Errorf("%w: 无效的可见性取值 %q", constant.ErrBadRequest, req.Visibility)
	}

	v := &model.Video{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		MimeType:    req.MimeType,
		Status:      constant.VideoStatusProcessing,
		Visibility:  visibility,
	}
	if req.CategoryID != "" {
		categoryID, entityType, err := idgen.DecodePublicID(req.CategoryID)
		if err != nil || entityType != idgen.EntityTypeCategory {
			return nil, constant.ErrInvalidPublicID
		}
		if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
			return nil, fmt.Errorf("分类不存在: %w", err)
		}
		v.CategoryID.Int64 = int64(categoryID)
		v.CategoryID.Valid = true
	}

	if err := s.videoRepo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("创建视频占位记录失败: %w", err)
	}

	sess := &model.UploadSession{
		SessionID:      uuid.NewString(),
		OwnerID:        ownerID,
		VideoID:        v.ID,
		FileName:       req.FileName,
		FileSize:       req.FileSize,
		MimeType:       req.MimeType,
		ChunkSize:      chunkSize,
		TotalChunks:    req.TotalChunks,
		UploadedChunks: make(map[int]bool),
		Status:         constant.SessionStatusPending,
		ExpireAt:       time.Now().Add(sessionLifetime),
	}
	if err := s.saveSession(ctx, sess, sessionCacheTTL); err != nil {
		return nil, err
	}

	videoPublicID, err := idgen.GeneratePublicID(v.ID, idgen.EntityTypeVideo)
	if err != nil {
		return nil, err
	}
	log.Printf("创建上传会话 %s (视频 %s, 共 %d 片)", sess.SessionID, videoPublicID, sess.TotalChunks)

	return &model.UploadSessionData{
		SessionID:   sess.SessionID,
		VideoID:     videoPublicID,
		ChunkSize:   chunkSize,
		TotalChunks: req.TotalChunks,
		ExpiresAt:   sess.ExpireAt.Unix(),
	}, nil
}

// checkWritable 校验会话是否还能接受写操作，发现过期时顺手落盘过期状态。
func (s *uploadService) checkWritable(ctx context.Context, sess *model.UploadSession) error {
	if sess.Status == constant.SessionStatusAssembling {
		return constant.ErrSessionAssembling
	}
	if constant.IsTerminalSessionStatus(sess.Status) {
		if sess.Status == constant.SessionStatusExpired {
			return constant.ErrSessionExpired
		}
		return constant.ErrSessionTerminal
	}
	if time.Now().After(sess.ExpireAt) {
		s.expireSession(ctx, sess)
		return constant.ErrSessionExpired
	}
	return nil
}

// expireSession 把会话标记为过期并把占位视频记录置为 failed
func (s *uploadService) expireSession(ctx context.Context, sess *model.UploadSession) {
	sess.Status = constant.SessionStatusExpired
	if err := s.saveSession(ctx, sess, completedRetention); err != nil {
		log.Printf("⚠️ 落盘过期会话 %s 失败: %v", sess.SessionID, err)
	}
	if err := s.videoRepo.UpdateStatus(ctx, sess.VideoID, constant.VideoStatusFailed); err != nil {
		log.Printf("⚠️ 标记过期会话 %s 的视频失败: %v", sess.SessionID, err)
	}
	if err := s.chunks.RemoveSession(sess.SessionID); err != nil {
		log.Printf("⚠️ 清理过期会话 %s 的分片目录失败: %v", sess.SessionID, err)
	}
}

// UploadChunk 接收一个分片。同一索引重复上传是无操作成功，
// 既不重写已落盘的数据也不改变会话状态。
func (s *uploadService) UploadChunk(ctx context.Context, ownerID uint, sessionID string, index int, chunk io.Reader) (*model.ChunkUploadResult, error) {
	s.locker.Lock(sessionID)
	defer s.locker.Unlock(sessionID)

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.OwnerID != ownerID {
		return nil, constant.ErrForbidden
	}
	if err := s.checkWritable(ctx, sess); err != nil {
		return nil, err
	}
	if index < 0 || index >= sess.TotalChunks {
		return nil, fmt.Errorf("%w: 索引 %d 超出 [0, %d)", constant.ErrChunkIndexOutOfRange, index, sess.TotalChunks)
	}

	// 幂等：已记录的索引直接返回当前状态，不重写存储也不改会话。
	// 客户端重试因此是至多一次写入。
	if sess.UploadedChunks[index] {
		return &model.ChunkUploadResult{
			UploadedChunks: sess.UploadedCount(),
			TotalChunks:    sess.TotalChunks,
			Progress:       sess.Progress(),
			IsComplete:     sess.AllChunksUploaded(),
		}, nil
	}

	// 多读一个字节即可判定超限
	size, err := s.chunks.Save(sessionID, index, io.LimitReader(chunk, sess.ChunkSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrStorageFailure, err)
	}
	if size > sess.ChunkSize {
		if delErr := s.chunks.Delete(sessionID, index); delErr != nil {
			log.Printf("⚠️ 删除超限分片 %s/%d 失败: %v", sessionID, index, delErr)
		}
		return nil, fmt.Errorf("%w: 分片大小超过声明的 %d 字节", constant.ErrBadRequest, sess.ChunkSize)
	}

	sess.UploadedChunks[index] = true
	sess.Status = constant.SessionStatusUploading
	if err := s.saveSession(ctx, sess, sessionCacheTTL); err != nil {
		return nil, err
	}

	return &model.ChunkUploadResult{
		UploadedChunks: sess.UploadedCount(),
		TotalChunks:    sess.TotalChunks,
		Progress:       sess.Progress(),
		IsComplete:     sess.AllChunksUploaded(),
	}, nil
}

// CompleteUpload 校验完整性后按索引序合并分片并写入最终存储。
// 重复调用是幂等的：已完成的会话直接返回当前目录记录。
func (s *uploadService) CompleteUpload(ctx context.Context, ownerID uint, sessionID string) (*model.VideoResponse, error) {
	s.locker.Lock(sessionID)
	defer s.locker.Unlock(sessionID)

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.OwnerID != ownerID {
		return nil, constant.ErrForbidden
	}

	if sess.Status == constant.SessionStatusCompleted {
		v, err := s.videoRepo.FindByID(ctx, sess.VideoID)
		if err != nil {
			return nil, err
		}
		return video.ToResponse(v)
	}
	if err := s.checkWritable(ctx, sess); err != nil {
		return nil, err
	}

	if !sess.AllChunksUploaded() {
		return nil, &IncompleteUploadError{
			Missing:  sess.MissingChunks(),
			Progress: sess.Progress(),
		}
	}

	sess.Status = constant.SessionStatusAssembling
	if err := s.saveSession(ctx, sess, sessionCacheTTL); err != nil {
		return nil, err
	}

	result, err := s.assemble(ctx, sess)
	if err != nil {
		sess.Status = constant.SessionStatusFailed
		if saveErr := s.saveSession(ctx, sess, completedRetention); saveErr != nil {
			log.Printf("⚠️ 落盘失败会话 %s 失败: %v", sessionID, saveErr)
		}
		if updErr := s.videoRepo.UpdateStatus(ctx, sess.VideoID, constant.VideoStatusFailed); updErr != nil {
			log.Printf("⚠️ 标记失败会话 %s 的视频失败: %v", sessionID, updErr)
		}
		s.bus.Publish(event.VideoStatusChanged, sess.VideoID)
		return nil, err
	}

	if err := s.videoRepo.MarkActive(ctx, sess.VideoID, result.Source, result.Size, result.MimeType); err != nil {
		// 分片已在合并时消耗，会话无法重试，进入终态而不是滞留在 assembling
		sess.Status = constant.SessionStatusFailed
		if saveErr := s.saveSession(ctx, sess, completedRetention); saveErr != nil {
			log.Printf("⚠️ 落盘失败会话 %s 失败: %v", sessionID, saveErr)
		}
		if updErr := s.videoRepo.UpdateStatus(ctx, sess.VideoID, constant.VideoStatusFailed); updErr != nil {
			log.Printf("⚠️ 标记失败会话 %s 的视频失败: %v", sessionID, updErr)
		}
		s.bus.Publish(event.VideoStatusChanged, sess.VideoID)
		return nil, fmt.Errorf("激活视频记录失败: %w", err)
	}

	sess.Status = constant.SessionStatusCompleted
	if err := s.saveSession(ctx, sess, completedRetention); err != nil {
		log.Printf("⚠️ 落盘完成会话 %s 失败: %v", sessionID, err)
	}
	if err := s.chunks.RemoveSession(sessionID); err != nil {
		log.Printf("⚠️ 清理会话 %s 的分片目录失败: %v", sessionID, err)
	}

	s.bus.Publish(event.VideoUploaded, sess.VideoID)
	s.bus.Publish(event.VideoStatusChanged, sess.VideoID)
	log.Printf("✅ 上传会话 %s 合并完成 (视频 ID %d, %d 字节)", sessionID, sess.VideoID, result.Size)

	v, err := s.videoRepo.FindByID(ctx, sess.VideoID)
	if err != nil {
		return nil, err
	}
	return video.ToResponse(v)
}

// assemble 按索引序把分片拼成完整文件，每消费一片立即删除该片，
// 然后把合并结果写入当前生效的存储端。
func (s *uploadService) assemble(ctx context.Context, sess *model.UploadSession) (*storage.UploadResult, error) {
	merged, err := os.CreateTemp("", "xinghe-merge-*")
	if err != nil {
		return nil, fmt.Errorf("%w: 创建合并临时文件失败: %v", constant.ErrStorageFailure, err)
	}
	mergedName := merged.Name()
	defer os.Remove(mergedName)

	var mergedSize int64
	for i := 0; i < sess.TotalChunks; i++ {
		chunk, err := s.chunks.Open(sess.SessionID, i)
		if err != nil {
			merged.Close()
			return nil, fmt.Errorf("%w: 分片 %d 丢失或不可读: %v", constant.ErrStorageFailure, i, err)
		}
		n, err := io.Copy(merged, chunk)
		chunk.Close()
		if err != nil {
			merged.Close()
			return nil, fmt.Errorf("%w: 合并分片 %d 失败: %v", constant.ErrStorageFailure, i, err)
		}
		mergedSize += n
		if err := s.chunks.Delete(sess.SessionID, i); err != nil {
			log.Printf("⚠️ 删除已合并分片 %s/%d 失败: %v", sess.SessionID, i, err)
		}
	}
	if err := merged.Close(); err != nil {
		return nil, fmt.Errorf("%w: 关闭合并文件失败: %v", constant.ErrStorageFailure, err)
	}
	if mergedSize != sess.FileSize {
		log.Printf("⚠️ 会话 %s 合并大小 %d 与声明大小 %d 不一致", sess.SessionID, mergedSize, sess.FileSize)
	}

	policy, err := s.policySvc.GetActivePolicy(ctx)
	if err != nil {
		return nil, err
	}
	provider, err := storage.NewProvider(policy.Type)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(mergedName)
	if err != nil {
		return nil, fmt.Errorf("%w: 打开合并文件失败: %v", constant.ErrStorageFailure, err)
	}
	defer f.Close()

	// 入库的 MIME 以扩展名解析为准，客户端在 init 时的声明不采信；
	// 内容嗅探出视频类型时优先采用嗅探结果。
	mimeType := video.ContentTypeByExtension(sess.FileName)
	head := make([]byte, 512)
	if n, _ := f.Read(head); n > 0 {
		if sniffed := http.DetectContentType(head[:n]); strings.HasPrefix(sniffed, "video/") {
			mimeType = sniffed
		}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: 重置合并文件读取位置失败: %v", constant.ErrStorageFailure, err)
	}

	key := buildObjectKey(sess.FileName)
	result, err := provider.Upload(ctx, f, policy, key)
	if err != nil {
		return nil, fmt.Errorf("%w: 写入最终存储失败: %v", constant.ErrStorageFailure, err)
	}
	result.MimeType = mimeType
	return result, nil
}

// buildObjectKey 生成最终存储对象的 Key，保留原始扩展名
func buildObjectKey(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return "videos/" + uuid.NewString() + ext
}

// GetStatus 返回会话进度，包含缺失分片列表供客户端续传。
func (s *uploadService) GetStatus(ctx context.Context, ownerID uint, sessionID string) (*model.UploadStatusResponse, error) {
	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.OwnerID != ownerID {
		return nil, constant.ErrForbidden
	}
	if !constant.IsTerminalSessionStatus(sess.Status) && time.Now().After(sess.ExpireAt) {
		s.locker.Lock(sessionID)
		s.expireSession(ctx, sess)
		s.locker.Unlock(sessionID)
	}

	uploaded := make([]int, 0, sess.UploadedCount())
	for i := 0; i < sess.TotalChunks; i++ {
		if sess.UploadedChunks[i] {
			uploaded = append(uploaded, i)
		}
	}

	return &model.UploadStatusResponse{
		SessionID:      sess.SessionID,
		Status:         sess.Status,
		UploadedChunks: uploaded,
		MissingChunks:  sess.MissingChunks(),
		TotalChunks:    sess.TotalChunks,
		Progress:       sess.Progress(),
		IsComplete:     sess.AllChunksUploaded(),
		ExpiresAt:      sess.ExpireAt,
	}, nil
}

// AbortUpload 终止会话并清理分片。目录记录保留为 failed，便于追溯。
func (s *uploadService) AbortUpload(ctx context.Context, ownerID uint, sessionID string) error {
	s.locker.Lock(sessionID)
	defer s.locker.Unlock(sessionID)

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.OwnerID != ownerID {
		return constant.ErrForbidden
	}
	if sess.Status == constant.SessionStatusAssembling {
		return constant.ErrSessionAssembling
	}

	if err := s.chunks.RemoveSession(sessionID); err != nil {
		log.Printf("⚠️ 清理中止会话 %s 的分片目录失败: %v", sessionID, err)
	}
	if sess.Status != constant.SessionStatusCompleted {
		if err := s.videoRepo.UpdateStatus(ctx, sess.VideoID, constant.VideoStatusFailed); err != nil {
			log.Printf("⚠️ 标记中止会话 %s 的视频失败: %v", sessionID, err)
		}
		s.bus.Publish(event.VideoStatusChanged, sess.VideoID)
	}
	if err := s.cache.Delete(ctx, sessionCacheKey(sessionID)); err != nil {
		return fmt.Errorf("删除上传会话失败: %w", err)
	}
	log.Printf("上传会话 %s 已中止", sessionID)
	return nil
}

// CleanupExpiredSessions 回收过期会话与磁盘上的孤儿分片目录。
func (s *uploadService) CleanupExpiredSessions(ctx context.Context) (int, error) {
	keys, err := s.cache.Scan(ctx, sessionCachePrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("扫描上传会话失败: %w", err)
	}

	live := make(map[string]struct{}, len(keys))
	cleaned := 0
	for _, key := range keys {
		sessionID := strings.TrimPrefix(key, sessionCachePrefix)
		live[sessionID] = struct{}{}

		s.locker.Lock(sessionID)
		sess, err := s.loadSession(ctx, sessionID)
		if err == nil && !constant.IsTerminalSessionStatus(sess.Status) && time.Now().After(sess.ExpireAt) {
			s.expireSession(ctx, sess)
			cleaned++
		}
		s.locker.Unlock(sessionID)
	}

	// 缓存条目已消失但目录还在的会话，直接回收目录
	dirs, err := s.chunks.ListSessions()
	if err != nil {
		return cleaned, fmt.Errorf("列举分片目录失败: %w", err)
	}
	for _, dir := range dirs {
		if _, ok := live[dir]; ok {
			continue
		}
		if err := s.chunks.RemoveSession(dir); err != nil {
			log.Printf("⚠️ 清理孤儿分片目录 %s 失败: %v", dir, err)
			continue
		}
		cleaned++
	}
	return cleaned, nil
}
