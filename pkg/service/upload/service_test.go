/*
 * @Description: 分片上传会话服务的单元测试
 * @Author: 星河
 * @Date: 2025-05-10 14:08:55
 * @LastEditTime: 2025-08-29 11:40:28
 * @LastEditors: 星河
 */
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xinghe-v/xinghe-video/internal/pkg/event"
	"github.com/xinghe-v/xinghe-video/pkg/config"
	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
	"github.com/xinghe-v/xinghe-video/pkg/domain/repository"
	"github.com/xinghe-v/xinghe-video/pkg/idgen"
	"github.com/xinghe-v/xinghe-video/pkg/service/utility"
	"github.com/xinghe-v/xinghe-video/pkg/service/volume"
)

// --- 内存实现的测试替身 ---

var (
	_ repository.VideoRepository    = (*fakeVideoRepo)(nil)
	_ repository.CategoryRepository = fakeCategoryRepo{}
	_ volume.IStoragePolicyService  = (*fakePolicyService)(nil)
)

type fakeVideoRepo struct {
	mu            sync.Mutex
	nextID        uint
	videos        map[uint]*model.Video
	markActiveErr error
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{nextID: 1, videos: make(map[uint]*model.Video)}
}

func (r *fakeVideoRepo) Create(ctx context.Context, v *model.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v.ID = r.nextID
	r.nextID++
	v.CreatedAt = time.Now()
	clone := *v
	r.videos[v.ID] = &clone
	return nil
}

func (r *fakeVideoRepo) FindByID(ctx context.Context, id uint) (*model.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, constant.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

func (r *fakeVideoRepo) List(ctx context.Context, opts model.VideoListOptions) ([]*model.Video, int64, error) {
	return nil, 0, nil
}

func (r *fakeVideoRepo) Update(ctx context.Context, v *model.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *v
	r.videos[v.ID] = &clone
	return nil
}

func (r *fakeVideoRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return constant.ErrNotFound
	}
	v.Status = status
	return nil
}

func (r *fakeVideoRepo) MarkActive(ctx context.Context, id uint, filePath string, fileSize int64, mimeType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markActiveErr != nil {
		return r.markActiveErr
	}
	v, ok := r.videos[id]
	if !ok {
		return constant.ErrNotFound
	}
	v.Status = constant.VideoStatusActive
	v.FilePath = filePath
	v.FileSize = fileSize
	v.MimeType = mimeType
	return nil
}

func (r *fakeVideoRepo) UpdateDuration(ctx context.Context, id uint, duration float64) error {
	return nil
}

func (r *fakeVideoRepo) IncrementViews(ctx context.Context, id uint) error { return nil }

func (r *fakeVideoRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.videos, id)
	return nil
}

type fakeCategoryRepo struct{}

func (fakeCategoryRepo) Create(ctx context.Context, c *model.Category) error { return nil }
func (fakeCategoryRepo) FindByID(ctx context.Context, id uint) (*model.Category, error) {
	return nil, constant.ErrNotFound
}
func (fakeCategoryRepo) FindByName(ctx context.Context, name string) (*model.Category, error) {
	return nil, constant.ErrNotFound
}
func (fakeCategoryRepo) List(ctx context.Context) ([]*model.Category, error) { return nil, nil }
func (fakeCategoryRepo) Update(ctx context.Context, c *model.Category) error { return nil }
func (fakeCategoryRepo) Delete(ctx context.Context, id uint) error           { return nil }

type fakePolicyService struct {
	policy *model.StoragePolicy
}

func (s *fakePolicyService) GetActivePolicy(ctx context.Context) (*model.StoragePolicy, error) {
	return s.policy, nil
}

type testEnv struct {
	svc       IUploadService
	cache     utility.CacheService
	chunks    *ChunkStore
	videoRepo *fakeVideoRepo
	storeDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Chdir(t.TempDir())

	if err := idgen.InitSqidsEncoder(); err != nil {
		t.Fatalf("初始化 ID 编码器失败: %v", err)
	}
	cfg, err := config.NewConfig()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	storeDir := t.TempDir()
	cache := utility.NewMemoryCacheService()
	chunks := NewChunkStore(filepath.Join(t.TempDir(), "chunks"))
	videoRepo := newFakeVideoRepo()
	bus := event.NewBus()
	t.Cleanup(bus.Close)

	var policySvc volume.IStoragePolicyService = &fakePolicyService{policy: &model.StoragePolicy{
		Name:     "default",
		Type:     constant.PolicyTypeLocal,
		BasePath: storeDir,
	}}

	svc := NewUploadService(cache, utility.NewKeyLocker(), videoRepo, fakeCategoryRepo{},
		policySvc, chunks, bus, cfg)

	return &testEnv{svc: svc, cache: cache, chunks: chunks, videoRepo: videoRepo, storeDir: storeDir}
}

func initSession(t *testing.T, env *testEnv, totalChunks int, fileSize int64) *model.UploadSessionData {
	t.Helper()
	data, err := env.svc.InitUpload(context.Background(), 1, &model.InitUploadRequest{
		FileName:    "demo.mp4",
		FileSize:    fileSize,
		MimeType:    "video/mp4",
		TotalChunks: totalChunks,
		ChunkSize:   1024,
		Title:       "测试视频",
	})
	if err != nil {
		t.Fatalf("创建上传会话失败: %v", err)
	}
	return data
}

func uploadChunk(t *testing.T, env *testEnv, sessionID string, index int, content string) *model.ChunkUploadResult {
	t.Helper()
	result, err := env.svc.UploadChunk(context.Background(), 1, sessionID, index, strings.NewReader(content))
	if err != nil {
		t.Fatalf("上传分片 %d 失败: %v", index, err)
	}
	return result
}

// rewindExpiry 直接改写缓存里的会话，把业务有效期拨到过去
func rewindExpiry(t *testing.T, env *testEnv, sessionID string) {
	t.Helper()
	ctx := context.Background()
	raw, err := env.cache.Get(ctx, sessionCacheKey(sessionID))
	if err != nil {
		t.Fatalf("读取会话失败: %v", err)
	}
	var sess model.UploadSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		t.Fatalf("解析会话失败: %v", err)
	}
	sess.ExpireAt = time.Now().Add(-time.Minute)
	data, _ := json.Marshal(&sess)
	if err := env.cache.Set(ctx, sessionCacheKey(sessionID), string(data), time.Hour); err != nil {
		t.Fatalf("回写会话失败: %v", err)
	}
}

// --- 测试用例 ---

func TestUploadLifecycleOutOfOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parts := []string{"aaaa", "bbbb", "cc"}
	data := initSession(t, env, 3, 10)

	// 分片乱序到达
	uploadChunk(t, env, data.SessionID, 2, parts[2])
	uploadChunk(t, env, data.SessionID, 0, parts[0])
	result := uploadChunk(t, env, data.SessionID, 1, parts[1])

	if !result.IsComplete {
		t.Fatal("所有分片到齐后 IsComplete 应为 true")
	}
	if result.Progress != 100 {
		t.Fatalf("Progress = %v, 期望 100", result.Progress)
	}

	resp, err := env.svc.CompleteUpload(ctx, 1, data.SessionID)
	if err != nil {
		t.Fatalf("合并失败: %v", err)
	}
	if resp.Status != constant.VideoStatusActive {
		t.Fatalf("合并后视频状态 = %s, 期望 active", resp.Status)
	}

	// 最终文件内容必须是按索引序拼接的结果
	v, err := env.videoRepo.FindByID(ctx, 1)
	if err != nil {
		t.Fatalf("查询视频失败: %v", err)
	}
	merged, err := os.ReadFile(filepath.Join(env.storeDir, filepath.FromSlash(v.FilePath)))
	if err != nil {
		t.Fatalf("读取合并文件失败: %v", err)
	}
	want := strings.Join(parts, "")
	if !bytes.Equal(merged, []byte(want)) {
		t.Fatalf("合并内容 = %q, 期望 %q", merged, want)
	}

	// 分片临时目录应已回收
	if env.chunks.Exists(data.SessionID, 0) {
		t.Error("合并成功后分片文件不应残留")
	}
}

func TestUploadChunkIdempotent(t *testing.T) {
	env := newTestEnv(t)
	data := initSession(t, env, 2, 8)

	first := uploadChunk(t, env, data.SessionID, 0, "aaaa")
	again := uploadChunk(t, env, data.SessionID, 0, "AAAA")

	if first.UploadedChunks != 1 || again.UploadedChunks != 1 {
		t.Fatalf("重复上传同一分片后计数 = %d, 期望保持 1", again.UploadedChunks)
	}

	// 已记录的索引是至多一次写入：重试直接返回当前状态，不重写存储
	rc, err := env.chunks.Open(data.SessionID, 0)
	if err != nil {
		t.Fatalf("打开分片失败: %v", err)
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		t.Fatalf("读取分片失败: %v", err)
	}
	if buf.String() != "aaaa" {
		t.Fatalf("分片内容 = %q, 期望保留首次写入的 %q", buf.String(), "aaaa")
	}
}

func TestUploadChunkRejectsOversize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := initSession(t, env, 2, 2000)

	// 声明的分片大小为 1024 字节，超限分片应被拒收且不留痕
	oversize := strings.Repeat("x", 1100)
	_, err := env.svc.UploadChunk(ctx, 1, data.SessionID, 0, strings.NewReader(oversize))
	if !errors.Is(err, constant.ErrBadRequest) {
		t.Fatalf("超限分片应返回 ErrBadRequest，实际: %v", err)
	}
	if env.chunks.Exists(data.SessionID, 0) {
		t.Error("被拒收的分片不应留在磁盘上")
	}
	status, err := env.svc.GetStatus(ctx, 1, data.SessionID)
	if err != nil {
		t.Fatalf("查询状态失败: %v", err)
	}
	if len(status.UploadedChunks) != 0 {
		t.Fatalf("被拒收的分片不应计入进度: %v", status.UploadedChunks)
	}

	// 恰好等于声明大小的分片正常接收
	exact := strings.Repeat("y", 1024)
	if _, err := env.svc.UploadChunk(ctx, 1, data.SessionID, 0, strings.NewReader(exact)); err != nil {
		t.Fatalf("等于声明大小的分片应被接收: %v", err)
	}
}

func TestCompleteUploadRejectsMissingChunks(t *testing.T) {
	env := newTestEnv(t)
	data := initSession(t, env, 3, 10)

	uploadChunk(t, env, data.SessionID, 0, "aaaa")
	uploadChunk(t, env, data.SessionID, 2, "cc")

	_, err := env.svc.CompleteUpload(context.Background(), 1, data.SessionID)
	var incomplete *IncompleteUploadError
	if !errors.As(err, &incomplete) {
		t.Fatalf("期望 IncompleteUploadError，实际: %v", err)
	}
	if len(incomplete.Missing) != 1 || incomplete.Missing[0] != 1 {
		t.Fatalf("Missing = %v, 期望 [1]", incomplete.Missing)
	}

	// 校验失败不应改变会话，补传后合并应成功
	uploadChunk(t, env, data.SessionID, 1, "bbbb")
	if _, err := env.svc.CompleteUpload(context.Background(), 1, data.SessionID); err != nil {
		t.Fatalf("补传后合并失败: %v", err)
	}
}

func TestCompleteUploadIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := initSession(t, env, 1, 4)
	uploadChunk(t, env, data.SessionID, 0, "aaaa")

	first, err := env.svc.CompleteUpload(ctx, 1, data.SessionID)
	if err != nil {
		t.Fatalf("首次合并失败: %v", err)
	}
	second, err := env.svc.CompleteUpload(ctx, 1, data.SessionID)
	if err != nil {
		t.Fatalf("重复合并应幂等返回，实际: %v", err)
	}
	if first.ID != second.ID || second.Status != constant.VideoStatusActive {
		t.Fatalf("重复合并返回不一致: %+v vs %+v", first, second)
	}
}

func TestExpiredSessionRejectsOperations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := initSession(t, env, 2, 8)
	uploadChunk(t, env, data.SessionID, 0, "aaaa")

	rewindExpiry(t, env, data.SessionID)

	if _, err := env.svc.UploadChunk(ctx, 1, data.SessionID, 1, strings.NewReader("bbbb")); !errors.Is(err, constant.ErrSessionExpired) {
		t.Fatalf("过期会话接收分片应返回 ErrSessionExpired，实际: %v", err)
	}
	if _, err := env.svc.CompleteUpload(ctx, 1, data.SessionID); !errors.Is(err, constant.ErrSessionExpired) {
		t.Fatalf("过期会话合并应返回 ErrSessionExpired，实际: %v", err)
	}

	// 过期后占位视频记录应被标记为 failed
	v, err := env.videoRepo.FindByID(ctx, 1)
	if err != nil {
		t.Fatalf("查询视频失败: %v", err)
	}
	if v.Status != constant.VideoStatusFailed {
		t.Fatalf("过期会话的视频状态 = %s, 期望 failed", v.Status)
	}
}

func TestAssembleFailsWhenChunkVanishes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := initSession(t, env, 3, 10)
	uploadChunk(t, env, data.SessionID, 0, "aaaa")
	uploadChunk(t, env, data.SessionID, 1, "bbbb")
	uploadChunk(t, env, data.SessionID, 2, "cc")

	// 模拟磁盘故障：会话元数据认为分片 1 存在，但文件已丢失
	if err := env.chunks.Delete(data.SessionID, 1); err != nil {
		t.Fatalf("删除分片失败: %v", err)
	}

	_, err := env.svc.CompleteUpload(ctx, 1, data.SessionID)
	if !errors.Is(err, constant.ErrStorageFailure) {
		t.Fatalf("期望 ErrStorageFailure，实际: %v", err)
	}

	v, _ := env.videoRepo.FindByID(ctx, 1)
	if v.Status != constant.VideoStatusFailed {
		t.Fatalf("合并失败后视频状态 = %s, 期望 failed", v.Status)
	}

	// 会话进入终态，不再接受任何写操作
	if _, err := env.svc.UploadChunk(ctx, 1, data.SessionID, 1, strings.NewReader("bbbb")); !errors.Is(err, constant.ErrSessionTerminal) {
		t.Fatalf("失败会话接收分片应返回 ErrSessionTerminal，实际: %v", err)
	}
}

func TestCompleteUploadFailsWhenActivationFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := initSession(t, env, 1, 4)
	uploadChunk(t, env, data.SessionID, 0, "aaaa")

	// 合并成功但目录激活失败：分片已消耗，会话必须进入终态
	// 而不是滞留在 assembling 让客户端无限轮询
	env.videoRepo.markActiveErr = errors.New("数据库不可用")
	if _, err := env.svc.CompleteUpload(ctx, 1, data.SessionID); err == nil {
		t.Fatal("激活失败时合并应返回错误")
	}

	status, err := env.svc.GetStatus(ctx, 1, data.SessionID)
	if err != nil {
		t.Fatalf("查询状态失败: %v", err)
	}
	if status.Status != constant.SessionStatusFailed {
		t.Fatalf("会话状态 = %s, 期望 failed", status.Status)
	}
	v, _ := env.videoRepo.FindByID(ctx, 1)
	if v.Status != constant.VideoStatusFailed {
		t.Fatalf("视频状态 = %s, 期望 failed", v.Status)
	}

	// 重试不再报 assembling，而是明确的终态错误
	if _, err := env.svc.CompleteUpload(ctx, 1, data.SessionID); !errors.Is(err, constant.ErrSessionTerminal) {
		t.Fatalf("失败会话重试合并应返回 ErrSessionTerminal，实际: %v", err)
	}
}

func TestCompleteUploadResolvesMimeFromExtension(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 客户端声明的 MIME 与文件不符，入库以扩展名与内容嗅探为准
	data, err := env.svc.InitUpload(ctx, 1, &model.InitUploadRequest{
		FileName:    "demo.mp4",
		FileSize:    4,
		MimeType:    "text/html",
		TotalChunks: 1,
		ChunkSize:   1024,
		Title:       "声明与内容不符",
	})
	if err != nil {
		t.Fatalf("创建上传会话失败: %v", err)
	}
	uploadChunk(t, env, data.SessionID, 0, "aaaa")
	if _, err := env.svc.CompleteUpload(ctx, 1, data.SessionID); err != nil {
		t.Fatalf("合并失败: %v", err)
	}

	v, err := env.videoRepo.FindByID(ctx, 1)
	if err != nil {
		t.Fatalf("查询视频失败: %v", err)
	}
	if v.MimeType != "video/mp4" {
		t.Fatalf("入库 MIME = %q, 期望按扩展名解析为 video/mp4", v.MimeType)
	}
}

func TestAbortUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := initSession(t, env, 2, 8)
	uploadChunk(t, env, data.SessionID, 0, "aaaa")

	if err := env.svc.AbortUpload(ctx, 1, data.SessionID); err != nil {
		t.Fatalf("中止会话失败: %v", err)
	}

	// 会话消失，分片清理，目录记录保留为 failed
	if _, err := env.svc.GetStatus(ctx, 1, data.SessionID); !errors.Is(err, constant.ErrSessionNotFound) {
		t.Fatalf("中止后查询状态应返回 ErrSessionNotFound，实际: %v", err)
	}
	if env.chunks.Exists(data.SessionID, 0) {
		t.Error("中止后分片文件不应残留")
	}
	v, err := env.videoRepo.FindByID(ctx, 1)
	if err != nil {
		t.Fatalf("中止后目录记录应保留: %v", err)
	}
	if v.Status != constant.VideoStatusFailed {
		t.Fatalf("中止会话的视频状态 = %s, 期望 failed", v.Status)
	}

	// 重复中止返回 404
	if err := env.svc.AbortUpload(ctx, 1, data.SessionID); !errors.Is(err, constant.ErrSessionNotFound) {
		t.Fatalf("重复中止应返回 ErrSessionNotFound，实际: %v", err)
	}
}

func TestUploadOwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := initSession(t, env, 1, 4)

	if _, err := env.svc.UploadChunk(ctx, 2, data.SessionID, 0, strings.NewReader("aaaa")); !errors.Is(err, constant.ErrForbidden) {
		t.Fatalf("他人上传分片应返回 ErrForbidden，实际: %v", err)
	}
	if err := env.svc.AbortUpload(ctx, 2, data.SessionID); !errors.Is(err, constant.ErrForbidden) {
		t.Fatalf("他人中止会话应返回 ErrForbidden，实际: %v", err)
	}
}

func TestGetStatusReportsMissingChunks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := initSession(t, env, 4, 16)
	uploadChunk(t, env, data.SessionID, 3, "dddd")
	uploadChunk(t, env, data.SessionID, 0, "aaaa")

	status, err := env.svc.GetStatus(ctx, 1, data.SessionID)
	if err != nil {
		t.Fatalf("查询状态失败: %v", err)
	}
	wantMissing := []int{1, 2}
	if len(status.MissingChunks) != 2 || status.MissingChunks[0] != wantMissing[0] || status.MissingChunks[1] != wantMissing[1] {
		t.Fatalf("MissingChunks = %v, 期望 %v", status.MissingChunks, wantMissing)
	}
	if status.Progress != 50 {
		t.Fatalf("Progress = %v, 期望 50", status.Progress)
	}
	if status.Status != constant.SessionStatusUploading {
		t.Fatalf("Status = %s, 期望 uploading", status.Status)
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := initSession(t, env, 2, 8)
	uploadChunk(t, env, data.SessionID, 0, "aaaa")

	rewindExpiry(t, env, data.SessionID)

	cleaned, err := env.svc.CleanupExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("清理任务失败: %v", err)
	}
	if cleaned != 1 {
		t.Fatalf("清理数量 = %d, 期望 1", cleaned)
	}
	if env.chunks.Exists(data.SessionID, 0) {
		t.Error("清理后分片文件不应残留")
	}
}

func TestInitUploadValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 超过单文件上限
	_, err := env.svc.InitUpload(ctx, 1, &model.InitUploadRequest{
		FileName:    "huge.mp4",
		FileSize:    600 * 1024 * 1024,
		MimeType:    "video/mp4",
		TotalChunks: 60,
		Title:       "过大文件",
	})
	if !errors.Is(err, constant.ErrBadRequest) {
		t.Fatalf("超限文件应返回 ErrBadRequest，实际: %v", err)
	}

	// 分片规格覆盖不了声明的文件大小
	_, err = env.svc.InitUpload(ctx, 1, &model.InitUploadRequest{
		FileName:    "demo.mp4",
		FileSize:    4096,
		MimeType:    "video/mp4",
		TotalChunks: 2,
		ChunkSize:   1024,
		Title:       "规格不符",
	})
	if !errors.Is(err, constant.ErrBadRequest) {
		t.Fatalf("分片规格不符应返回 ErrBadRequest，实际: %v", err)
	}
}
