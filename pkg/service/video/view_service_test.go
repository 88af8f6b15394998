/*
 * @Description: 观看去重计数的单元测试
 * @Author: 星河
 * @Date: 2025-07-09 10:15:41
 * @LastEditTime: 2025-08-29 15:02:17
 * @LastEditors: 星河
 */
package video

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
	"github.com/xinghe-v/xinghe-video/pkg/service/utility"
)

type fakeViewRepo struct {
	mu        sync.Mutex
	nextID    uint
	views     []*model.VideoView
	attached  int
	createErr error
}

func newFakeViewRepo() *fakeViewRepo {
	return &fakeViewRepo{nextID: 1}
}

func (r *fakeViewRepo) Create(ctx context.Context, view *model.VideoView) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	view.ID = r.nextID
	r.nextID++
	clone := *view
	r.views = append(r.views, &clone)
	return nil
}

func (r *fakeViewRepo) FindByVideoAndUser(ctx context.Context, videoID, userID uint) (*model.VideoView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.views {
		if v.VideoID == videoID && v.UserID.Valid && uint(v.UserID.Int64) == userID {
			clone := *v
			return &clone, nil
		}
	}
	return nil, constant.ErrNotFound
}

func (r *fakeViewRepo) FindAnonymousByVideoAndIP(ctx context.Context, videoID uint, ip string) (*model.VideoView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.views {
		if v.VideoID == videoID && !v.UserID.Valid && v.IP == ip {
			clone := *v
			return &clone, nil
		}
	}
	return nil, constant.ErrNotFound
}

func (r *fakeViewRepo) FindByVideoAndIP(ctx context.Context, videoID uint, ip string) (*model.VideoView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.views {
		if v.VideoID == videoID && v.IP == ip {
			clone := *v
			return &clone, nil
		}
	}
	return nil, constant.ErrNotFound
}

func (r *fakeViewRepo) AttachUser(ctx context.Context, id uint, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.views {
		if v.ID == id {
			v.UserID = sql.NullInt64{Int64: int64(userID), Valid: true}
			r.attached++
			return nil
		}
	}
	return constant.ErrNotFound
}

// countingVideoRepo 只关心 IncrementViews 被调用的次数
type countingVideoRepo struct {
	mu         sync.Mutex
	increments map[uint]int
}

func newCountingVideoRepo() *countingVideoRepo {
	return &countingVideoRepo{increments: make(map[uint]int)}
}

func (r *countingVideoRepo) IncrementViews(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.increments[id]++
	return nil
}

func (r *countingVideoRepo) count(id uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.increments[id]
}

func (r *countingVideoRepo) Create(ctx context.Context, v *model.Video) error { return nil }
func (r *countingVideoRepo) FindByID(ctx context.Context, id uint) (*model.Video, error) {
	return nil, constant.ErrNotFound
}
func (r *countingVideoRepo) List(ctx context.Context, opts model.VideoListOptions) ([]*model.Video, int64, error) {
	return nil, 0, nil
}
func (r *countingVideoRepo) Update(ctx context.Context, v *model.Video) error { return nil }
func (r *countingVideoRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	return nil
}
func (r *countingVideoRepo) MarkActive(ctx context.Context, id uint, filePath string, fileSize int64, mimeType string) error {
	return nil
}
func (r *countingVideoRepo) UpdateDuration(ctx context.Context, id uint, duration float64) error {
	return nil
}
func (r *countingVideoRepo) Delete(ctx context.Context, id uint) error { return nil }

func newViewTestEnv() (IViewService, *fakeViewRepo, *countingVideoRepo) {
	viewRepo := newFakeViewRepo()
	videoRepo := newCountingVideoRepo()
	svc := NewViewService(viewRepo, videoRepo, utility.NewMemoryCacheService())
	return svc, viewRepo, videoRepo
}

func publicVideo(id uint) *model.Video {
	return &model.Video{ID: id, Visibility: constant.VisibilityPublic, Status: constant.VideoStatusActive}
}

func TestRecordViewDedupByIP(t *testing.T) {
	svc, _, videoRepo := newViewTestEnv()
	ctx := context.Background()
	v := publicVideo(1)

	counted, err := svc.RecordView(ctx, v, 0, "1.2.3.4")
	if err != nil {
		t.Fatalf("首次观看失败: %v", err)
	}
	if !counted {
		t.Fatal("首次匿名观看应计数")
	}

	counted, err = svc.RecordView(ctx, v, 0, "1.2.3.4")
	if err != nil {
		t.Fatalf("重复观看失败: %v", err)
	}
	if counted {
		t.Fatal("同一 IP 重复观看不应再计数")
	}
	if got := videoRepo.count(1); got != 1 {
		t.Fatalf("计数自增次数 = %d, 期望 1", got)
	}
}

func TestRecordViewDedupByUser(t *testing.T) {
	svc, _, videoRepo := newViewTestEnv()
	ctx := context.Background()
	v := publicVideo(1)

	if counted, _ := svc.RecordView(ctx, v, 7, "1.2.3.4"); !counted {
		t.Fatal("登录用户首次观看应计数")
	}
	// 换 IP 也不应重复计数，身份以用户 ID 为准
	if counted, _ := svc.RecordView(ctx, v, 7, "5.6.7.8"); counted {
		t.Fatal("同一用户换 IP 重复观看不应再计数")
	}
	if got := videoRepo.count(1); got != 1 {
		t.Fatalf("计数自增次数 = %d, 期望 1", got)
	}
}

func TestRecordViewUpgradesAnonymousOnLogin(t *testing.T) {
	svc, viewRepo, videoRepo := newViewTestEnv()
	ctx := context.Background()
	v := publicVideo(1)

	if counted, _ := svc.RecordView(ctx, v, 0, "1.2.3.4"); !counted {
		t.Fatal("匿名首次观看应计数")
	}
	// 同一 IP 的观看者登录后回访：升级原记录，不新增计数
	if counted, _ := svc.RecordView(ctx, v, 7, "1.2.3.4"); counted {
		t.Fatal("匿名记录升级不应产生新计数")
	}
	if viewRepo.attached != 1 {
		t.Fatalf("AttachUser 调用次数 = %d, 期望 1", viewRepo.attached)
	}
	if got := videoRepo.count(1); got != 1 {
		t.Fatalf("计数自增次数 = %d, 期望 1", got)
	}

	// 升级后该用户的后续观看命中用户路径
	if counted, _ := svc.RecordView(ctx, v, 7, "9.9.9.9"); counted {
		t.Fatal("升级后的用户重复观看不应再计数")
	}
}

func TestRecordViewDistinctViewers(t *testing.T) {
	svc, _, videoRepo := newViewTestEnv()
	ctx := context.Background()
	v := publicVideo(1)

	svc.RecordView(ctx, v, 0, "1.1.1.1")
	svc.RecordView(ctx, v, 0, "2.2.2.2")
	svc.RecordView(ctx, v, 8, "3.3.3.3")
	svc.RecordView(ctx, v, 9, "3.3.3.3")

	// 两个匿名 IP + 用户 8 + 用户 9。用户 9 与用户 8 同 IP，
	// 但该 IP 的记录已带用户 ID，不会触发匿名升级，按新观看者计数。
	if got := videoRepo.count(1); got != 4 {
		t.Fatalf("计数自增次数 = %d, 期望 4", got)
	}
}

func TestRecordViewConcurrentFirstViewConflict(t *testing.T) {
	svc, viewRepo, videoRepo := newViewTestEnv()
	ctx := context.Background()
	v := publicVideo(1)

	// 并发首看撞上 (video_id, user_id) 唯一约束：
	// 另一条请求已经计过数，本条按重复观看处理
	viewRepo.createErr = constant.ErrConflict
	counted, err := svc.RecordView(ctx, v, 7, "1.2.3.4")
	if err != nil {
		t.Fatalf("唯一约束冲突不应作为错误上抛: %v", err)
	}
	if counted {
		t.Fatal("冲突的插入不应再计数")
	}
	if got := videoRepo.count(1); got != 0 {
		t.Fatalf("计数自增次数 = %d, 期望 0", got)
	}
}

func TestRecordViewSkipsPrivateVideo(t *testing.T) {
	svc, viewRepo, videoRepo := newViewTestEnv()
	ctx := context.Background()
	v := &model.Video{ID: 1, Visibility: constant.VisibilityPrivate, Status: constant.VideoStatusActive}

	counted, err := svc.RecordView(ctx, v, 7, "1.2.3.4")
	if err != nil {
		t.Fatalf("私有视频观看失败: %v", err)
	}
	if counted {
		t.Fatal("私有视频观看不应计数")
	}
	if len(viewRepo.views) != 0 || videoRepo.count(1) != 0 {
		t.Fatal("私有视频观看不应留下任何记录")
	}

	// unlisted 正常计数
	u := &model.Video{ID: 2, Visibility: constant.VisibilityUnlisted, Status: constant.VideoStatusActive}
	if counted, _ := svc.RecordView(ctx, u, 7, "1.2.3.4"); !counted {
		t.Fatal("unlisted 视频观看应计数")
	}
}
