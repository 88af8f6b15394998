/*
 * @Description: 观看去重记录仓储的 database/sql 实现
 * @Author: 星河
 * @Date: 2025-04-10 20:18:56
 * @LastEditTime: 2025-07-08 12:20:09
 * @LastEditors: 星河
 */
package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
	"github.com/xinghe-v/xinghe-video/pkg/domain/repository"
)

type videoViewRepo struct {
	db     *sql.DB
	dbType string
}

func NewVideoViewRepository(db *sql.DB, dbType string) repository.VideoViewRepository {
	return &videoViewRepo{db: db, dbType: dbType}
}

const viewColumns = `id, video_id, user_id, ip, viewed_at, updated_at`

func (r *videoViewRepo) scanView(row *sql.Row) (*model.VideoView, error) {
	var v model.VideoView
	err := row.Scan(&v.ID, &v.VideoID, &v.UserID, &v.IP, &v.ViewedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, constant.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("扫描观看记录失败: %w", err)
	}
	return &v, nil
}

func (r *videoViewRepo) Create(ctx context.Context, view *model.VideoView) error {
	now := time.Now()
	if view.ViewedAt.IsZero() {
		view.ViewedAt = now
	}
	view.UpdatedAt = now

	if r.dbType == "postgres" {
		query := rebind(r.dbType, `INSERT INTO video_views (video_id, user_id, ip, viewed_at, updated_at)
			VALUES (?, ?, ?, ?, ?) RETURNING id`)
		var id uint
		if err := r.db.QueryRowContext(ctx, query,
			view.VideoID, view.UserID, view.IP, view.ViewedAt, view.UpdatedAt).Scan(&id); err != nil {
			return r.mapInsertError(ctx, view, err)
		}
		view.ID = id
		return nil
	}

	result, err := r.db.ExecContext(ctx, `INSERT INTO video_views (video_id, user_id, ip, viewed_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		view.VideoID, view.UserID, view.IP, view.ViewedAt, view.UpdatedAt)
	if err != nil {
		return r.mapInsertError(ctx, view, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("获取观看记录自增 ID 失败: %w", err)
	}
	view.ID = uint(id)
	return nil
}

// mapInsertError 把 (video_id, user_id) 唯一索引的并发双插判定为 ErrConflict。
// 各驱动的唯一约束错误类型不同，统一用插入后回查的方式判定。
func (r *videoViewRepo) mapInsertError(ctx context.Context, view *model.VideoView, insertErr error) error {
	if view.UserID.Valid {
		if _, findErr := r.FindByVideoAndUser(ctx, view.VideoID, uint(view.UserID.Int64)); findErr == nil {
			return constant.ErrConflict
		}
	}
	return fmt.Errorf("插入观看记录失败: %w", insertErr)
}

func (r *videoViewRepo) FindByVideoAndUser(ctx context.Context, videoID, userID uint) (*model.VideoView, error) {
	query := rebind(r.dbType, `SELECT `+viewColumns+` FROM video_views
		WHERE video_id = ? AND user_id = ? LIMIT 1`)
	return r.scanView(r.db.QueryRowContext(ctx, query, videoID, userID))
}

func (r *videoViewRepo) FindAnonymousByVideoAndIP(ctx context.Context, videoID uint, ip string) (*model.VideoView, error) {
	query := rebind(r.dbType, `SELECT `+viewColumns+` FROM video_views
		WHERE video_id = ? AND ip = ? AND user_id IS NULL LIMIT 1`)
	return r.scanView(r.db.QueryRowContext(ctx, query, videoID, ip))
}

func (r *videoViewRepo) FindByVideoAndIP(ctx context.Context, videoID uint, ip string) (*model.VideoView, error) {
	query := rebind(r.dbType, `SELECT `+viewColumns+` FROM video_views
		WHERE video_id = ? AND ip = ? LIMIT 1`)
	return r.scanView(r.db.QueryRowContext(ctx, query, videoID, ip))
}

func (r *videoViewRepo) AttachUser(ctx context.Context, id uint, userID uint) error {
	query := rebind(r.dbType, `UPDATE video_views SET user_id = ?, updated_at = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, sql.NullInt64{Int64: int64(userID), Valid: true}, time.Now(), id)
	if err != nil {
		return fmt.Errorf("升级匿名观看记录失败: %w", err)
	}
	return checkAffected(result)
}
