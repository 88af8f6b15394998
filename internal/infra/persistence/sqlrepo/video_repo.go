/*
 * @Description: 视频目录仓储的 database/sql 实现
 * @Author: 星河
 * @Date: 2025-03-26 19:12:40
 * @LastEditTime: 2025-08-10 21:33:02
 * @LastEditors: 星河
 */
package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
	"github.com/xinghe-v/xinghe-video/pkg/domain/repository"
)

type videoRepo struct {
	db     *sql.DB
	dbType string
}

func NewVideoRepository(db *sql.DB, dbType string) repository.VideoRepository {
	return &videoRepo{db: db, dbType: dbType}
}

const videoColumns = `id, created_at, updated_at, owner_id, category_id, title, description,
	file_name, file_path, file_size, mime_type, duration, status, visibility, views`

func scanVideo(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.Video, error) {
	var v model.Video
	err := scanner.Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt, &v.OwnerID, &v.CategoryID,
		&v.Title, &v.Description, &v.FileName, &v.FilePath, &v.FileSize,
		&v.MimeType, &v.Duration, &v.Status, &v.Visibility, &v.Views)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, constant.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("扫描视频记录失败: %w", err)
	}
	return &v, nil
}

func (r *videoRepo) Create(ctx context.Context, video *model.Video) error {
	now := time.Now()
	video.CreatedAt = now
	video.UpdatedAt = now

	if r.dbType == "postgres" {
		query := rebind(r.dbType, `INSERT INTO videos
			(created_at, updated_at, owner_id, category_id, title, description,
			 file_name, file_path, file_size, mime_type, duration, status, visibility, views)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
		var id uint
		if err := r.db.QueryRowContext(ctx, query,
			video.CreatedAt, video.UpdatedAt, video.OwnerID, video.CategoryID,
			video.Title, video.Description, video.FileName, video.FilePath,
			video.FileSize, video.MimeType, video.Duration, video.Status,
			video.Visibility, video.Views).Scan(&id); err != nil {
			return fmt.Errorf("插入视频记录失败: %w", err)
		}
		video.ID = id
		return nil
	}

	result, err := r.db.ExecContext(ctx, `INSERT INTO videos
		(created_at, updated_at, owner_id, category_id, title, description,
		 file_name, file_path, file_size, mime_type, duration, status, visibility, views)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		video.CreatedAt, video.UpdatedAt, video.OwnerID, video.CategoryID,
		video.Title, video.Description, video.FileName, video.FilePath,
		video.FileSize, video.MimeType, video.Duration, video.Status,
		video.Visibility, video.Views)
	if err != nil {
		return fmt.Errorf("插入视频记录失败: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("获取视频自增 ID 失败: %w", err)
	}
	video.ID = uint(id)
	return nil
}

func (r *videoRepo) FindByID(ctx context.Context, id uint) (*model.Video, error) {
	query := rebind(r.dbType, `SELECT `+videoColumns+` FROM videos WHERE id = ?`)
	return scanVideo(r.db.QueryRowContext(ctx, query, id))
}

func (r *videoRepo) List(ctx context.Context, opts model.VideoListOptions) ([]*model.Video, int64, error) {
	var conds []string
	var args []interface{}
	if opts.OwnerID > 0 {
		conds = append(conds, "owner_id = ?")
		args = append(args, opts.OwnerID)
	}
	if opts.CategoryID > 0 {
		conds = append(conds, "category_id = ?")
		args = append(args, opts.CategoryID)
	}
	if opts.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, opts.Status)
	}
	if opts.Visibility != "" {
		conds = append(conds, "visibility = ?")
		args = append(args, opts.Visibility)
	}
	if opts.Keyword != "" {
		conds = append(conds, "title LIKE ?")
		args = append(args, "%"+opts.Keyword+"%")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	countQuery := rebind(r.dbType, `SELECT COUNT(*) FROM videos`+where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计视频总数失败: %w", err)
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	listQuery := rebind(r.dbType, `SELECT `+videoColumns+` FROM videos`+where+
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`)
	listArgs := append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询视频列表失败: %w", err)
	}
	defer rows.Close()

	var videos []*model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, 0, err
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("遍历视频列表失败: %w", err)
	}
	return videos, total, nil
}

func (r *videoRepo) Update(ctx context.Context, video *model.Video) error {
	query := rebind(r.dbType, `UPDATE videos SET updated_at = ?, category_id = ?,
		title = ?, description = ?, visibility = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query,
		time.Now(), video.CategoryID, video.Title, video.Description, video.Visibility, video.ID)
	if err != nil {
		return fmt.Errorf("更新视频记录失败: %w", err)
	}
	return checkAffected(result)
}

func (r *videoRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	query := rebind(r.dbType, `UPDATE videos SET status = ?, updated_at = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("更新视频状态失败: %w", err)
	}
	return checkAffected(result)
}

func (r *videoRepo) MarkActive(ctx context.Context, id uint, filePath string, fileSize int64, mimeType string) error {
	query := rebind(r.dbType, `UPDATE videos SET status = ?, file_path = ?, file_size = ?,
		mime_type = ?, updated_at = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query,
		constant.VideoStatusActive, filePath, fileSize, mimeType, time.Now(), id)
	if err != nil {
		return fmt.Errorf("激活视频记录失败: %w", err)
	}
	return checkAffected(result)
}

func (r *videoRepo) UpdateDuration(ctx context.Context, id uint, duration float64) error {
	query := rebind(r.dbType, `UPDATE videos SET duration = ?, updated_at = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, duration, time.Now(), id); err != nil {
		return fmt.Errorf("回填视频时长失败: %w", err)
	}
	return nil
}

func (r *videoRepo) IncrementViews(ctx context.Context, id uint) error {
	// 自增在数据库端完成，并发安全
	query := rebind(r.dbType, `UPDATE videos SET views = views + 1 WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("自增观看数失败: %w", err)
	}
	return nil
}

func (r *videoRepo) Delete(ctx context.Context, id uint) error {
	query := rebind(r.dbType, `DELETE FROM videos WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("删除视频记录失败: %w", err)
	}
	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return nil
	}
	if n == 0 {
		return constant.ErrNotFound
	}
	return nil
}
