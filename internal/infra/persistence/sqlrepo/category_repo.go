/*
 * @Description: 视频分类仓储的 database/sql 实现
 * @Author: 星河
 * @Date: 2025-03-26 20:05:33
 * @LastEditTime: 2025-05-30 14:28:55
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

type categoryRepo struct {
	db     *sql.DB
	dbType string
}

func NewCategoryRepository(db *sql.DB, dbType string) repository.CategoryRepository {
	return &categoryRepo{db: db, dbType: dbType}
}

const categoryColumns = `id, created_at, updated_at, name, description`

func (r *categoryRepo) scanCategory(row *sql.Row) (*model.Category, error) {
	var c model.Category
	err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.Name, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, constant.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("扫描分类记录失败: %w", err)
	}
	return &c, nil
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now

	if r.dbType == "postgres" {
		query := rebind(r.dbType, `INSERT INTO categories (created_at, updated_at, name, description)
			VALUES (?, ?, ?, ?) RETURNING id`)
		var id uint
		if err := r.db.QueryRowContext(ctx, query,
			category.CreatedAt, category.UpdatedAt, category.Name, category.Description).Scan(&id); err != nil {
			return fmt.Errorf("插入分类失败: %w", err)
		}
		category.ID = id
		return nil
	}

	result, err := r.db.ExecContext(ctx, `INSERT INTO categories (created_at, updated_at, name, description)
		VALUES (?, ?, ?, ?)`,
		category.CreatedAt, category.UpdatedAt, category.Name, category.Description)
	if err != nil {
		return fmt.Errorf("插入分类失败: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("获取分类自增 ID 失败: %w", err)
	}
	category.ID = uint(id)
	return nil
}

func (r *categoryRepo) FindByID(ctx context.Context, id uint) (*model.Category, error) {
	query := rebind(r.dbType, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`)
	return r.scanCategory(r.db.QueryRowContext(ctx, query, id))
}

func (r *categoryRepo) FindByName(ctx context.Context, name string) (*model.Category, error) {
	query := rebind(r.dbType, `SELECT `+categoryColumns+` FROM categories WHERE name = ?`)
	return r.scanCategory(r.db.QueryRowContext(ctx, query, name))
}

func (r *categoryRepo) List(ctx context.Context) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("查询分类列表失败: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("扫描分类记录失败: %w", err)
		}
		categories = append(categories, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历分类列表失败: %w", err)
	}
	return categories, nil
}

func (r *categoryRepo) Update(ctx context.Context, category *model.Category) error {
	query := rebind(r.dbType, `UPDATE categories SET updated_at = ?, name = ?, description = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, time.Now(), category.Name, category.Description, category.ID)
	if err != nil {
		return fmt.Errorf("更新分类失败: %w", err)
	}
	return checkAffected(result)
}

func (r *categoryRepo) Delete(ctx context.Context, id uint) error {
	query := rebind(r.dbType, `DELETE FROM categories WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("删除分类失败: %w", err)
	}
	return checkAffected(result)
}
