/*
 * @Description: 用户仓储的 database/sql 实现
 * @Author: 星河
 * @Date: 2025-03-26 17:02:18
 * @LastEditTime: 2025-06-12 10:50:31
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

type userRepo struct {
	db     *sql.DB
	dbType string
}

func NewUserRepository(db *sql.DB, dbType string) repository.UserRepository {
	return &userRepo{db: db, dbType: dbType}
}

const userColumns = `id, created_at, updated_at, username, password_hash, nickname, email, last_login_at, user_group_id, status`

func (r *userRepo) scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Username, &u.PasswordHash,
		&u.Nickname, &u.Email, &lastLogin, &u.UserGroupID, &u.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, constant.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("扫描用户记录失败: %w", err)
	}
	if lastLogin.Valid {
		u.LastLoginAt = &lastLogin.Time
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if r.dbType == "postgres" {
		query := rebind(r.dbType, `INSERT INTO users
			(created_at, updated_at, username, password_hash, nickname, email, user_group_id, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
		var id uint
		if err := r.db.QueryRowContext(ctx, query,
			user.CreatedAt, user.UpdatedAt, user.Username, user.PasswordHash,
			user.Nickname, user.Email, user.UserGroupID, user.Status).Scan(&id); err != nil {
			return fmt.Errorf("插入用户失败: %w", err)
		}
		user.ID = id
		return nil
	}

	result, err := r.db.ExecContext(ctx, `INSERT INTO users
		(created_at, updated_at, username, password_hash, nickname, email, user_group_id, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.CreatedAt, user.UpdatedAt, user.Username, user.PasswordHash,
		user.Nickname, user.Email, user.UserGroupID, user.Status)
	if err != nil {
		return fmt.Errorf("插入用户失败: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("获取用户自增 ID 失败: %w", err)
	}
	user.ID = uint(id)
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, id uint) (*model.User, error) {
	query := rebind(r.dbType, `SELECT `+userColumns+` FROM users WHERE id = ?`)
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := rebind(r.dbType, `SELECT `+userColumns+` FROM users WHERE username = ?`)
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	query := rebind(r.dbType, `UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, at, time.Now(), id); err != nil {
		return fmt.Errorf("更新最后登录时间失败: %w", err)
	}
	return nil
}
