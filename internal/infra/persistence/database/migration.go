/*
 * @Description: 数据库表结构迁移与初始数据
 * @Author: 星河
 * @Date: 2025-03-16 11:30:55
 * @LastEditTime: 2025-08-27 19:03:28
 * @LastEditors: 星河
 */
package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/xinghe-v/xinghe-video/internal/pkg/security"
)

// Migrate 创建缺失的表并写入初始数据。重复执行是安全的。
func Migrate(db *sql.DB, dbType string) error {
	for _, stmt := range tableStatements(dbType) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("执行建表语句失败: %w", err)
		}
	}
	if err := seedAdminUser(db, dbType); err != nil {
		return err
	}
	if err := seedCategories(db, dbType); err != nil {
		return err
	}
	log.Println("✅ 数据库迁移完成。")
	return nil
}

func tableStatements(dbType string) []string {
	// 各方言的自增主键与时间戳写法不同，其余保持一致
	var pk, now string
	switch dbType {
	case "mysql":
		pk = "BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY"
		now = "CURRENT_TIMESTAMP"
	case "postgres":
		pk = "BIGSERIAL PRIMARY KEY"
		now = "CURRENT_TIMESTAMP"
	default: // sqlite
		pk = "INTEGER PRIMARY KEY AUTOINCREMENT"
		now = "CURRENT_TIMESTAMP"
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			created_at TIMESTAMP NOT NULL DEFAULT %s,
			updated_at TIMESTAMP NOT NULL DEFAULT %s,
			username VARCHAR(64) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			nickname VARCHAR(64) NOT NULL DEFAULT '',
			email VARCHAR(128) NOT NULL DEFAULT '',
			last_login_at TIMESTAMP NULL,
			user_group_id INTEGER NOT NULL DEFAULT 2,
			status INTEGER NOT NULL DEFAULT 1
		)`, pk, now, now),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS categories (
			id %s,
			created_at TIMESTAMP NOT NULL DEFAULT %s,
			updated_at TIMESTAMP NOT NULL DEFAULT %s,
			name VARCHAR(64) NOT NULL UNIQUE,
			description VARCHAR(255) NOT NULL DEFAULT ''
		)`, pk, now, now),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS videos (
			id %s,
			created_at TIMESTAMP NOT NULL DEFAULT %s,
			updated_at TIMESTAMP NOT NULL DEFAULT %s,
			owner_id BIGINT NOT NULL,
			category_id BIGINT NULL,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			file_name VARCHAR(255) NOT NULL DEFAULT '',
			file_path VARCHAR(512) NOT NULL DEFAULT '',
			file_size BIGINT NOT NULL DEFAULT 0,
			mime_type VARCHAR(128) NOT NULL DEFAULT '',
			duration DOUBLE PRECISION NOT NULL DEFAULT 0,
			status VARCHAR(32) NOT NULL DEFAULT 'processing',
			visibility VARCHAR(32) NOT NULL DEFAULT 'public',
			views BIGINT NOT NULL DEFAULT 0
		)`, pk, now, now),

		`CREATE INDEX IF NOT EXISTS idx_videos_owner ON videos (owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_status ON videos (status)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS video_views (
			id %s,
			video_id BIGINT NOT NULL,
			user_id BIGINT NULL,
			ip VARCHAR(64) NOT NULL DEFAULT '',
			viewed_at TIMESTAMP NOT NULL DEFAULT %s,
			updated_at TIMESTAMP NOT NULL DEFAULT %s
		)`, pk, now, now),

		// 同一用户对同一视频只允许一条记录，挡掉并发首看的双插
		// （user_id 为 NULL 的匿名记录不受唯一约束影响）
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_video_views_video_user ON video_views (video_id, user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_video_views_video_ip ON video_views (video_id, ip)`,
	}
}

// seedAdminUser 初始化管理员账号（用户组 1）
func seedAdminUser(db *sql.DB, dbType string) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE user_group_id = 1`).Scan(&count); err != nil {
		return fmt.Errorf("查询管理员账号失败: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := security.HashPassword("admin123")
	if err != nil {
		return fmt.Errorf("生成管理员密码失败: %w", err)
	}

	query := `INSERT INTO users (username, password_hash, nickname, user_group_id, status) VALUES (?, ?, ?, 1, 1)`
	if dbType == "postgres" {
		query = `INSERT INTO users (username, password_hash, nickname, user_group_id, status) VALUES ($1, $2, $3, 1, 1)`
	}
	if _, err := db.Exec(query, "admin", hash, "管理员"); err != nil {
		return fmt.Errorf("写入管理员账号失败: %w", err)
	}
	log.Println("⚠️ 已创建默认管理员账号 admin / admin123，请尽快修改密码。")
	return nil
}

// seedCategories 初始化默认分类
func seedCategories(db *sql.DB, dbType string) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return fmt.Errorf("查询分类失败: %w", err)
	}
	if count > 0 {
		return nil
	}

	query := `INSERT INTO categories (name, description) VALUES (?, ?)`
	if dbType == "postgres" {
		query = `INSERT INTO categories (name, description) VALUES ($1, $2)`
	}
	defaults := [][2]string{
		{"影视", "电影与剧集片段"},
		{"音乐", "音乐与现场演出"},
		{"游戏", "游戏实况与攻略"},
		{"生活", "日常生活记录"},
	}
	for _, c := range defaults {
		if _, err := db.Exec(query, c[0], c[1]); err != nil {
			return fmt.Errorf("写入默认分类失败: %w", err)
		}
	}
	return nil
}
