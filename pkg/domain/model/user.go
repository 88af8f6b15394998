/*
 * @Description: 用户领域模型
 * @Author: 星河
 * @Date: 2025-03-16 10:12:30
 * @LastEditTime: 2025-06-21 18:40:09
 * @LastEditors: 星河
 */
package model

import "time"

// 用户状态常量
const (
	UserStatusActive   = 1
	UserStatusInactive = 2
	UserStatusBanned   = 3
)

// 用户组约定：1 为管理员组，2 为普通用户组。
const (
	UserGroupAdmin   uint = 1
	UserGroupDefault uint = 2
)

type User struct {
	ID           uint       `json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Nickname     string     `json:"nickname"`
	Email        string     `json:"email"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	UserGroupID  uint       `json:"user_group_id"`
	Status       int        `json:"status"`
}

// LoginRequest 登录请求体
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录成功后的响应体
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    int64     `json:"expires_at"`
	User         *UserInfo `json:"user"`
}

// UserInfo 是对外暴露的用户信息，ID 使用公共 ID。
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	IsAdmin  bool   `json:"is_admin"`
}
