/*
 * @Description: 认证相关的共享类型定义
 * @Author: 星河
 * @Date: 2025-03-18 15:01:44
 * @LastEditTime: 2025-06-10 11:38:20
 * @LastEditors: 星河
 */
package auth

import "github.com/golang-jwt/jwt/v5"

// ClaimsKey 是存储在 gin.Context 中的用户凭证的键名
const ClaimsKey = "user_claims"

// CustomClaims 自定义的 JWT 载荷。
// UserID 与 UserGroupID 均为对外暴露的公共 ID。
type CustomClaims struct {
	UserID      string `json:"user_id"`
	UserGroupID string `json:"user_group_id"`
	jwt.RegisteredClaims
}
