/*
 * @Description: JWT 鉴权中间件与请求身份提取
 * @Author: 星河
 * @Date: 2025-03-19 14:15:27
 * @LastEditTime: 2025-08-28 18:12:40
 * @LastEditors: 星河
 */
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xinghe-v/xinghe-video/internal/pkg/auth"
	authsvc "github.com/xinghe-v/xinghe-video/pkg/service/auth"
	"github.com/xinghe-v/xinghe-video/pkg/idgen"
	"github.com/xinghe-v/xinghe-video/pkg/response"
)

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// 浏览器 <video> 标签无法携带自定义请求头，允许 query 传递
	return c.Query("token")
}

// JWTAuth 强制鉴权。没有有效令牌的请求直接 401。
func JWTAuth(tokens authsvc.ITokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Fail(c, http.StatusUnauthorized, "缺少认证令牌")
			c.Abort()
			return
		}
		claims, err := tokens.Verify(token)
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, "无效或过期的令牌")
			c.Abort()
			return
		}
		c.Set(auth.ClaimsKey, claims)
		c.Next()
	}
}

// OptionalJWTAuth 可选鉴权。带了有效令牌就解析身份，没带或无效则按匿名放行。
func OptionalJWTAuth(tokens authsvc.ITokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if claims, err := tokens.Verify(token); err == nil {
				c.Set(auth.ClaimsKey, claims)
			}
		}
		c.Next()
	}
}

// AdminOnly 仅管理员组可通过，必须在 JWTAuth 之后使用。
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			response.Fail(c, http.StatusForbidden, "需要管理员权限")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentClaims 返回当前请求的令牌载荷，匿名请求返回 nil。
func CurrentClaims(c *gin.Context) *auth.CustomClaims {
	value, exists := c.Get(auth.ClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*auth.CustomClaims)
	if !ok {
		return nil
	}
	return claims
}

// CurrentUserID 返回当前请求者的内部用户 ID，匿名为 0。
func CurrentUserID(c *gin.Context) uint {
	claims := CurrentClaims(c)
	if claims == nil {
		return 0
	}
	id, entityType, err := idgen.DecodePublicID(claims.UserID)
	if err != nil || entityType != idgen.EntityTypeUser {
		return 0
	}
	return id
}

// IsAdmin 判断当前请求者是否属于管理员组（用户组 1）。
func IsAdmin(c *gin.Context) bool {
	claims := CurrentClaims(c)
	if claims == nil {
		return false
	}
	groupID, entityType, err := idgen.DecodePublicID(claims.UserGroupID)
	if err != nil || entityType != idgen.EntityTypeUserGroup {
		return false
	}
	return groupID == 1
}
