/*
 * @Description: 跨域中间件
 * @Author: 星河
 * @Date: 2025-03-16 09:50:14
 * @LastEditTime: 2025-06-14 12:33:08
 * @LastEditors: 星河
 */
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS 开放跨域访问。Range 相关响应头需要显式暴露，
// 否则浏览器里的播放器拿不到 Content-Range 无法做拖动进度条。
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			origin = "*"
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Range, X-Requested-With")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges, Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
