/*
 * @Description: 客户端真实 IP 获取工具
 * @Author: 星河
 * @Date: 2025-04-02 21:14:36
 * @LastEditTime: 2025-07-29 16:40:12
 * @LastEditors: 星河
 */
package util

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetRealClientIP 依次检查常见的代理头，返回最可信的客户端 IP。
// 优先级: X-Forwarded-For > X-Real-IP > CF-Connecting-IP > RemoteAddr
func GetRealClientIP(c *gin.Context) string {
	// X-Forwarded-For 可能包含多个 IP，第一个是原始客户端
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		for _, part := range parts {
			ip := strings.TrimSpace(part)
			if IsValidIP(ip) {
				return ip
			}
		}
	}

	if xri := strings.TrimSpace(c.GetHeader("X-Real-IP")); xri != "" && IsValidIP(xri) {
		return xri
	}

	// Cloudflare
	if cfip := strings.TrimSpace(c.GetHeader("CF-Connecting-IP")); cfip != "" && IsValidIP(cfip) {
		return cfip
	}

	return c.ClientIP()
}

// IsValidIP 判断字符串是否为合法的 IPv4/IPv6 地址
func IsValidIP(ip string) bool {
	return net.ParseIP(ip) != nil
}
