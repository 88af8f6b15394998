/*
 * @Description: 按客户端 IP 的请求频率限制
 * @Author: 星河
 * @Date: 2025-06-21 20:10:33
 * @LastEditTime: 2025-08-02 10:05:19
 * @LastEditors: 星河
 */
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/xinghe-v/xinghe-video/pkg/response"
	"github.com/xinghe-v/xinghe-video/pkg/util"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit 为每个客户端 IP 维护一个令牌桶。
// rps 为每秒允许的请求数，burst 为突发容量。
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*ipLimiter)

	// 定期回收长时间不活跃的 IP，避免 map 无限增长
	go func() {
		for range time.Tick(10 * time.Minute) {
			mu.Lock()
			for ip, l := range limiters {
				if time.Since(l.lastSeen) > 30*time.Minute {
					delete(limiters, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		ip := util.GetRealClientIP(c)

		mu.Lock()
		l, ok := limiters[ip]
		if !ok {
			l = &ipLimiter{limiter: rate.NewLimiter(rps, burst)}
			limiters[ip] = l
		}
		l.lastSeen = time.Now()
		mu.Unlock()

		if !l.limiter.Allow() {
			response.Fail(c, http.StatusTooManyRequests, "请求过于频繁，请稍后重试")
			c.Abort()
			return
		}
		c.Next()
	}
}
