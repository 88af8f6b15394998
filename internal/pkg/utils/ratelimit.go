/*
 * @Description: 基于令牌桶的限速写入器
 * @Author: 星河
 * @Date: 2025-06-21 17:55:03
 * @LastEditTime: 2025-06-21 17:55:03
 * @LastEditors: 星河
 */
package utils

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// ThrottledWriter 对底层 Writer 的写入速度进行限制。
// limiter 为 nil 时等价于直接写入。
type ThrottledWriter struct {
	w       io.Writer
	limiter *rate.Limiter
	ctx     context.Context
}

// NewThrottledWriter 创建一个限速写入器。bytesPerSecond <= 0 时不限速。
func NewThrottledWriter(ctx context.Context, w io.Writer, bytesPerSecond int64) *ThrottledWriter {
	var limiter *rate.Limiter
	if bytesPerSecond > 0 {
		// 允许一次性突发一个桶容量的数据
		limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), int(bytesPerSecond))
	}
	return &ThrottledWriter{w: w, limiter: limiter, ctx: ctx}
}

func (t *ThrottledWriter) Write(p []byte) (int, error) {
	if t.limiter == nil {
		return t.w.Write(p)
	}

	written := 0
	for written < len(p) {
		chunk := len(p) - written
		if burst := t.limiter.Burst(); chunk > burst {
			chunk = burst
		}
		if err := t.limiter.WaitN(t.ctx, chunk); err != nil {
			return written, err
		}
		n, err := t.w.Write(p[written : written+chunk])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
