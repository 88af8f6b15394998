/*
 * @Description: 视频播放与下载的 HTTP 处理器
 * @Author: 星河
 * @Date: 2025-06-14 14:20:18
 * @LastEditTime: 2025-08-28 21:10:52
 * @LastEditors: 星河
 */
package video

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xinghe-v/xinghe-video/internal/pkg/utils"
	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/response"
	"github.com/xinghe-v/xinghe-video/pkg/util"
	videosvc "github.com/xinghe-v/xinghe-video/pkg/service/video"
)

// Stream 播放视频，支持 HTTP Range 拖动。
func (h *Handler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	viewer := currentViewer(c)
	publicID := c.Param("id")

	result, err := h.streamSvc.OpenStream(ctx, viewer, publicID, c.GetHeader("Range"))
	if err != nil {
		if errors.Is(err, constant.ErrRangeNotSatisfiable) {
			// 416 必须带上 Content-Range: bytes */<size> 告知有效范围
			if v, verr := h.videoSvc.FindPlayable(ctx, viewer, publicID); verr == nil {
				c.Header("Content-Range", fmt.Sprintf("bytes */%d", v.FileSize))
			}
			response.FailFromError(c, http.StatusRequestedRangeNotSatisfiable, err, err.Error())
			return
		}
		failFromError(c, err)
		return
	}
	defer result.Reader.Close()

	// 观看计数在响应体发送前登记，去重失败不阻塞播放
	if v, verr := h.videoSvc.FindPlayable(ctx, viewer, publicID); verr == nil {
		if _, verr := h.viewSvc.RecordView(ctx, v, viewer.ID, util.GetRealClientIP(c)); verr != nil {
			log.Printf("⚠️ 登记观看记录失败: %v", verr)
		}
	}

	c.Header("Accept-Ranges", "bytes")
	c.Header("Content-Type", result.MimeType)
	c.Header("Cache-Control", "public, max-age=3600")

	contentLength := result.End - result.Start + 1
	c.Header("Content-Length", strconv.FormatInt(contentLength, 10))
	if result.Partial {
		c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", result.Start, result.End, result.Size))
		c.Status(http.StatusPartialContent)
	} else {
		c.Status(http.StatusOK)
	}

	h.copyBody(c, result.Reader, false)
}

// Download 下载完整视频文件。下载通道不支持 Range，
// 大文件走分块传输避免一次性声明超大 Content-Length。
// 支持两种授权方式：登录态，或 CreateDirectLink 签发的限时签名参数。
func (h *Handler) Download(c *gin.Context) {
	ctx := c.Request.Context()
	publicID := c.Param("id")
	viewer := currentViewer(c)

	if sign := c.Query("sign"); sign != "" {
		expires, err := strconv.ParseInt(c.Query("expires"), 10, 64)
		if err != nil {
			failFromError(c, constant.ErrLinkInvalid)
			return
		}
		if err := h.linkSvc.Verify(publicID, expires, sign); err != nil {
			failFromError(c, err)
			return
		}
		// 签名覆盖了视频与有效期，持有者视为已获授权
		viewer = videosvc.Viewer{IsAdmin: true}
	} else if viewer.ID == 0 {
		failFromError(c, constant.ErrUnauthorized)
		return
	}

	result, err := h.streamSvc.OpenDownload(ctx, viewer, publicID)
	if err != nil {
		failFromError(c, err)
		return
	}
	defer result.Reader.Close()

	c.Header("Content-Type", result.MimeType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Header("Accept-Ranges", "none")
	if !result.Chunked {
		c.Header("Content-Length", strconv.FormatInt(result.Size, 10))
	}
	c.Status(http.StatusOK)

	h.copyBody(c, result.Reader, result.Chunked)
}

// CreateDirectLink 为视频签发限时下载直链，供无登录态的链接分享。
// 能看到该视频的用户即可签发（私有视频仍只有所有者或管理员能签）。
func (h *Handler) CreateDirectLink(c *gin.Context) {
	ctx := c.Request.Context()
	viewer := currentViewer(c)
	publicID := c.Param("id")

	if _, err := h.videoSvc.GetVideo(ctx, viewer, publicID); err != nil {
		failFromError(c, err)
		return
	}

	ttl := videosvc.DirectLinkDefaultTTL
	if raw := c.Query("expires_in"); raw != "" {
		seconds, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || seconds <= 0 {
			failFromError(c, fmt.Errorf("%w: 无效的有效期 %q", constant.ErrBadRequest, raw))
			return
		}
		ttl = time.Duration(seconds) * time.Second
	}

	link, err := h.linkSvc.Sign(publicID, ttl)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, gin.H{
		"url":        link.URL(),
		"expires_at": link.ExpiresAt.Unix(),
	}, "签发成功")
}

// copyBody 以固定块大小把存储端数据写给客户端，可选限速与逐块刷新。
func (h *Handler) copyBody(c *gin.Context, r io.Reader, flushEachBlock bool) {
	var w io.Writer = c.Writer
	if h.streamRateLimit > 0 {
		w = utils.NewThrottledWriter(c.Request.Context(), c.Writer, h.streamRateLimit)
	}

	buf := make([]byte, videosvc.StreamBlockSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				// 客户端拖动进度条或关闭页面都会断开连接，正常现象
				return
			}
			if flushEachBlock {
				c.Writer.Flush()
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("⚠️ 读取视频数据流失败: %v", err)
			}
			return
		}
	}
}
