/*
 * @Description: 视频目录的 HTTP 处理器
 * @Author: 星河
 * @Date: 2025-03-27 16:20:45
 * @LastEditTime: 2025-08-28 19:15:08
 * @LastEditors: 星河
 */
package video

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xinghe-v/xinghe-video/internal/app/middleware"
	"github.com/xinghe-v/xinghe-video/pkg/config"
	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
	"github.com/xinghe-v/xinghe-video/pkg/idgen"
	"github.com/xinghe-v/xinghe-video/pkg/response"
	"github.com/xinghe-v/xinghe-video/pkg/service/upload"
	videosvc "github.com/xinghe-v/xinghe-video/pkg/service/video"
)

type Handler struct {
	videoSvc  videosvc.IVideoService
	streamSvc videosvc.IStreamService
	viewSvc   videosvc.IViewService
	uploadSvc upload.IUploadService
	linkSvc   videosvc.IDirectLinkService
	// 单连接限速（字节/秒），0 表示不限速
	streamRateLimit int64
}

func NewHandler(
	videoSvc videosvc.IVideoService,
	streamSvc videosvc.IStreamService,
	viewSvc videosvc.IViewService,
	uploadSvc upload.IUploadService,
	linkSvc videosvc.IDirectLinkService,
	cfg *config.Config,
) *Handler {
	return &Handler{
		videoSvc:        videoSvc,
		streamSvc:       streamSvc,
		viewSvc:         viewSvc,
		uploadSvc:       uploadSvc,
		linkSvc:         linkSvc,
		streamRateLimit: cfg.GetInt64(config.KeyStreamRateLimit),
	}
}

func currentViewer(c *gin.Context) videosvc.Viewer {
	return videosvc.Viewer{
		ID:      middleware.CurrentUserID(c),
		IsAdmin: middleware.IsAdmin(c),
	}
}

// failFromError 把业务错误映射为 HTTP 状态码与原因码
func failFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, constant.ErrInvalidPublicID),
		errors.Is(err, constant.ErrChunkIndexOutOfRange),
		errors.Is(err, constant.ErrBadRequest):
		response.FailFromError(c, http.StatusBadRequest, err, err.Error())
	case errors.Is(err, constant.ErrSessionExpired),
		errors.Is(err, constant.ErrSessionTerminal):
		response.FailFromError(c, http.StatusBadRequest, err, err.Error())
	case errors.Is(err, constant.ErrSessionAssembling),
		errors.Is(err, constant.ErrConflict):
		response.FailFromError(c, http.StatusConflict, err, err.Error())
	case errors.Is(err, constant.ErrNotFound),
		errors.Is(err, constant.ErrSessionNotFound),
		errors.Is(err, constant.ErrVideoNotPlayable):
		response.FailFromError(c, http.StatusNotFound, err, err.Error())
	case errors.Is(err, constant.ErrForbidden),
		errors.Is(err, constant.ErrLinkInvalid),
		errors.Is(err, constant.ErrLinkExpired):
		response.FailFromError(c, http.StatusForbidden, err, err.Error())
	case errors.Is(err, constant.ErrUnauthorized),
		errors.Is(err, constant.ErrInvalidToken):
		response.FailFromError(c, http.StatusUnauthorized, err, err.Error())
	default:
		response.FailFromError(c, http.StatusInternalServerError, err, "服务器内部错误")
	}
}

// GetVideo 查询单个视频的元信息
func (h *Handler) GetVideo(c *gin.Context) {
	resp, err := h.videoSvc.GetVideo(c.Request.Context(), currentViewer(c), c.Param("id"))
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, resp, "获取成功")
}

// ListVideos 分页查询视频目录
func (h *Handler) ListVideos(c *gin.Context) {
	viewer := currentViewer(c)
	opts := model.VideoListOptions{
		Keyword: c.Query("keyword"),
	}
	opts.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	opts.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if categoryID := c.Query("category_id"); categoryID != "" {
		// 分类筛选沿用公共 ID，非法值当作无匹配处理
		if id, entityType, err := idgen.DecodePublicID(categoryID); err == nil && entityType == idgen.EntityTypeCategory {
			opts.CategoryID = id
		}
	}
	// mine=1 时只看自己的视频（含非公开与处理中的）
	if c.Query("mine") == "1" && viewer.ID != 0 {
		opts.OwnerID = viewer.ID
	}

	resp, err := h.videoSvc.List(c.Request.Context(), viewer, opts)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, resp, "获取成功")
}

// UpdateVideo 更新视频元信息（标题、描述、分类、可见性）
func (h *Handler) UpdateVideo(c *gin.Context) {
	var req model.UpdateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusUnprocessableEntity, "请求参数不合法: "+err.Error())
		return
	}

	resp, err := h.videoSvc.Update(c.Request.Context(), currentViewer(c), c.Param("id"), &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, resp, "更新成功")
}

// DeleteVideo 删除视频记录及其存储对象
func (h *Handler) DeleteVideo(c *gin.Context) {
	if err := h.videoSvc.Delete(c.Request.Context(), currentViewer(c), c.Param("id")); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, nil, "删除成功")
}
