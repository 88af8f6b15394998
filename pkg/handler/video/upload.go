/*
 * @Description: 分片上传的 HTTP 处理器
 * @Author: 星河
 * @Date: 2025-05-08 09:33:52
 * @LastEditTime: 2025-08-28 20:02:33
 * @LastEditors: 星河
 */
package video

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xinghe-v/xinghe-video/internal/app/middleware"
	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
	"github.com/xinghe-v/xinghe-video/pkg/response"
	"github.com/xinghe-v/xinghe-video/pkg/service/upload"
)

// InitUpload 创建上传会话
func (h *Handler) InitUpload(c *gin.Context) {
	var req model.InitUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusUnprocessableEntity, "请求参数不合法: "+err.Error())
		return
	}

	data, err := h.uploadSvc.InitUpload(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.SuccessWithStatus(c, http.StatusCreated, data, "上传会话创建成功")
}

// UploadChunk 接收一个分片。分片体以 multipart 表单的 chunk 字段上传。
func (h *Handler) UploadChunk(c *gin.Context) {
	sessionID := c.PostForm("session_id")
	if sessionID == "" {
		response.Fail(c, http.StatusBadRequest, "缺少 session_id 参数")
		return
	}
	index, err := strconv.Atoi(c.PostForm("chunk_index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "chunk_index 必须是整数")
		return
	}

	fileHeader, err := c.FormFile("chunk")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "缺少 chunk 文件字段")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "读取分片数据失败")
		return
	}
	defer file.Close()

	result, err := h.uploadSvc.UploadChunk(c.Request.Context(), middleware.CurrentUserID(c), sessionID, index, file)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, result, "分片上传成功")
}

// CompleteUpload 触发合并。所有分片就绪后才会真正执行，
// 缺片时返回 400 并附带 missing_chunks 供客户端续传。
func (h *Handler) CompleteUpload(c *gin.Context) {
	var req model.CompleteUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusUnprocessableEntity, "请求参数不合法: "+err.Error())
		return
	}

	resp, err := h.uploadSvc.CompleteUpload(c.Request.Context(), middleware.CurrentUserID(c), req.SessionID)
	if err != nil {
		var incomplete *upload.IncompleteUploadError
		if errors.As(err, &incomplete) {
			response.FailWithData(c, http.StatusBadRequest, constant.ReasonValidation,
				&model.IncompleteUploadData{
					MissingChunks: incomplete.Missing,
					Progress:      incomplete.Progress,
				}, incomplete.Error())
			return
		}
		failFromError(c, err)
		return
	}
	response.Success(c, resp, "上传完成")
}

// GetUploadStatus 查询会话进度与缺失分片
func (h *Handler) GetUploadStatus(c *gin.Context) {
	resp, err := h.uploadSvc.GetStatus(c.Request.Context(), middleware.CurrentUserID(c), c.Param("sessionId"))
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, resp, "获取成功")
}

// AbortUpload 中止会话并清理已上传的分片
func (h *Handler) AbortUpload(c *gin.Context) {
	if err := h.uploadSvc.AbortUpload(c.Request.Context(), middleware.CurrentUserID(c), c.Param("sessionId")); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, nil, "上传已中止")
}
