/*
 * @Description: 视频分类的 HTTP 处理器
 * @Author: 星河
 * @Date: 2025-03-27 17:02:11
 * @LastEditTime: 2025-05-30 15:44:27
 * @LastEditors: 星河
 */
package category

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
	"github.com/xinghe-v/xinghe-video/pkg/response"
	categorysvc "github.com/xinghe-v/xinghe-video/pkg/service/category"
)

type Handler struct {
	svc categorysvc.ICategoryService
}

func NewHandler(svc categorysvc.ICategoryService) *Handler {
	return &Handler{svc: svc}
}

func failFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, constant.ErrInvalidPublicID):
		response.FailFromError(c, http.StatusBadRequest, err, err.Error())
	case errors.Is(err, constant.ErrNotFound):
		response.FailFromError(c, http.StatusNotFound, err, err.Error())
	case errors.Is(err, constant.ErrConflict):
		response.FailFromError(c, http.StatusConflict, err, err.Error())
	default:
		response.FailFromError(c, http.StatusInternalServerError, err, "服务器内部错误")
	}
}

// Create 创建分类
func (h *Handler) Create(c *gin.Context) {
	var req model.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusUnprocessableEntity, "请求参数不合法: "+err.Error())
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.SuccessWithStatus(c, http.StatusCreated, resp, "创建成功")
}

// List 列出所有分类
func (h *Handler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, resp, "获取成功")
}

// Update 更新分类
func (h *Handler) Update(c *gin.Context) {
	var req model.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusUnprocessableEntity, "请求参数不合法: "+err.Error())
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, resp, "更新成功")
}

// Delete 删除分类
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, nil, "删除成功")
}
