/*
 * @Description: 认证相关的 HTTP 处理器
 * @Author: 星河
 * @Date: 2025-03-19 15:30:22
 * @LastEditTime: 2025-08-28 18:40:17
 * @LastEditors: 星河
 */
package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
	"github.com/xinghe-v/xinghe-video/pkg/response"
	authsvc "github.com/xinghe-v/xinghe-video/pkg/service/auth"
)

type Handler struct {
	svc authsvc.IAuthService
}

func NewHandler(svc authsvc.IAuthService) *Handler {
	return &Handler{svc: svc}
}

// Register 处理用户注册
func (h *Handler) Register(c *gin.Context) {
	var req authsvc.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusUnprocessableEntity, "请求参数不合法: "+err.Error())
		return
	}

	info, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, constant.ErrConflict) {
			response.FailFromError(c, http.StatusConflict, err, err.Error())
			return
		}
		response.FailFromError(c, http.StatusInternalServerError, err, "注册失败")
		return
	}
	response.SuccessWithStatus(c, http.StatusCreated, info, "注册成功")
}

// Login 处理用户登录
func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusUnprocessableEntity, "请求参数不合法: "+err.Error())
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, constant.ErrUnauthorized):
			response.FailFromError(c, http.StatusUnauthorized, err, "用户名或密码错误")
		case errors.Is(err, constant.ErrForbidden):
			response.FailFromError(c, http.StatusForbidden, err, "账号已被禁用")
		default:
			response.FailFromError(c, http.StatusInternalServerError, err, "登录失败")
		}
		return
	}
	response.Success(c, resp, "登录成功")
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh 用刷新令牌换取新的令牌对
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusUnprocessableEntity, "请求参数不合法: "+err.Error())
		return
	}

	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.FailFromError(c, http.StatusUnauthorized, err, "刷新令牌无效")
		return
	}
	response.Success(c, resp, "刷新成功")
}
