/*
 * @Description:
 * @Author: 星河
 * @Date: 2025-03-15 20:44:08
 * @LastEditTime: 2025-07-19 12:30:26
 * @LastEditors: 星河
 */
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xinghe-v/xinghe-video/pkg/constant"
)

// Response 是统一的API返回结构体。
// Reason 是稳定的机器可读原因码，客户端用它做分支，Message 只供展示。
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Reason  string      `json:"reason,omitempty"`
	Data    interface{} `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// SuccessWithStatus 成功响应，但允许自定义 HTTP 状态码。
// 用于返回 201 Created 或 202 Accepted 等状态。
func SuccessWithStatus(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Fail 失败响应
func Fail(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Reason:  reasonForStatus(code),
		Data:    nil,
	})
}

// FailWithReason 带显式原因码的失败响应
func FailWithReason(c *gin.Context, code int, reason, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Reason:  reason,
		Data:    nil,
	})
}

// FailWithData 失败响应，同时携带数据体。
// 用于"上传未完成"这类需要附带 missing_chunks 的错误。
func FailWithData(c *gin.Context, code int, reason string, data interface{}, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Reason:  reason,
		Data:    data,
	})
}

// FailFromError 根据业务错误推导原因码后返回失败响应
func FailFromError(c *gin.Context, code int, err error, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Reason:  constant.ReasonFor(err),
		Data:    nil,
	})
}

// reasonForStatus 在调用方没有给出原因码时按 HTTP 状态码兜底。
func reasonForStatus(code int) string {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return constant.ReasonValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return constant.ReasonAccess
	case http.StatusNotFound:
		return constant.ReasonNotFound
	case http.StatusRequestedRangeNotSatisfiable:
		return constant.ReasonState
	default:
		return constant.ReasonServer
	}
}
