/*
 * @Description: 业务标准错误与机器可读原因码
 * @Author: 星河
 * @Date: 2025-03-18 14:22:40
 * @LastEditTime: 2025-08-02 21:07:15
 * @LastEditors: 星河
 */
package constant

import "errors"

// 定义业务逻辑相关的标准错误
var (
	// ErrNotFound 表示资源未找到，可以由 Handler 转换为 404
	ErrNotFound = errors.New("资源未找到")

	// ErrForbidden 表示无权访问，可以由 Handler 转换为 403
	ErrForbidden = errors.New("操作禁止")

	// ErrConflict 表示资源冲突，可以由 Handler 转换为 409
	ErrConflict = errors.New("资源冲突")

	// ErrInternalServer 表示服务器内部错误，可以由 Handler 转换为 500
	ErrInternalServer = errors.New("内部服务器错误")

	// ErrBadRequest 表示请求参数错误，可以由 Handler 转换为 400
	ErrBadRequest = errors.New("错误的请求")

	// ErrUnauthorized 表示未授权，可以由 Handler 转换为 401
	ErrUnauthorized = errors.New("未经授权的访问")

	// ErrInvalidToken 表示无效的令牌，可以由 Handler 转换为 401
	ErrInvalidToken = errors.New("无效令牌")

	// ErrSessionNotFound 表示上传会话不存在或已被清理，可以由 Handler 转换为 404
	ErrSessionNotFound = errors.New("上传会话不存在或已过期")

	// ErrSessionExpired 表示上传会话已超过有效期，不再接受分片或合并
	ErrSessionExpired = errors.New("上传会话已过期")

	// ErrSessionTerminal 表示上传会话已处于终态（完成/失败），不允许继续操作
	ErrSessionTerminal = errors.New("上传会话已结束")

	// ErrSessionAssembling 表示会话正在合并中，重复的合并请求会被短路
	ErrSessionAssembling = errors.New("上传会话正在合并中")

	// ErrChunkIndexOutOfRange 表示分片索引越界，可以由 Handler 转换为 400
	ErrChunkIndexOutOfRange = errors.New("无效的分片索引")

	// ErrVideoNotPlayable 表示视频当前不可播放（处理中/已下架/失败）
	ErrVideoNotPlayable = errors.New("视频当前不可播放")

	// ErrRangeNotSatisfiable 表示请求的字节范围越界，可以由 Handler 转换为 416
	ErrRangeNotSatisfiable = errors.New("请求的字节范围无法满足")

	// ErrStorageFailure 表示底层存储读写失败
	ErrStorageFailure = errors.New("存储读写失败")

	// ErrPolicyNotFound 表示存储策略未找到，可以由 Handler 转换为 404
	ErrPolicyNotFound = errors.New("存储策略未找到")

	// ErrInvalidPublicID 表示无效的公共ID，可以由 Handler 转换为 400
	ErrInvalidPublicID = errors.New("无效的公共ID")

	// ErrLinkInvalid 表示签名直链校验失败，可以由 Handler 转换为 403
	ErrLinkInvalid = errors.New("签名链接无效")

	// ErrLinkExpired 表示签名直链已过期，可以由 Handler 转换为 403
	ErrLinkExpired = errors.New("签名链接已过期")
)

// 原因码，作为 API 响应中的 reason 字段返回，客户端依赖这些值做分支处理，
// 不要随意改动已有取值。
const (
	ReasonValidation = "VALIDATION_ERROR"
	ReasonNotFound   = "NOT_FOUND"
	ReasonState      = "STATE_ERROR"
	ReasonAccess     = "ACCESS_ERROR"
	ReasonStorage    = "STORAGE_ERROR"
	ReasonServer     = "SERVER_ERROR"
)

// ReasonFor 把一个业务错误映射为稳定的原因码。
// 未识别的错误一律归为 SERVER_ERROR。
func ReasonFor(err error) string {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrChunkIndexOutOfRange),
		errors.Is(err, ErrInvalidPublicID):
		return ReasonValidation
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrPolicyNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrSessionExpired),
		errors.Is(err, ErrSessionTerminal),
		errors.Is(err, ErrSessionAssembling),
		errors.Is(err, ErrRangeNotSatisfiable),
		errors.Is(err, ErrVideoNotPlayable):
		return ReasonState
	case errors.Is(err, ErrForbidden),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrLinkInvalid),
		errors.Is(err, ErrLinkExpired):
		return ReasonAccess
	case errors.Is(err, ErrStorageFailure):
		return ReasonStorage
	default:
		return ReasonServer
	}
}
