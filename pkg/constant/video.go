/*
 * @Description: 视频与上传会话的状态常量
 * @Author: 星河
 * @Date: 2025-03-18 14:30:02
 * @LastEditTime: 2025-07-26 10:41:33
 * @LastEditors: 星河
 */
package constant

// 上传会话状态。
// 状态只允许沿 pending -> uploading -> assembling -> completed 前进，
// 或者从任意非终态进入 failed / expired。
const (
	SessionStatusPending    = "pending"
	SessionStatusUploading  = "uploading"
	SessionStatusAssembling = "assembling"
	SessionStatusCompleted  = "completed"
	SessionStatusFailed     = "failed"
	SessionStatusExpired    = "expired"
)

// IsTerminalSessionStatus 判断会话状态是否为终态。
func IsTerminalSessionStatus(status string) bool {
	return status == SessionStatusCompleted ||
		status == SessionStatusFailed ||
		status == SessionStatusExpired
}

// 视频目录记录状态。
// processing 期间 file_path 不是有效的可播放指针，流媒体端必须拒绝。
const (
	VideoStatusProcessing = "processing"
	VideoStatusActive     = "active"
	VideoStatusInactive   = "inactive"
	VideoStatusFailed     = "failed"
)

// 视频可见性
const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"
)
