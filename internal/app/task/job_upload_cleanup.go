/*
 * @Description: 过期上传会话清理任务
 * @Author: 星河
 * @Date: 2025-07-12 15:02:38
 * @LastEditTime: 2025-08-28 21:40:16
 * @LastEditors: 星河
 */
package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/xinghe-v/xinghe-video/pkg/service/upload"
)

// CleanupExpiredUploadsJob 定期回收过期的上传会话及其分片临时文件。
type CleanupExpiredUploadsJob struct {
	uploadSvc upload.IUploadService
	logger    *slog.Logger
}

func NewCleanupExpiredUploadsJob(uploadSvc upload.IUploadService, logger *slog.Logger) *CleanupExpiredUploadsJob {
	return &CleanupExpiredUploadsJob{uploadSvc: uploadSvc, logger: logger}
}

func (j *CleanupExpiredUploadsJob) Name() string {
	return "CleanupExpiredUploadsJob"
}

func (j *CleanupExpiredUploadsJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cleaned, err := j.uploadSvc.CleanupExpiredSessions(ctx)
	if err != nil {
		j.logger.Error("清理过期上传会话失败", slog.Any("error", err))
		return
	}
	if cleaned > 0 {
		j.logger.Info("清理过期上传会话完成", slog.Int("cleaned", cleaned))
	}
}
