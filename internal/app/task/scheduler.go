/*
 * @Description: 定时任务调度器
 * @Author: 星河
 * @Date: 2025-07-12 15:30:02
 * @LastEditTime: 2025-08-28 21:47:29
 * @LastEditors: 星河
 */
package task

import (
	"log/slog"
	"os"

	"github.com/robfig/cron/v3"

	"github.com/xinghe-v/xinghe-video/pkg/service/upload"
)

// Scheduler 封装 cron 实例与任务依赖，负责注册、启动和停止。
type Scheduler struct {
	cron      *cron.Cron
	logger    *slog.Logger
	uploadSvc upload.IUploadService
}

func NewScheduler(uploadSvc upload.IUploadService) *Scheduler {
	slogHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(slogHandler).With("system", "cron")

	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(
			NewPanicRecoveryWrapper(logger),
			NewLoggingWrapper(logger),
			cron.DelayIfStillRunning(cron.DefaultLogger),
		),
	)

	return &Scheduler{
		cron:      c,
		logger:    logger,
		uploadSvc: uploadSvc,
	}
}

// RegisterJobs 注册所有定时任务
func (s *Scheduler) RegisterJobs() {
	s.logger.Info("开始注册定时任务...")

	cleanupJob := NewCleanupExpiredUploadsJob(s.uploadSvc, s.logger)
	// 每小时整点执行一次，兜住会话有效期之外的清理
	if _, err := s.cron.AddJob("0 0 * * * *", cleanupJob); err != nil {
		s.logger.Error("注册 'CleanupExpiredUploadsJob' 失败", slog.Any("error", err))
		os.Exit(1)
	}
	s.logger.Info("-> 已注册 'CleanupExpiredUploadsJob'", "schedule", "every hour")

	s.logger.Info("所有定时任务注册完成。")
}

// Start 启动调度器
func (s *Scheduler) Start() {
	s.logger.Info("定时任务调度器已启动。")
	s.cron.Start()
}

// Stop 优雅停止调度器，等待运行中的任务结束
func (s *Scheduler) Stop() {
	s.logger.Info("正在停止定时任务调度器...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("定时任务调度器已停止。")
}
