/*
 * @Description: cron 任务的通用装饰器（日志与 panic 恢复）
 * @Author: 星河
 * @Date: 2025-06-29 21:18:05
 * @LastEditTime: 2025-07-14 00:40:19
 * @LastEditors: 星河
 */
package task

import (
	"log/slog"
	"reflect"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// JobWrapper 是 cron.JobWrapper 的类型别名
type JobWrapper = cron.JobWrapper

// NewLoggingWrapper 创建日志装饰器。
// 每次执行分配一个唯一 ID，便于在日志里追踪单次运行。
func NewLoggingWrapper(logger *slog.Logger) JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			executionID := uuid.New().String()
			jobLogger := logger.With(
				slog.String("job_name", getJobName(j)),
				slog.String("execution_id", executionID),
			)

			startTime := time.Now()
			jobLogger.Info("任务开始执行")

			j.Run()

			jobLogger.Info("任务执行结束", slog.Duration("duration", time.Since(startTime)))
		})
	}
}

// NewPanicRecoveryWrapper 创建 panic 恢复装饰器。
// 任务 panic 只记录堆栈，不会拖垮整个进程。
func NewPanicRecoveryWrapper(logger *slog.Logger) JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("任务发生 panic",
						slog.String("job_name", getJobName(j)),
						slog.Any("panic", r),
						slog.String("stack_trace", string(debug.Stack())),
					)
				}
			}()

			j.Run()
		})
	}
}

// getJobName 优先取任务自定义的 Name()，否则用反射取类型名
func getJobName(j cron.Job) string {
	if namedJob, ok := j.(interface{ Name() string }); ok {
		return namedJob.Name()
	}

	jobType := reflect.TypeOf(j)
	if jobType.Kind() == reflect.Ptr {
		return jobType.Elem().String()
	}
	return jobType.String()
}
